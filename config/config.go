package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	once sync.Once
	cfg  *Config
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
}

// EngineConfig holds the conversion engine options. These are resolved
// once at load time; the engine never re-reads them per request.
type EngineConfig struct {
	Languages      []string      `yaml:"languages"`
	RenderDPI      int           `yaml:"renderDPI"`
	TextThreshold  int           `yaml:"textThreshold"`
	PageSeparator  string        `yaml:"pageSeparator"`
	ConvertTimeout time.Duration `yaml:"convertTimeout"`
}

// UploadConfig 上传限制
type UploadConfig struct {
	MaxFileSize int64 `yaml:"maxFileSize"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"outputPaths"`
}

// Config is the top-level configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Upload UploadConfig `yaml:"upload"`
	Log    LogConfig    `yaml:"log"`
}

// Get loads configuration once: defaults, then an optional YAML file,
// then environment variables (highest precedence). A .env file is
// loaded first when present.
func Get() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}

		cfg = &Config{
			Server: ServerConfig{
				Addr:            ":8080",
				ShutdownTimeout: 5 * time.Second,
				AllowOrigins:    []string{"*"},
			},
			Engine: EngineConfig{
				Languages:      []string{"eng"},
				RenderDPI:      300,
				TextThreshold:  16,
				PageSeparator:  "\n\n",
				ConvertTimeout: 10 * time.Minute,
			},
			Upload: UploadConfig{
				MaxFileSize: 50 * 1024 * 1024, // 50MB
			},
			Log: LogConfig{
				Level:       "info",
				Encoding:    "json",
				OutputPaths: []string{"stdout", "logs/app.log"},
			},
		}

		loadFile(cfg)
		loadEnv(cfg)
	})
	return cfg
}

// loadFile overlays values from an optional YAML config file.
func loadFile(c *Config) {
	path := getEnv("OCR_STUDIO_CONFIG", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		log.Printf("Warning: ignoring malformed config file %s: %v", path, err)
	}
}

func loadEnv(c *Config) {
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Encoding = getEnv("LOG_ENCODING", c.Log.Encoding)

	if v := os.Getenv("OCR_LANGUAGES"); v != "" {
		c.Engine.Languages = splitList(v)
	}
	c.Engine.RenderDPI = parseInt(getEnv("OCR_RENDER_DPI", ""), c.Engine.RenderDPI)
	c.Engine.TextThreshold = parseInt(getEnv("OCR_TEXT_THRESHOLD", ""), c.Engine.TextThreshold)
	c.Engine.ConvertTimeout = parseDuration(getEnv("ENGINE_CONVERT_TIMEOUT", ""), c.Engine.ConvertTimeout)
	c.Upload.MaxFileSize = parseInt64(getEnv("UPLOAD_MAX_FILE_SIZE", ""), c.Upload.MaxFileSize)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
