package engine

import (
	"sync"

	"github.com/andeptrai/ocr-studio/pkg/logger"
)

// Loader constructs the conversion engine at most once per process and
// caches the handle for reuse across requests. A failed construction is
// cached too: it is surfaced on every Load call but the construction is
// never re-run. Model and language data loading is the expensive part;
// a broken environment needs a restart, not a retry loop.
type Loader struct {
	log       logger.Logger
	construct func() (Engine, error)

	mu     sync.Mutex
	loaded bool
	engine Engine
	err    error
}

// NewLoader creates a loader around an engine constructor.
func NewLoader(log logger.Logger, construct func() (Engine, error)) *Loader {
	return &Loader{
		log:       log,
		construct: construct,
	}
}

// NewPipelineLoader creates a loader for the default conversion
// pipeline with the given options.
func NewPipelineLoader(log logger.Logger, opts Options) *Loader {
	return NewLoader(log, func() (Engine, error) {
		return NewPipeline(log, opts)
	})
}

// Load returns the cached engine handle, constructing it on first use.
func (l *Loader) Load() (Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		l.log.Info("Loading conversion engine")
		eng, err := l.construct()
		if err != nil {
			l.err = &InitError{Err: err}
			l.log.Error("Engine load failed", logger.Error(err))
		} else {
			l.engine = eng
			l.log.Info("Conversion engine ready")
		}
		l.loaded = true
	}
	return l.engine, l.err
}

// Ready reports whether the engine loaded successfully. It never
// triggers a load.
func (l *Loader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded && l.err == nil
}

// Close releases the engine if it was constructed.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine != nil {
		return l.engine.Close()
	}
	return nil
}
