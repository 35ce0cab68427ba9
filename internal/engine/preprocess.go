package engine

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// Preprocessor prepares a rasterized page for recognition.
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// GrayscaleProcessor 灰度处理器
type GrayscaleProcessor struct{}

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// ContrastProcessor lifts contrast so faint scans binarize better.
type ContrastProcessor struct {
	Percentage float64
}

func (p *ContrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.Percentage), nil
}

// SharpenProcessor sharpens glyph edges before recognition.
type SharpenProcessor struct {
	Sigma float64
}

func (p *SharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.Sigma), nil
}

// defaultPreprocessors is the chain applied to every OCR candidate page.
func defaultPreprocessors() []Preprocessor {
	return []Preprocessor{
		&GrayscaleProcessor{},
		&ContrastProcessor{Percentage: 15},
		&SharpenProcessor{Sigma: 0.8},
	}
}

// preprocessPage runs the chain and encodes the page as PNG bytes for
// the recognizer.
func preprocessPage(img image.Image, chain []Preprocessor) ([]byte, error) {
	var err error
	for _, p := range chain {
		if img, err = p.Process(img); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
