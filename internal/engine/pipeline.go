package engine

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andeptrai/ocr-studio/pkg/logger"
)

// maxPreprocessWorkers bounds the parallel preprocessing of OCR
// candidate pages. Rasterization and recognition stay serial: neither a
// fitz document nor a gosseract client is safe for concurrent use.
const maxPreprocessWorkers = 4

// pipeline is the default conversion engine. It reads each page's
// embedded text layer and falls back to rasterize-and-recognize for
// pages whose text layer is missing or too thin.
type pipeline struct {
	log    logger.Logger
	opts   Options
	chain  []Preprocessor
	client *gosseract.Client
}

// NewPipeline constructs the conversion engine. This is the expensive
// step: the Tesseract client loads its language models here.
func NewPipeline(log logger.Logger, opts Options) (Engine, error) {
	opts = opts.withDefaults()

	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Join(opts.Languages, "+")); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR languages: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &pipeline{
		log:    log,
		opts:   opts,
		chain:  defaultPreprocessors(),
		client: client,
	}, nil
}

func (p *pipeline) Convert(ctx context.Context, path string) (*Rendered, error) {
	texts, err := p.nativePageTexts(path)
	if err != nil {
		// No usable text layer at all. Some scanned PDFs trip the parser
		// entirely; the OCR pass may still handle them.
		p.log.Warn("Text layer extraction failed, trying full OCR",
			logger.String("path", path),
			logger.Error(err),
		)
		total, cErr := pageCount(path)
		if cErr != nil {
			return nil, fmt.Errorf("failed to open document: %w", cErr)
		}
		texts = make([]string, total)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	var candidates []int
	for i, text := range texts {
		if len(strings.TrimSpace(text)) < p.opts.TextThreshold {
			candidates = append(candidates, i)
		}
	}

	pages := make([]Page, len(texts))
	for i, text := range texts {
		pages[i] = Page{Index: i, Text: text}
	}

	if len(candidates) > 0 {
		recognized, err := p.ocrPages(ctx, path, candidates)
		if err != nil {
			return nil, err
		}
		for idx, text := range recognized {
			pages[idx] = Page{Index: idx, Text: text, OCR: true}
		}
	}

	return &Rendered{Pages: pages, Separator: p.opts.PageSeparator}, nil
}

// nativePageTexts reads the embedded text layer of every page. The pdf
// parser panics on some malformed documents; that is folded into the
// error return so one bad file can't take the engine down.
func (p *pipeline) nativePageTexts(path string) (texts []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			texts = nil
			err = fmt.Errorf("text layer parse panic: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	total := r.NumPage()
	if total <= 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	texts = make([]string, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Leave the page empty; the OCR fallback picks it up.
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

// ocrPages rasterizes the candidate pages, preprocesses them in
// parallel, then recognizes them one at a time on the shared client.
func (p *pipeline) ocrPages(ctx context.Context, path string, indices []int) (map[int]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document for OCR: %w", err)
	}
	defer doc.Close()

	images := make(map[int]image.Image, len(indices))
	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx >= doc.NumPage() {
			continue
		}
		img, err := doc.ImageDPI(idx, float64(p.opts.RenderDPI))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", idx+1, err)
		}
		images[idx] = img
	}

	encoded := make(map[int][]byte, len(images))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxPreprocessWorkers)

	for idx, img := range images {
		idx, img := idx, img
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			data, err := preprocessPage(img, p.chain)
			if err != nil {
				return fmt.Errorf("failed to preprocess page %d: %w", idx+1, err)
			}

			mu.Lock()
			encoded[idx] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recognized := make(map[int]string, len(encoded))
	for _, idx := range indices {
		data, ok := encoded[idx]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.client.SetImageFromBytes(data); err != nil {
			return nil, fmt.Errorf("failed to load page %d into recognizer: %w", idx+1, err)
		}
		text, err := p.client.Text()
		if err != nil {
			return nil, fmt.Errorf("recognition failed on page %d: %w", idx+1, err)
		}
		recognized[idx] = text

		p.log.Debug("Recognized page",
			logger.Int("page", idx+1),
			logger.Int("chars", len(text)),
		)
	}
	return recognized, nil
}

func (p *pipeline) Close() error {
	return p.client.Close()
}

func pageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}
