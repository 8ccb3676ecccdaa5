// Package tesseract provides a local OCR provider backed by libtesseract.
//
// It needs cgo and the tesseract development headers, so it lives outside the
// providers package and is only linked by the command that wires it in.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/jackzampolin/bulletin/internal/providers"
)

const Name = "tesseract"

// Config holds configuration for the tesseract provider.
type Config struct {
	Languages []string // default: eng
	DPI       int      // hint for rasterised pages; 0 leaves tesseract to guess
}

// Provider implements providers.OCRProvider using gosseract.
type Provider struct {
	languages     []string
	dpi           int
	clientFactory func() *gosseract.Client
}

// New creates a tesseract provider.
func New(cfg Config) *Provider {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &Provider{
		languages:     cfg.Languages,
		dpi:           cfg.DPI,
		clientFactory: gosseract.NewClient,
	}
}

func (p *Provider) Name() string { return Name }

// RequestsPerSecond is unbounded in practice; the caller's worker count
// is the real limit for a local engine.
func (p *Provider) RequestsPerSecond() float64 { return 100 }

func (p *Provider) MaxRetries() int { return 0 }

func (p *Provider) RetryDelayBase() time.Duration { return 0 }

// ProcessImage recognises the text of one rendered page.
func (p *Provider) ProcessImage(ctx context.Context, image []byte, pageNum int) (*providers.OCRResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return &providers.OCRResult{ErrorMessage: err.Error()}, err
	}

	c := p.clientFactory()
	defer c.Close()

	text, confidence, err := p.recognize(c, image)
	if err != nil {
		err = fmt.Errorf("tesseract page %d: %w", pageNum, err)
		return &providers.OCRResult{
			ErrorMessage:  err.Error(),
			ExecutionTime: time.Since(start),
		}, err
	}

	return &providers.OCRResult{
		Success: true,
		Text:    text,
		Metadata: map[string]any{
			"page_num":   pageNum,
			"languages":  p.languages,
			"confidence": confidence,
		},
		ExecutionTime: time.Since(start),
	}, nil
}

func (p *Provider) recognize(c *gosseract.Client, image []byte) (string, float64, error) {
	if err := c.SetLanguage(p.languages...); err != nil {
		return "", 0, fmt.Errorf("set languages: %w", err)
	}
	if p.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(p.dpi)); err != nil {
			return "", 0, fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), averageConfidence(c), nil
}

func averageConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}

var _ providers.OCRProvider = (*Provider)(nil)
