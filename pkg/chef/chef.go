// Package chef turns MDL documents into finished memes: it resolves the base
// format, applies service-wide text options and runs the caption renderer.
package chef

import (
	"errors"
	"fmt"
	"image"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xob0t/mdlchef/pkg/caption"
	"github.com/xob0t/mdlchef/pkg/formats"
	"github.com/xob0t/mdlchef/pkg/mdl"
)

// FormatSource looks up formats by id. *formats.Repository implements it.
type FormatSource interface {
	Get(id string) (*formats.Format, error)
}

// Service renders memes against one format source. It is safe for
// concurrent use.
type Service struct {
	formats   FormatSource
	renderer  *caption.Renderer
	uppercase bool
}

// Option configures a Service.
type Option func(*Service)

// WithUppercase upper-cases every caption before fitting.
func WithUppercase(on bool) Option {
	return func(s *Service) { s.uppercase = on }
}

// New creates a service. renderer may be nil for the default renderer.
func New(src FormatSource, renderer *caption.Renderer, opts ...Option) (*Service, error) {
	if src == nil {
		return nil, errors.New("chef: nil format source")
	}
	if renderer == nil {
		r, err := caption.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("create renderer: %w", err)
		}
		renderer = r
	}
	s := &Service{formats: src, renderer: renderer}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RenderMeme draws req onto format and returns the PNG bytes.
func (s *Service) RenderMeme(req caption.Request, format *formats.Format) ([]byte, error) {
	if format == nil {
		return nil, &GenerationError{Err: errors.New("no format")}
	}
	base, err := format.LoadImage()
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	start := time.Now()
	data, err := s.renderer.Render(base, format.Geometry(), s.prepare(req))
	if err != nil {
		return nil, err
	}
	caption.Logger().Debug("meme rendered", "format", format.ID, "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}

// RenderImage is RenderMeme returning pixels instead of PNG bytes.
func (s *Service) RenderImage(req caption.Request, format *formats.Format) (*image.NRGBA, error) {
	if format == nil {
		return nil, &GenerationError{Err: errors.New("no format")}
	}
	base, err := format.LoadImage()
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	return s.renderer.RenderImage(base, format.Geometry(), s.prepare(req))
}

// Render resolves req.FormatID and renders.
func (s *Service) Render(req caption.Request) ([]byte, error) {
	format, err := s.formats.Get(req.FormatID)
	if err != nil {
		return nil, err
	}
	return s.RenderMeme(req, format)
}

// RenderMDL parses, validates and renders an MDL document. The decoded
// document is returned whenever parsing succeeded, even if rendering failed.
func (s *Service) RenderMDL(src string) ([]byte, *mdl.Meme, error) {
	m, err := mdl.Parse(src)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, m, err
	}
	data, err := s.Render(m.Request())
	return data, m, err
}

// RenderMessage extracts MDL from free text and renders it. ok is false,
// with no error, when the message carries no renderable MDL.
func (s *Service) RenderMessage(message string) (data []byte, ok bool, err error) {
	src, found := mdl.Extract(message)
	if !found {
		return nil, false, nil
	}
	data, _, err = s.RenderMDL(src)
	return data, true, err
}

// prepare applies service text options to a copy of req.
func (s *Service) prepare(req caption.Request) caption.Request {
	if !s.uppercase {
		return req
	}
	// A Caser keeps state between calls and cannot be shared.
	upper := cases.Upper(language.English)
	out := caption.Request{
		FormatID: req.FormatID,
		Top:      upper.String(req.Top),
		Center:   upper.String(req.Center),
		Bottom:   upper.String(req.Bottom),
	}
	if len(req.Inserts) > 0 {
		out.Inserts = make(map[string]string, len(req.Inserts))
		for name, text := range req.Inserts {
			out.Inserts[name] = upper.String(text)
		}
	}
	return out
}
