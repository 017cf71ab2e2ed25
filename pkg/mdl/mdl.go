// Package mdl parses MDL, the Meme Description Language: a small JSON5
// document naming a base format and the caption text for its regions.
//
//	{
//	  version: "MDL/1.1",
//	  type: "meme",
//	  base: "Meme.drake",            // or { format: "Meme.drake" }
//	  caption: { top: "no", bottom: "yes" },  // or a string for bottom text
//	  inserts: { sign: "text" },
//	}
package mdl

import (
	"sort"

	"github.com/xob0t/mdlchef/pkg/caption"
)

// Supported document identifiers.
const (
	Version  = "MDL/1.1"
	TypeMeme = "meme"
)

// Caption field names and their accepted aliases.
var (
	topKeys    = []string{"topText", "top", "north_text"}
	centerKeys = []string{"centerText", "middle", "center"}
	bottomKeys = []string{"bottomText", "bottom", "south_text"}
)

// Meme is a decoded MDL document.
type Meme struct {
	Version string
	Type    string
	Base    Base
	Caption Caption
	Inserts map[string]string
}

// Base names the format a meme is drawn on.
type Base struct {
	Format string
}

// Caption holds the text for the built-in bands. Empty means absent.
type Caption struct {
	Top    string
	Center string
	Bottom string
}

// Parse decodes an MDL document. Syntax errors and fields of the wrong
// shape are reported as *ParseError; field values are not checked, see
// Validate.
func Parse(src string) (*Meme, error) {
	doc, err := parseDocument(src)
	if err != nil {
		return nil, newParseError(err)
	}
	root, err := doc.Value.value()
	if err != nil {
		return nil, err
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, &ParseError{Msg: "expected an object at the top level"}
	}

	m := &Meme{}
	if m.Version, err = requiredString(obj, "version"); err != nil {
		return nil, err
	}
	if m.Type, err = requiredString(obj, "type"); err != nil {
		return nil, err
	}
	if m.Base, err = decodeBase(obj); err != nil {
		return nil, err
	}
	if m.Caption, err = decodeCaption(obj["caption"]); err != nil {
		return nil, err
	}
	if m.Inserts, err = decodeInserts(obj["inserts"]); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseAndValidate is Parse followed by Validate.
func ParseAndValidate(src string) (*Meme, error) {
	m, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the document type and version.
func (m *Meme) Validate() error {
	if m.Type != TypeMeme {
		return &ValidationError{Field: "type", Msg: "`type` field did not equal 'meme'."}
	}
	if m.Version != Version {
		return &ValidationError{
			Field: "version",
			Msg:   "`version` field did not equal 'MDL/1.1'. This is the only supported version as of now.",
		}
	}
	if m.Base.Format == "" {
		return &ValidationError{Field: "base", Msg: "`base` does not name a format."}
	}
	return nil
}

// Request converts the meme into a caption request.
func (m *Meme) Request() caption.Request {
	req := caption.Request{
		FormatID: m.Base.Format,
		Top:      m.Caption.Top,
		Center:   m.Caption.Center,
		Bottom:   m.Caption.Bottom,
	}
	if len(m.Inserts) > 0 {
		req.Inserts = make(map[string]string, len(m.Inserts))
		for name, text := range m.Inserts {
			req.Inserts[name] = text
		}
	}
	return req
}

// InsertNames returns the meme's insert names, sorted.
func (m *Meme) InsertNames() []string {
	names := make([]string, 0, len(m.Inserts))
	for name := range m.Inserts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func requiredString(obj map[string]any, field string) (string, error) {
	v, ok := obj[field]
	if !ok {
		return "", fieldError(field, "missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldError(field, "expected a string, got %s", typeName(v))
	}
	return s, nil
}

// decodeBase accepts "Meme.id" or { format: "Meme.id" }.
func decodeBase(obj map[string]any) (Base, error) {
	v, ok := obj["base"]
	if !ok {
		return Base{}, fieldError("base", "missing")
	}
	switch b := v.(type) {
	case string:
		return Base{Format: b}, nil
	case map[string]any:
		f, err := requiredString(b, "format")
		if err != nil {
			return Base{}, fieldError("base", "%s", err.(*ParseError).Msg)
		}
		return Base{Format: f}, nil
	default:
		return Base{}, fieldError("base", "expected a string or object, got %s", typeName(v))
	}
}

// decodeCaption accepts a string, which is bottom text, or an object keyed
// by band. Unknown keys are ignored.
func decodeCaption(v any) (Caption, error) {
	switch c := v.(type) {
	case nil:
		return Caption{}, nil
	case string:
		return Caption{Bottom: c}, nil
	case map[string]any:
		var out Caption
		var err error
		if out.Top, err = aliasedString(c, topKeys); err != nil {
			return Caption{}, err
		}
		if out.Center, err = aliasedString(c, centerKeys); err != nil {
			return Caption{}, err
		}
		if out.Bottom, err = aliasedString(c, bottomKeys); err != nil {
			return Caption{}, err
		}
		return out, nil
	default:
		return Caption{}, fieldError("caption", "expected a string or object, got %s", typeName(v))
	}
}

// aliasedString returns the first present key in keys. null counts as
// absent.
func aliasedString(obj map[string]any, keys []string) (string, error) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", fieldError("caption."+k, "expected a string, got %s", typeName(v))
		}
		return s, nil
	}
	return "", nil
}

// decodeInserts accepts an object mapping insert names to text.
func decodeInserts(v any) (map[string]string, error) {
	switch ins := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]string, len(ins))
		for name, text := range ins {
			if text == nil {
				continue
			}
			s, ok := text.(string)
			if !ok {
				return nil, fieldError("inserts."+name, "expected a string, got %s", typeName(text))
			}
			out[name] = s
		}
		return out, nil
	default:
		return nil, fieldError("inserts", "expected an object, got %s", typeName(v))
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "value"
	}
}
