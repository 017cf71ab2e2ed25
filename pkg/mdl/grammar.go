// grammar.go — JSON5 subset grammar for MDL documents.
package mdl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	json5Lexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n\x{feff}\x{a0}\x{2028}\x{2029}]+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "String", Pattern: `"(?:\\[\s\S]|[^"\\])*"|'(?:\\[\s\S]|[^'\\])*'`},
		{Name: "Number", Pattern: `[-+]?(?:0[xX][0-9A-Fa-f]+|Infinity|NaN|(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)`},
		{Name: "Ident", Pattern: `[A-Za-z_$][A-Za-z0-9_$]*`},
		{Name: "Punct", Pattern: `[{}\[\],:]`},
	})

	documentParser = participle.MustBuild[document](
		participle.Lexer(json5Lexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
		participle.UseLookahead(4),
	)
)

// document is the root of a JSON5 text: exactly one value.
type document struct {
	Value *node `parser:"@@"`
}

// node is any JSON5 value.
type node struct {
	Pos    lexer.Position `parser:""`
	Object *objectNode    `parser:"  @@"`
	Array  *arrayNode     `parser:"| @@"`
	String *quoted        `parser:"| @String"`
	Number *string        `parser:"| @Number"`
	Bool   *boolean       `parser:"| @('true' | 'false')"`
	Null   bool           `parser:"| @'null'"`
}

// objectNode captures `{ key: value, ... }` with an optional trailing comma.
type objectNode struct {
	Members []*member `parser:"'{' ( @@ ( ',' @@ )* ','? )? '}'"`
}

type member struct {
	Key   *key  `parser:"@@ ':'"`
	Value *node `parser:"@@"`
}

// key is a quoted string or a bare identifier.
type key struct {
	Quoted *quoted `parser:"  @String"`
	Bare   *string `parser:"| @Ident"`
}

func (k *key) String() string {
	if k.Quoted != nil {
		return string(*k.Quoted)
	}
	if k.Bare != nil {
		return *k.Bare
	}
	return ""
}

// arrayNode captures `[ value, ... ]` with an optional trailing comma.
type arrayNode struct {
	Items []*node `parser:"'[' ( @@ ( ',' @@ )* ','? )? ']'"`
}

// quoted unescapes single- or double-quoted JSON5 strings on capture.
type quoted string

// Capture implements participle.Capture.
func (q *quoted) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	s, err := unquote(values[0])
	if err != nil {
		return err
	}
	*q = quoted(s)
	return nil
}

// boolean captures the true and false keywords.
type boolean bool

// Capture implements participle.Capture.
func (b *boolean) Capture(values []string) error {
	*b = len(values) > 0 && values[0] == "true"
	return nil
}

func parseDocument(src string) (*document, error) {
	return documentParser.ParseString("", src)
}

// value converts the AST into plain Go values: map[string]any, []any,
// string, float64, bool and nil. Later members override earlier ones with
// the same key.
func (n *node) value() (any, error) {
	switch {
	case n == nil:
		return nil, nil
	case n.Object != nil:
		out := make(map[string]any, len(n.Object.Members))
		for _, m := range n.Object.Members {
			v, err := m.Value.value()
			if err != nil {
				return nil, err
			}
			out[m.Key.String()] = v
		}
		return out, nil
	case n.Array != nil:
		out := make([]any, 0, len(n.Array.Items))
		for _, item := range n.Array.Items {
			v, err := item.value()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case n.String != nil:
		return string(*n.String), nil
	case n.Number != nil:
		f, err := parseNumber(*n.Number)
		if err != nil {
			return nil, &ParseError{Line: n.Pos.Line, Column: n.Pos.Column, Msg: err.Error()}
		}
		return f, nil
	case n.Bool != nil:
		return bool(*n.Bool), nil
	default:
		return nil, nil
	}
}

// parseNumber handles the JSON5 number forms, including hexadecimal
// integers and the Infinity and NaN keywords.
func parseNumber(s string) (float64, error) {
	body := strings.TrimLeft(s, "+-")
	neg := strings.HasPrefix(s, "-")
	switch {
	case body == "Infinity":
		if neg {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	case body == "NaN":
		return math.NaN(), nil
	case strings.HasPrefix(body, "0x"), strings.HasPrefix(body, "0X"):
		v, err := strconv.ParseUint(body[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", s)
		}
		if neg {
			return -float64(v), nil
		}
		return float64(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// unquote decodes a single- or double-quoted JSON5 string literal. Both
// quote characters may be escaped in either kind of string, and a
// backslash before a line break continues the string.
func unquote(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != raw[len(raw)-1] || (raw[0] != '"' && raw[0] != '\'') {
		return "", fmt.Errorf("invalid string literal %s", raw)
	}
	q := raw[0]
	s := raw[1 : len(raw)-1]

	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		if strings.HasPrefix(s, `\'`) || strings.HasPrefix(s, `\"`) {
			b.WriteByte(s[1])
			s = s[2:]
			continue
		}
		if strings.HasPrefix(s, "\\\r\n") {
			s = s[3:]
			continue
		}
		if strings.HasPrefix(s, "\\\n") || strings.HasPrefix(s, "\\\r") {
			s = s[2:]
			continue
		}
		if strings.HasPrefix(s, `\0`) && (len(s) == 2 || s[2] < '0' || s[2] > '9') {
			b.WriteByte(0)
			s = s[2:]
			continue
		}
		if s[0] != '\\' && s[0] != q {
			// Fast path: copy up to the next escape.
			i := strings.IndexByte(s, '\\')
			if i < 0 {
				i = len(s)
			}
			b.WriteString(s[:i])
			s = s[i:]
			continue
		}
		r, multibyte, tail, err := strconv.UnquoteChar(s, q)
		if err != nil {
			return "", fmt.Errorf("invalid string literal %s: %w", raw, err)
		}
		if multibyte || r >= 0x80 {
			b.WriteRune(r)
		} else {
			b.WriteByte(byte(r))
		}
		s = tail
	}
	return b.String(), nil
}
