// ABOUTME: Conversion between pandoc JSON elements and the engine's CodeBlock and Node types.
// ABOUTME: CodeBlock is [[id, classes, keyvals], text]; images are emitted as a Para holding one Image inline.
package pandoc

import (
	"fmt"
	"strings"

	"github.com/2389-research/imagine/imagine"
)

// DecodeCodeBlock converts a {"t":"CodeBlock","c":[attr, text]} element.
// Structural problems are reported as imagine.ErrMalformedAttributes.
func DecodeCodeBlock(elem map[string]any) (imagine.CodeBlock, error) {
	c, ok := elem["c"].([]any)
	if !ok || len(c) != 2 {
		return imagine.CodeBlock{}, malformed("CodeBlock content is not [attr, text]")
	}
	text, ok := c[1].(string)
	if !ok {
		return imagine.CodeBlock{}, malformed("CodeBlock text is not a string")
	}

	attr, ok := c[0].([]any)
	if !ok || len(attr) != 3 {
		return imagine.CodeBlock{}, malformed("attr is not [id, classes, keyvals]")
	}

	b := imagine.CodeBlock{Content: text}
	if b.ID, ok = attr[0].(string); !ok {
		return imagine.CodeBlock{}, malformed("id is not a string")
	}

	classes, ok := attr[1].([]any)
	if !ok {
		return imagine.CodeBlock{}, malformed("classes is not a list")
	}
	for i, c := range classes {
		s, ok := c.(string)
		if !ok {
			return imagine.CodeBlock{}, malformed(fmt.Sprintf("class %d is not a string", i))
		}
		b.Classes = append(b.Classes, s)
	}

	kvs, ok := attr[2].([]any)
	if !ok {
		return imagine.CodeBlock{}, malformed("keyvals is not a list")
	}
	for i, item := range kvs {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return imagine.CodeBlock{}, malformed(fmt.Sprintf("keyval %d is not a pair", i))
		}
		k, kok := pair[0].(string)
		v, vok := pair[1].(string)
		if !kok || !vok {
			return imagine.CodeBlock{}, malformed(fmt.Sprintf("keyval %d is not a string pair", i))
		}
		b.KeyVals = append(b.KeyVals, imagine.KeyVal{Key: k, Value: v})
	}

	return b, nil
}

func malformed(msg string) error {
	return fmt.Errorf("%w: %s", imagine.ErrMalformedAttributes, msg)
}

// EncodeReplacement converts every node of r into a pandoc block element.
func EncodeReplacement(r imagine.Replacement) []any {
	out := make([]any, 0, len(r))
	for _, n := range r {
		out = append(out, EncodeNode(n))
	}
	return out
}

// EncodeNode converts n into a pandoc block element.
func EncodeNode(n imagine.Node) map[string]any {
	attr := encodeAttr(n.ID, n.Classes, n.KeyVals)
	if n.Kind == imagine.NodeCode {
		return map[string]any{"t": "CodeBlock", "c": []any{attr, n.Text}}
	}

	image := map[string]any{
		"t": "Image",
		"c": []any{attr, captionInlines(n.Caption), []any{n.Src, n.Title}},
	}
	return map[string]any{"t": "Para", "c": []any{image}}
}

func encodeAttr(id string, classes []string, kvs []imagine.KeyVal) []any {
	cls := make([]any, 0, len(classes))
	for _, c := range classes {
		cls = append(cls, c)
	}
	pairs := make([]any, 0, len(kvs))
	for _, kv := range kvs {
		pairs = append(pairs, []any{kv.Key, kv.Value})
	}
	return []any{id, cls, pairs}
}

// captionInlines splits a caption into Str and Space inlines.
func captionInlines(caption string) []any {
	words := strings.Fields(caption)
	out := make([]any, 0, 2*len(words))
	for i, w := range words {
		if i > 0 {
			out = append(out, map[string]any{"t": "Space"})
		}
		out = append(out, map[string]any{"t": "Str", "c": w})
	}
	return out
}
