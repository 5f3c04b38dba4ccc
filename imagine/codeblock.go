// ABOUTME: Input model for the engine: a fenced code block with its id, class tags, attributes and body.
// ABOUTME: Document front-ends build CodeBlocks; the engine never mutates them.
package imagine

import (
	"fmt"
	"strings"
)

// KeyVal is a single key="value" attribute on a code block.
type KeyVal struct {
	Key   string
	Value string
}

// CodeBlock is one fenced code block as handed over by a document front-end.
// KeyVals keeps the authored order; repeated keys are allowed and are
// collapsed last-wins by Decode.
type CodeBlock struct {
	ID      string
	Classes []string
	KeyVals []KeyVal
	Content string
}

// peekValue returns the value of the last occurrence of key without
// modifying kv.
func peekValue(kv []KeyVal, key string) (string, bool) {
	value, found := "", false
	for _, p := range kv {
		if p.Key == key {
			value, found = p.Value, true
		}
	}
	return value, found
}

// AttrString renders the block attributes in pandoc's braced attribute
// syntax, e.g. {#fig1 .dot .wide keep="true"}. It returns "" when the block
// has no id, classes or key-values.
func (b CodeBlock) AttrString() string {
	parts := make([]string, 0, 1+len(b.Classes)+len(b.KeyVals))
	if b.ID != "" {
		parts = append(parts, "#"+b.ID)
	}
	for _, c := range b.Classes {
		parts = append(parts, "."+c)
	}
	for _, kv := range b.KeyVals {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, kv.Key, kv.Value))
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, " ") + "}"
}
