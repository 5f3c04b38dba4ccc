// ABOUTME: Parses fenced code block info strings ("dot {#id .wide caption=\"x\"}") into engine code blocks.
// ABOUTME: The braced part is decoded with goldmark's attribute parser; the first bare word becomes a class.
package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2389-research/imagine/imagine"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ParseInfo decodes an info string into the attribute part of a CodeBlock.
// Accepted shapes: "dot", "{.dot options=\"-Gsize=4\"}" and
// "dot {#g1 keep=true}". Anything after the first word that is not a braced
// attribute list is ignored.
func ParseInfo(info string) (imagine.CodeBlock, error) {
	var b imagine.CodeBlock
	info = strings.TrimSpace(info)
	if info == "" {
		return b, nil
	}

	if !strings.HasPrefix(info, "{") {
		word, rest := info, ""
		if i := strings.IndexAny(info, " \t{"); i >= 0 {
			word, rest = info[:i], strings.TrimSpace(info[i:])
		}
		b.Classes = append(b.Classes, word)
		if !strings.HasPrefix(rest, "{") {
			return b, nil
		}
		info = rest
	}

	attrs, ok := parser.ParseAttributes(text.NewReader([]byte(quoteBareValues(info))))
	if !ok {
		return imagine.CodeBlock{}, fmt.Errorf("%w: cannot parse %q", imagine.ErrMalformedAttributes, info)
	}

	for _, attr := range attrs {
		name := string(attr.Name)
		value, err := attrValue(attr.Value)
		if err != nil {
			return imagine.CodeBlock{}, fmt.Errorf("%w: %s: %v", imagine.ErrMalformedAttributes, name, err)
		}
		switch name {
		case "id":
			b.ID = value
		case "class":
			b.Classes = append(b.Classes, strings.Fields(value)...)
		default:
			b.KeyVals = append(b.KeyVals, imagine.KeyVal{Key: name, Value: value})
		}
	}
	return b, nil
}

// quoteBareValues rewrites pandoc-style values into the double-quoted form
// goldmark reads. goldmark takes values as JSON-like literals, while pandoc
// takes everything up to the next space or closing brace (width=50%,
// options=-Gsize=4) and also accepts single quotes.
func quoteBareValues(info string) string {
	var sb strings.Builder
	inString := false
	for i := 0; i < len(info); i++ {
		c := info[i]
		if inString {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(info) {
				i++
				sb.WriteByte(info[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			sb.WriteByte(c)
		case c == '=' && i+1 < len(info) && info[i+1] == '\'':
			closing := strings.IndexByte(info[i+2:], '\'')
			if closing < 0 {
				sb.WriteString(info[i:])
				return sb.String()
			}
			sb.WriteString("=" + jsonString(info[i+2:i+2+closing]))
			i += 2 + closing
		case c == '=' && i+1 < len(info) && info[i+1] != '"':
			end := i + 1
			for end < len(info) && !strings.ContainsRune(" \t\n}", rune(info[end])) {
				end++
			}
			sb.WriteString("=" + jsonString(info[i+1:end]))
			i = end - 1
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func jsonString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// attrValue flattens a goldmark attribute value to the string pandoc would
// have produced.
func attrValue(v any) (string, error) {
	switch val := v.(type) {
	case []byte:
		return string(val), nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
