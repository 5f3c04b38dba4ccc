// ABOUTME: Pandoc JSON filter: reads a pandoc AST, hands every CodeBlock to a Processor and writes the AST back.
// ABOUTME: Walks the whole tree (metadata and nested blocks) and splices multi-node replacements into block lists.
package pandoc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/2389-research/imagine/imagine"
)

// Processor turns a code block into its replacement. *imagine.Engine
// satisfies it.
type Processor interface {
	Process(ctx context.Context, b imagine.CodeBlock, format string) (imagine.Replacement, error)
}

// Filter decodes a pandoc JSON document from r, processes every code block
// for the target format and encodes the result to w. Numbers are passed
// through untouched.
func Filter(ctx context.Context, p Processor, r io.Reader, w io.Writer, format string) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode pandoc json: %w", err)
	}

	out, err := Walk(doc, func(b imagine.CodeBlock) (imagine.Replacement, error) {
		return p.Process(ctx, b, format)
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode pandoc json: %w", err)
	}
	return nil
}

// BlockFunc is called once per code block found by Walk.
type BlockFunc func(b imagine.CodeBlock) (imagine.Replacement, error)

// Walk visits every CodeBlock element in a decoded pandoc tree, in document
// order. Non-empty replacements are spliced in place of the block and are
// not walked again. The tree is rebuilt, never modified in place.
func Walk(tree any, fn BlockFunc) (any, error) {
	switch v := tree.(type) {
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if isCodeBlock(item) {
				nodes, err := processElement(item.(map[string]any), fn)
				if err != nil {
					return nil, err
				}
				out = append(out, nodes...)
				continue
			}
			walked, err := Walk(item, fn)
			if err != nil {
				return nil, err
			}
			out = append(out, walked)
		}
		return out, nil

	case map[string]any:
		out := make(map[string]any, len(v))
		for _, key := range walkOrder(v) {
			walked, err := Walk(v[key], fn)
			if err != nil {
				return nil, err
			}
			out[key] = walked
		}
		return out, nil

	default:
		return tree, nil
	}
}

// walkOrder returns the keys of m in the order pandoc writes them: meta
// before blocks, everything else by name. Metadata maps are emitted sorted.
func walkOrder(m map[string]any) []string {
	rank := func(k string) int {
		switch k {
		case "meta":
			return 0
		case "blocks":
			return 1
		default:
			return 2
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func isCodeBlock(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	t, _ := m["t"].(string)
	return t == "CodeBlock"
}

// processElement returns the elements that take the place of a CodeBlock.
func processElement(elem map[string]any, fn BlockFunc) ([]any, error) {
	b, err := DecodeCodeBlock(elem)
	if err != nil {
		return nil, err
	}
	r, err := fn(b)
	if err != nil {
		return nil, err
	}
	if r.Unchanged() {
		return []any{elem}, nil
	}
	return EncodeReplacement(r), nil
}
