// ABOUTME: Attribute decoder that pops the engine's reserved keys off a code block's attributes.
// ABOUTME: Extracts caption, options, prog and keep (in that order), leaving the rest for the output node.
package imagine

import (
	"fmt"
	"strings"
)

// Reserved attribute keys consumed by the engine.
const (
	KeyCaption = "caption"
	KeyOptions = "options"
	KeyProg    = "prog"
	KeyKeep    = "keep"
)

// figureTitle marks an image as a figure, the way pandoc does for captioned images.
const figureTitle = "fig:"

// Directives is the engine-relevant view of a code block's attributes.
type Directives struct {
	// Options holds extra command-line arguments, split on whitespace when used.
	Options string
	// Prog overrides the codec's default program when non-empty.
	Prog string
	// Keep asks for a literal copy of the original block ahead of the artifact.
	Keep bool
	// Caption and HasCaption come from the caption attribute.
	Caption    string
	HasCaption bool
	// TitleType is "fig:" for captioned blocks and "" otherwise.
	TitleType string
	// KeyVals are the attributes left after the reserved keys were removed.
	KeyVals []KeyVal
}

// Decode extracts the reserved keys from kv. The last occurrence of a key
// wins and every occurrence is removed from the returned KeyVals. Decode is
// pure: kv is never modified.
func Decode(kv []KeyVal) (Directives, error) {
	for i, p := range kv {
		if p.Key == "" {
			return Directives{}, fmt.Errorf("%w: attribute %d has an empty key", ErrMalformedAttributes, i)
		}
	}

	var d Directives
	rest := kv

	caption, hasCaption, rest := popValue(rest, KeyCaption)
	if hasCaption {
		d.Caption = caption
		d.HasCaption = true
		d.TitleType = figureTitle
	}

	d.Options, _, rest = popValue(rest, KeyOptions)
	d.Prog, _, rest = popValue(rest, KeyProg)

	var keep string
	keep, _, rest = popValue(rest, KeyKeep)
	d.Keep = strings.EqualFold(keep, "true")

	d.KeyVals = rest
	return d, nil
}

// popValue returns the last value for key and a copy of kv without any
// occurrence of key.
func popValue(kv []KeyVal, key string) (string, bool, []KeyVal) {
	value, found := "", false
	rest := make([]KeyVal, 0, len(kv))
	for _, p := range kv {
		if p.Key == key {
			value, found = p.Value, true
			continue
		}
		rest = append(rest, p)
	}
	return value, found, rest
}
