// ABOUTME: Explicit text encoding for cache input files and content arguments.
// ABOUTME: Resolves IANA encoding names via golang.org/x/text so files are portable across hosts.
package imagine

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultEncoding is the text encoding used when none is configured.
const DefaultEncoding = "utf-8"

// TextEncoder converts block content into the bytes written to disk.
type TextEncoder func(s string) ([]byte, error)

// NewTextEncoder returns the encoder for the IANA encoding name. An empty
// name selects DefaultEncoding.
func NewTextEncoder(name string) (TextEncoder, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return func(s string) ([]byte, error) { return []byte(s), nil }, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedEncoding, name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %q has no implementation", ErrUnsupportedEncoding, name)
	}

	return func(s string) ([]byte, error) {
		return encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(s))
	}, nil
}
