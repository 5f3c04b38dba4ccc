// ABOUTME: Sentinel errors for the engine's error taxonomy.
// ABOUTME: Only configuration and decode errors ever leave the engine; everything else degrades to "unchanged".
package imagine

import "errors"

var (
	// ErrNoProgram means a codec resolved to a handler without a usable
	// external program. Registries reject this at build time.
	ErrNoProgram = errors.New("no program for codec")

	// ErrDuplicateCodec is returned when two descriptors claim the same codec.
	ErrDuplicateCodec = errors.New("codec already registered")

	// ErrUnknownCodec is returned when a program override names a codec no
	// handler answers to.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrMalformedAttributes means the block's attribute list is structurally
	// broken. It is fatal for the whole run.
	ErrMalformedAttributes = errors.New("malformed attribute list")

	// ErrUnsupportedEncoding is returned for text encodings that cannot be
	// resolved by name.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")
)
