// ABOUTME: Handler interface, descriptors and the immutable codec-to-handler registry.
// ABOUTME: DefaultRegistry enumerates every built-in handler variant explicitly, in one ordered list.
package imagine

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Handler turns one code block into an artifact.
type Handler interface {
	// Produce renders the block for the target document format. A nil
	// Replacement leaves the block unchanged.
	Produce(ctx context.Context, format string) Replacement
}

// Constructor builds a handler around an initialized Block.
type Constructor func(b *Block) Handler

// Descriptor registers one handler variant.
type Descriptor struct {
	// Name identifies the variant in diagnostics, e.g. "Graphviz".
	Name string
	// Codecs maps each type identifier the variant answers to onto its
	// default external program.
	Codecs map[string]string
	// New builds the handler.
	New Constructor
}

// Registry maps codecs to descriptors. It is immutable once built and safe
// for concurrent reads.
type Registry struct {
	descriptors []Descriptor
	byCodec     map[string]int
}

// NewRegistry validates descs and builds a registry. Codecs are matched
// case-insensitively; every codec must name a program and may be claimed by
// only one descriptor.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descs)),
		byCodec:     make(map[string]int),
	}

	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("descriptor name is required")
		}
		if d.New == nil {
			return nil, fmt.Errorf("descriptor %s has no constructor", d.Name)
		}
		if len(d.Codecs) == 0 {
			return nil, fmt.Errorf("descriptor %s declares no codecs", d.Name)
		}

		codecs := make(map[string]string, len(d.Codecs))
		for codec, program := range d.Codecs {
			key := strings.ToLower(codec)
			if key == "" {
				return nil, fmt.Errorf("descriptor %s declares an empty codec", d.Name)
			}
			if program == "" {
				return nil, fmt.Errorf("%w: %s declares %q without a program", ErrNoProgram, d.Name, codec)
			}
			if _, exists := r.byCodec[key]; exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateCodec, key)
			}
			codecs[key] = program
			r.byCodec[key] = len(r.descriptors)
		}

		d.Codecs = codecs
		r.descriptors = append(r.descriptors, d)
	}

	return r, nil
}

// DefaultRegistry returns a registry holding every built-in handler. It
// panics if the built-in table is inconsistent, which is a programming error.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(BuiltinDescriptors()...)
	if err != nil {
		panic(fmt.Sprintf("imagine: invalid built-in registry: %v", err))
	}
	return reg
}

// BuiltinDescriptors lists the built-in handler variants in registration order.
func BuiltinDescriptors() []Descriptor {
	return []Descriptor{
		imagineDescriptor,
		figletDescriptor,
		boxesDescriptor,
		protocolDescriptor,
		plotDescriptor,
		graphDescriptor,
		pic2plotDescriptor,
		plantumlDescriptor,
		mermaidDescriptor,
		ditaaDescriptor,
		mscgenDescriptor,
		blockdiagDescriptor,
		graphvizDescriptor,
	}
}

// Lookup returns the descriptor registered for codec, ignoring case.
func (r *Registry) Lookup(codec string) (Descriptor, bool) {
	idx, ok := r.byCodec[strings.ToLower(codec)]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[idx], true
}

// Codecs returns every registered codec, sorted.
func (r *Registry) Codecs() []string {
	out := make([]string, 0, len(r.byCodec))
	for codec := range r.byCodec {
		out = append(out, codec)
	}
	sort.Strings(out)
	return out
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Program returns the default program for codec.
func (r *Registry) Program(codec string) (string, bool) {
	d, ok := r.Lookup(codec)
	if !ok {
		return "", false
	}
	return d.Codecs[strings.ToLower(codec)], true
}

// WithPrograms returns a new registry in which the default program of each
// codec in overrides is replaced. Unknown codecs are an error.
func (r *Registry) WithPrograms(overrides map[string]string) (*Registry, error) {
	descs := r.Descriptors()
	for i := range descs {
		codecs := make(map[string]string, len(descs[i].Codecs))
		for codec, program := range descs[i].Codecs {
			codecs[codec] = program
		}
		descs[i].Codecs = codecs
	}

	for codec, program := range overrides {
		idx, ok := r.byCodec[strings.ToLower(codec)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
		}
		descs[idx].Codecs[strings.ToLower(codec)] = program
	}

	return NewRegistry(descs...)
}
