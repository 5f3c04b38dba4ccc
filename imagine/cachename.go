// ABOUTME: Content-addressable cache naming: sha256 of a block's full identity under <basedir>-images.
// ABOUTME: Also defines CachePaths, the input/output file pair that shares one hashed basename.
package imagine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultBaseDir is the default cache directory prefix; files land in
// "<basedir>-images".
const DefaultBaseDir = "pd"

// InputExt is the extension of the cache input file holding the block's content.
const InputExt = "txt"

// DefaultOutputExt is the output extension before a handler selects a format.
const DefaultOutputExt = "png"

// ImageDir returns the directory holding generated files for basedir.
func ImageDir(basedir string) string {
	return basedir + "-images"
}

// BlockIdentity serializes everything that identifies a block: id, classes,
// every attribute (including cosmetic ones such as caption) and content.
// Each component is length-prefixed so that no two distinct blocks share a
// serialization.
func BlockIdentity(b CodeBlock) string {
	var sb strings.Builder
	writeField := func(tag, s string) {
		fmt.Fprintf(&sb, "%s%d:%s;", tag, len(s), s)
	}

	writeField("id", b.ID)
	fmt.Fprintf(&sb, "classes%d;", len(b.Classes))
	for _, c := range b.Classes {
		writeField("c", c)
	}
	fmt.Fprintf(&sb, "keyvals%d;", len(b.KeyVals))
	for _, kv := range b.KeyVals {
		writeField("k", kv.Key)
		writeField("v", kv.Value)
	}
	writeField("content", b.Content)
	return sb.String()
}

// CacheName derives the basename (no extension) for identity under basedir.
// Equal inputs always give equal names.
func CacheName(basedir, identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return filepath.Join(ImageDir(basedir), hex.EncodeToString(sum[:]))
}

// CachePaths is the input/output file pair for one block.
type CachePaths struct {
	Base   string
	Input  string
	Output string
	Ext    string
}

// NewCachePaths returns the paths for base with the default output extension.
func NewCachePaths(base string) CachePaths {
	p := CachePaths{
		Base:  base,
		Input: base + "." + InputExt,
	}
	p.SetExtension(DefaultOutputExt)
	return p
}

// SetExtension changes the output file extension.
func (p *CachePaths) SetExtension(ext string) {
	p.Ext = ext
	p.Output = p.Base + "." + ext
}
