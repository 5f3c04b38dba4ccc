// ABOUTME: Artifact assembly: turns a handler's successful run into image or code replacement nodes.
// ABOUTME: Honors keep by prepending a literal reconstruction of the original block.
package imagine

// NodeKind distinguishes the replacement node shapes.
type NodeKind int

const (
	// NodeCode is a literal code block carrying Text.
	NodeCode NodeKind = iota
	// NodeImage is a paragraph holding a single image reference to Src.
	NodeImage
)

// String returns "code" or "image".
func (k NodeKind) String() string {
	if k == NodeImage {
		return "image"
	}
	return "code"
}

// Node is a document-model independent replacement node. Front-ends
// translate it into their own tree.
type Node struct {
	Kind    NodeKind
	ID      string
	Classes []string
	KeyVals []KeyVal

	// Text is the body of a code node.
	Text string

	// Src, Caption and Title describe an image node.
	Src     string
	Caption string
	Title   string
}

// Replacement is what a handler produces for one block. A nil or empty
// Replacement means the block stays exactly as authored.
type Replacement []Node

// Unchanged reports whether r is the no-change sentinel.
func (r Replacement) Unchanged() bool {
	return len(r) == 0
}

// ImageNode returns an image reference to the block's output file, carrying
// the pruned attributes and the caption.
func (b *Block) ImageNode() Node {
	return Node{
		Kind:    NodeImage,
		ID:      b.Code.ID,
		Classes: b.Code.Classes,
		KeyVals: b.KeyVals,
		Src:     b.Paths.Output,
		Caption: b.Caption,
		Title:   b.TitleType,
	}
}

// CodeNode returns a code node with the original attributes and text as body.
func (b *Block) CodeNode(text string) Node {
	return Node{
		Kind:    NodeCode,
		ID:      b.Code.ID,
		Classes: b.Code.Classes,
		KeyVals: b.Code.KeyVals,
		Text:    text,
	}
}

// Original reconstructs the authored block as a literal fenced block inside
// an attribute-less code node, so it renders verbatim instead of being
// processed again.
func (b *Block) Original() Node {
	return Node{
		Kind: NodeCode,
		Text: "```" + b.Code.AttrString() + "\n" + b.Code.Content + "\n```",
	}
}

// Assemble wraps artifact into a Replacement, preceded by the original block
// when keep was requested.
func (b *Block) Assemble(artifact Node) Replacement {
	if b.Keep {
		return Replacement{b.Original(), artifact}
	}
	return Replacement{artifact}
}
