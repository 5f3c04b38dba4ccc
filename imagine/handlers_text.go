// ABOUTME: Text-art handlers (figlet, boxes, protocol) whose programs print to stdout.
// ABOUTME: Captured output replaces the block's body in a code node that keeps the original attributes.
package imagine

import "context"

var figletDescriptor = Descriptor{
	Name:   "Figlet",
	Codecs: map[string]string{"figlet": "figlet"},
	New:    func(b *Block) Handler { return &figletHandler{b} },
}

// figletHandler turns the block text into ascii art: figlet <options> <text>.
type figletHandler struct{ *Block }

func (h *figletHandler) Produce(ctx context.Context, _ string) Replacement {
	args := append(h.OptionArgs(), h.Text)
	return h.textResult(h.Run(ctx, args...))
}

var boxesDescriptor = Descriptor{
	Name:   "Boxes",
	Codecs: map[string]string{"boxes": "boxes"},
	New:    func(b *Block) Handler { return &boxesHandler{b} },
}

// boxesHandler draws a box around the block: boxes <options> <inputfile>.
type boxesHandler struct{ *Block }

func (h *boxesHandler) Produce(ctx context.Context, _ string) Replacement {
	args := append(h.OptionArgs(), h.Paths.Input)
	return h.textResult(h.Run(ctx, args...))
}

var protocolDescriptor = Descriptor{
	Name:   "Protocol",
	Codecs: map[string]string{"protocol": "protocol"},
	New:    func(b *Block) Handler { return &protocolHandler{b} },
}

// protocolHandler draws protocol headers: protocol <options> <spec>.
type protocolHandler struct{ *Block }

func (h *protocolHandler) Produce(ctx context.Context, _ string) Replacement {
	args := append(h.OptionArgs(), h.Text)
	return h.textResult(h.Run(ctx, args...))
}

// textResult builds the code node from a text tool's captured output.
func (b *Block) textResult(res RunResult) Replacement {
	if !res.Succeeded {
		return nil
	}
	return b.Assemble(b.CodeNode(string(res.Output)))
}
