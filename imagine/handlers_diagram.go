// ABOUTME: Diagram handlers (graphviz family, blockdiag family, plantuml, mermaid, ditaa, mscgen) that write image files.
// ABOUTME: Each builds the exact argument shape its tool expects and links the written file as an image.
package imagine

import (
	"context"
	"os"
)

// vectorFormats selects svg for HTML and pdf for LaTeX output.
var vectorFormats = map[string]string{
	"html":     "svg",
	"html5":    "svg",
	"revealjs": "svg",
	"latex":    "pdf",
	"beamer":   "pdf",
}

// epsFormats selects svg for HTML and eps for LaTeX output, for tools
// without pdf output.
var epsFormats = map[string]string{
	"html":     "svg",
	"html5":    "svg",
	"revealjs": "svg",
	"latex":    "eps",
	"beamer":   "eps",
}

var graphvizDescriptor = Descriptor{
	Name: "Graphviz",
	Codecs: map[string]string{
		"dot":      "dot",
		"neato":    "neato",
		"twopi":    "twopi",
		"circo":    "circo",
		"fdp":      "fdp",
		"sfdp":     "sfdp",
		"graphviz": "dot",
	},
	New: func(b *Block) Handler { return &graphvizHandler{b} },
}

// graphvizHandler: dot <options> -T<ext> <inputfile> -o <outputfile>.
type graphvizHandler struct{ *Block }

func (h *graphvizHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, vectorFormats)
	args := append(h.OptionArgs(), "-T"+h.Paths.Ext, h.Paths.Input, "-o", h.Paths.Output)
	return h.fileImage(h.Run(ctx, args...))
}

var blockdiagDescriptor = Descriptor{
	Name: "BlockDiag",
	Codecs: map[string]string{
		"blockdiag":  "blockdiag",
		"seqdiag":    "seqdiag",
		"rackdiag":   "rackdiag",
		"nwdiag":     "nwdiag",
		"packetdiag": "packetdiag",
		"actdiag":    "actdiag",
	},
	New: func(b *Block) Handler { return &blockdiagHandler{b} },
}

// blockdiagHandler: blockdiag -T <ext> <inputfile> -o <outputfile>.
type blockdiagHandler struct{ *Block }

func (h *blockdiagHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, vectorFormats)
	return h.fileImage(h.Run(ctx, "-T", h.Paths.Ext, h.Paths.Input, "-o", h.Paths.Output))
}

var plantumlDescriptor = Descriptor{
	Name:   "PlantUml",
	Codecs: map[string]string{"plantuml": "plantuml"},
	New:    func(b *Block) Handler { return &plantumlHandler{b} },
}

// plantumlHandler: plantuml -t<ext> <inputfile>. PlantUML swaps the input
// extension for the output one, which lands on the cached output path.
type plantumlHandler struct{ *Block }

func (h *plantumlHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, epsFormats)
	return h.fileImage(h.Run(ctx, "-t"+h.Paths.Ext, h.Paths.Input))
}

var mermaidDescriptor = Descriptor{
	Name:   "Mermaid",
	Codecs: map[string]string{"mermaid": "mermaid"},
	New:    func(b *Block) Handler { return &mermaidHandler{b} },
}

// mermaidHandler: mermaid -o <imagedir> <options> <inputfile>. Mermaid names
// its output <inputfile>.<ext>, which is renamed to the cached output path.
type mermaidHandler struct{ *Block }

func (h *mermaidHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, nil)
	args := append([]string{"-o", h.ImageDir()}, h.OptionArgs()...)
	args = append(args, h.Paths.Input)
	res := h.Run(ctx, args...)
	if !res.Succeeded {
		return nil
	}
	// latex chokes on file.txt.png
	produced := h.Paths.Input + "." + h.Paths.Ext
	if err := os.Rename(produced, h.Paths.Output); err != nil {
		h.log.Debugf("rename %s: %v", produced, err)
	}
	return h.Assemble(h.ImageNode())
}

var ditaaDescriptor = Descriptor{
	Name:   "Ditaa",
	Codecs: map[string]string{"ditaa": "ditaa"},
	New:    func(b *Block) Handler { return &ditaaHandler{b} },
}

// ditaaHandler: ditaa <inputfile> <outputfile> -T <options>.
type ditaaHandler struct{ *Block }

func (h *ditaaHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, nil)
	args := append([]string{h.Paths.Input, h.Paths.Output, "-T"}, h.OptionArgs()...)
	return h.fileImage(h.Run(ctx, args...))
}

var mscgenDescriptor = Descriptor{
	Name:   "MscGen",
	Codecs: map[string]string{"mscgen": "mscgen"},
	New:    func(b *Block) Handler { return &mscgenHandler{b} },
}

// mscgenHandler: mscgen -T <ext> -o <outputfile> <inputfile>.
type mscgenHandler struct{ *Block }

func (h *mscgenHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, epsFormats)
	return h.fileImage(h.Run(ctx, "-T", h.Paths.Ext, "-o", h.Paths.Output, h.Paths.Input))
}

// fileImage links the file the tool wrote itself.
func (b *Block) fileImage(res RunResult) Replacement {
	if !res.Succeeded {
		return nil
	}
	return b.Assemble(b.ImageNode())
}
