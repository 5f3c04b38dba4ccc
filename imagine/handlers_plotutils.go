// ABOUTME: GNU plotutils handlers (plot, graph, pic2plot) that emit the image on stdout.
// ABOUTME: Captured bytes are written to the output file; plot treats the block text as a metafile path.
package imagine

import "context"

// plotutilsFormats are the output extensions plotutils uses per document format.
var plotutilsFormats = map[string]string{
	"html":  "svg",
	"html5": "svg",
}

var plotDescriptor = Descriptor{
	Name:   "PlotUtilPlot",
	Codecs: map[string]string{"plot": "plot"},
	New:    func(b *Block) Handler { return &plotHandler{b} },
}

// plotHandler converts an existing GNU metafile named by the block:
// plot -T <ext> <options> <metafile>.
type plotHandler struct{ *Block }

func (h *plotHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, plotutilsFormats)
	if !fileExists(h.Text) {
		h.log.Errorf("fail: cannot read file %q", h.Text)
		return nil
	}
	args := append([]string{"-T", h.Paths.Ext}, h.OptionArgs()...)
	args = append(args, h.Text)
	return h.stdoutImage(h.Run(ctx, args...))
}

var graphDescriptor = Descriptor{
	Name:   "PlotUtilsGraph",
	Codecs: map[string]string{"graph": "graph", "gnugraph": "graph"},
	New:    func(b *Block) Handler { return &graphHandler{b} },
}

// graphHandler plots the block's data: graph -T <ext> <options> <inputfile>.
type graphHandler struct{ *Block }

func (h *graphHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, plotutilsFormats)
	args := append([]string{"-T", h.Paths.Ext}, h.OptionArgs()...)
	args = append(args, h.Paths.Input)
	return h.stdoutImage(h.Run(ctx, args...))
}

var pic2plotDescriptor = Descriptor{
	Name:   "Pic2Plot",
	Codecs: map[string]string{"pic2plot": "pic2plot", "pic": "pic2plot"},
	New:    func(b *Block) Handler { return &pic2plotHandler{b} },
}

// pic2plotHandler renders pic source: pic2plot -T <ext> <options> <inputfile>.
type pic2plotHandler struct{ *Block }

func (h *pic2plotHandler) Produce(ctx context.Context, format string) Replacement {
	h.SelectFormat(format, DefaultOutputExt, plotutilsFormats)
	args := append([]string{"-T", h.Paths.Ext}, h.OptionArgs()...)
	args = append(args, h.Paths.Input)
	return h.stdoutImage(h.Run(ctx, args...))
}

// stdoutImage writes a successful run's captured output to the output file
// and returns the image node. On a cache hit nothing is captured and the
// existing file is linked as is.
func (b *Block) stdoutImage(res RunResult) Replacement {
	if !res.Succeeded {
		return nil
	}
	b.write(b.Paths.Output, res.Output)
	return b.Assemble(b.ImageNode())
}
