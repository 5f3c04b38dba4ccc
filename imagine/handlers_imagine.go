// ABOUTME: Handlers that never run a program: the unmatched-block default and the self-describing "imagine" help block.
// ABOUTME: The help block replaces its content with usage text listing every registered codec.
package imagine

import (
	"context"
	"strings"
)

const defaultHandlerName = "Handler"

// unchangedHandler is returned for blocks no handler answers to.
type unchangedHandler struct {
	log *Logger
}

func (h unchangedHandler) Produce(_ context.Context, _ string) Replacement {
	h.log.Verbosef("keeping CodeBlock as-is (default)")
	return nil
}

var imagineDescriptor = Descriptor{
	Name:   "Imagine",
	Codecs: map[string]string{"imagine": "imagine"},
	New:    func(b *Block) Handler { return &imagineHandler{b} },
}

// imagineHandler answers ```imagine blocks with the usage text.
type imagineHandler struct{ *Block }

func (h *imagineHandler) Produce(_ context.Context, _ string) Replacement {
	return Replacement{{
		Kind:    NodeCode,
		Classes: []string{"imagine"},
		Text:    HelpText(h.registry),
	}}
}

const helpTemplate = `Imagine
  Turns fenced code blocks into graphics or ascii art by running them
  through an external command line tool.

  Codecs:

  %CODECS%

Markdown usage

  ` + "```" + `cmd        ` + "```" + `{.cmd options="extras"}    ` + "```" + `{prog=cmd}
  source        source                         source
  ` + "```" + `           ` + "```" + `                            ` + "```" + `

  Attributes consumed by imagine:
  - options   extra arguments passed to the command
  - prog      command to use when the class is not a codec
  - keep      "true" keeps a literal copy of the original block
  - caption   caption for the generated image

Notes
  - blocks whose codec is unknown are left as they are.
  - input/output files are named after a hash of the whole block and
    live in the <basedir>-images directory.
  - existing output files are reused, never regenerated; clear the
    directory to force regeneration.
  - if a command fails the block is left as it is and the command
    output is reported on stderr.
  - some commands (figlet, boxes, protocol) print text which replaces
    the block; plot reads the block as the name of an existing file.

Security
  Blocks are handed to the commands unchecked. Only process documents
  you trust.
`

// HelpText returns the usage text with the registry's codecs filled in.
func HelpText(reg *Registry) string {
	var lines []string
	var line string
	for _, codec := range reg.Codecs() {
		next := codec
		if line != "" {
			next = line + ", " + codec
		}
		if len(next) > 68 && line != "" {
			lines = append(lines, line+",")
			next = codec
		}
		line = next
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Replace(helpTemplate, "%CODECS%", strings.Join(lines, "\n  "), 1)
}
