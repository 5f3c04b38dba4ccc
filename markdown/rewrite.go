// ABOUTME: Markdown front-end: locates fenced code blocks with goldmark and splices replacements into the source.
// ABOUTME: Everything outside replaced blocks is copied byte for byte; container prefixes (quotes, lists) are preserved.
package markdown

import (
	"bytes"
	"context"
	"strings"

	"github.com/2389-research/imagine/imagine"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Processor turns a code block into its replacement. *imagine.Engine
// satisfies it.
type Processor interface {
	Process(ctx context.Context, b imagine.CodeBlock, format string) (imagine.Replacement, error)
}

// Options tune Rewrite.
type Options struct {
	// HTMLImages writes image nodes as raw HTML instead of Markdown images.
	HTMLImages bool
	// Log receives warnings about info strings that cannot be parsed.
	Log *imagine.Logger
}

// fence is the source range of one fenced code block.
type fence struct {
	start, end int    // byte range, including both fence lines
	prefix     string // text before the opening fence on its line
	info       string
	content    string
}

// Rewrite processes every fenced code block in src for the target format and
// returns the rewritten Markdown.
func Rewrite(ctx context.Context, p Processor, src []byte, format string, opts Options) ([]byte, error) {
	log := opts.Log
	if log == nil {
		log = imagine.DiscardLogger()
	}
	log = log.Named("Markdown")

	fences := findFences(src)
	var out bytes.Buffer
	last := 0

	for _, f := range fences {
		b, err := ParseInfo(f.info)
		if err != nil {
			log.Warnf("leaving block at byte %d unchanged: %v", f.start, err)
			continue
		}
		b.Content = f.content

		r, err := p.Process(ctx, b, format)
		if err != nil {
			return nil, err
		}
		if r.Unchanged() {
			continue
		}

		out.Write(src[last:f.start])
		out.WriteString(splice(r, f.prefix, opts.HTMLImages))
		if bytes.HasSuffix(src[f.start:f.end], []byte("\n")) {
			out.WriteByte('\n')
		}
		last = f.end
	}

	out.Write(src[last:])
	return out.Bytes(), nil
}

// findFences returns the fenced code blocks of src that carry an info string, in
// document order.
func findFences(src []byte) []fence {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var fences []fence
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if f, ok := locate(fcb, src); ok {
			fences = append(fences, f)
		}
		return ast.WalkSkipChildren, nil
	})
	return fences
}

func locate(n *ast.FencedCodeBlock, src []byte) (fence, bool) {
	if n.Info == nil {
		return fence{}, false
	}
	seg := n.Info.Segment
	lineStart := bytes.LastIndexByte(src[:seg.Start], '\n') + 1
	opening := src[lineStart:seg.Start]
	idx := bytes.IndexAny(opening, "`~")
	if idx < 0 {
		return fence{}, false
	}
	char := opening[idx]
	width := len(opening[idx:]) - len(bytes.TrimLeft(opening[idx:], string(char)))

	f := fence{
		start:  lineStart,
		end:    lineEnd(src, seg.Stop),
		prefix: string(opening[:idx]),
		info:   string(seg.Value(src)),
	}

	var content strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content.Write(line.Value(src))
		f.end = lineEnd(src, line.Start)
	}
	f.content = strings.TrimSuffix(content.String(), "\n")

	if f.end < len(src) {
		next := src[f.end:lineEnd(src, f.end)]
		if isClosingFence(next, char, width) {
			f.end = lineEnd(src, f.end)
		}
	}
	return f, true
}

// lineEnd returns the offset just past the newline ending the line that
// contains pos, or len(src).
func lineEnd(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

func isClosingFence(line []byte, char byte, width int) bool {
	line = bytes.TrimLeft(line, " \t>")
	run := len(line) - len(bytes.TrimLeft(line, string(char)))
	if run < width {
		return false
	}
	return len(bytes.TrimSpace(line[run:])) == 0
}

// splice renders r, prefixing the first line with prefix and every other line
// with its continuation form.
func splice(r imagine.Replacement, prefix string, htmlImages bool) string {
	cont := continuation(prefix)
	blank := strings.TrimRight(cont, " \t")

	var parts []string
	for _, n := range r {
		parts = append(parts, FormatNode(n, htmlImages))
	}
	lines := strings.Split(strings.Join(parts, "\n\n"), "\n")

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch {
		case i == 0:
			sb.WriteString(prefix + line)
		case line == "":
			sb.WriteString(blank)
		default:
			sb.WriteString(cont + line)
		}
	}
	return sb.String()
}

// continuation turns an opening line prefix such as "> - " into the prefix
// of the lines that follow it ("> " plus padding).
func continuation(prefix string) string {
	b := []byte(prefix)
	for i, c := range b {
		if c != '>' && c != '\t' {
			b[i] = ' '
		}
	}
	return string(b)
}
