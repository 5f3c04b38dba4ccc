// ABOUTME: Renders engine replacement nodes back to Markdown source text.
// ABOUTME: Code nodes become fenced blocks; image nodes become pandoc-style image links or raw HTML figures.
package markdown

import (
	"html"
	"strings"

	"github.com/2389-research/imagine/imagine"
)

// FormatNode renders n as Markdown. With htmlImages set, image nodes are
// written as raw HTML so that attributes survive a CommonMark renderer.
func FormatNode(n imagine.Node, htmlImages bool) string {
	if n.Kind == imagine.NodeCode {
		return formatCode(n)
	}
	if htmlImages {
		return formatImageHTML(n)
	}
	return formatImage(n)
}

func formatCode(n imagine.Node) string {
	fence := fenceFor(n.Text)
	body := n.Text
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return fence + infoString(n) + "\n" + body + fence
}

// fenceFor returns a backtick fence longer than any backtick run in s.
func fenceFor(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

func infoString(n imagine.Node) string {
	if n.ID == "" && len(n.KeyVals) == 0 && len(n.Classes) == 1 {
		return n.Classes[0]
	}
	return attrs(n)
}

func attrs(n imagine.Node) string {
	return imagine.CodeBlock{ID: n.ID, Classes: n.Classes, KeyVals: n.KeyVals}.AttrString()
}

func formatImage(n imagine.Node) string {
	var sb strings.Builder
	sb.WriteString("![")
	sb.WriteString(escapeCaption(n.Caption))
	sb.WriteString("](")
	if strings.ContainsAny(n.Src, " ()") {
		sb.WriteString("<" + n.Src + ">")
	} else {
		sb.WriteString(n.Src)
	}
	if n.Title != "" && n.Title != "fig:" {
		sb.WriteString(` "` + strings.ReplaceAll(n.Title, `"`, `\"`) + `"`)
	}
	sb.WriteString(")")
	sb.WriteString(attrs(n))
	return sb.String()
}

func escapeCaption(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

func formatImageHTML(n imagine.Node) string {
	var sb strings.Builder
	sb.WriteString(`<img src="` + html.EscapeString(n.Src) + `" alt="` + html.EscapeString(n.Caption) + `"`)
	if n.ID != "" {
		sb.WriteString(` id="` + html.EscapeString(n.ID) + `"`)
	}
	if len(n.Classes) > 0 {
		sb.WriteString(` class="` + html.EscapeString(strings.Join(n.Classes, " ")) + `"`)
	}
	for _, kv := range n.KeyVals {
		sb.WriteString(" " + html.EscapeString(kv.Key) + `="` + html.EscapeString(kv.Value) + `"`)
	}
	sb.WriteString(">")

	if n.Caption == "" {
		return sb.String()
	}
	return "<figure>\n" + sb.String() + "\n<figcaption>" + html.EscapeString(n.Caption) + "</figcaption>\n</figure>"
}
