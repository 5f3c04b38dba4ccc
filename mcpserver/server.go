// ABOUTME: Model Context Protocol server exposing the imagine engine as tools over stdio.
// ABOUTME: Tools render single code blocks, whole documents, and list the registered handlers.
package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/markdown"
	"github.com/2389-research/imagine/render"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RenderBlockInput is the render_code_block tool input.
type RenderBlockInput struct {
	Codec      string            `json:"codec" jsonschema:"handler codec such as dot, plantuml or figlet"`
	Code       string            `json:"code" jsonschema:"the code block content"`
	Format     string            `json:"format,omitempty" jsonschema:"target document format (html, latex, docx...)"`
	Options    string            `json:"options,omitempty" jsonschema:"extra command line arguments for the tool"`
	Caption    string            `json:"caption,omitempty" jsonschema:"caption for generated images"`
	Keep       bool              `json:"keep,omitempty" jsonschema:"also return the original block"`
	Attributes map[string]string `json:"attributes,omitempty" jsonschema:"additional block attributes"`
}

// NodeOutput is one replacement node.
type NodeOutput struct {
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	Src     string `json:"src,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// RenderBlockOutput is the render_code_block tool output.
type RenderBlockOutput struct {
	Replaced bool         `json:"replaced"`
	Nodes    []NodeOutput `json:"nodes,omitempty"`
	Markdown string       `json:"markdown"`
}

// RenderDocumentInput is the render_document tool input.
type RenderDocumentInput struct {
	Document string `json:"document" jsonschema:"a Markdown document or pandoc JSON AST"`
	Mode     string `json:"mode,omitempty" jsonschema:"pandoc or markdown; detected when empty"`
	Format   string `json:"format,omitempty" jsonschema:"target document format"`
	HTML     bool   `json:"html,omitempty" jsonschema:"convert Markdown output to HTML"`
}

// RenderDocumentOutput is the render_document tool output.
type RenderDocumentOutput struct {
	Output   string `json:"output"`
	Mode     string `json:"mode"`
	Blocks   int    `json:"blocks"`
	Replaced int    `json:"replaced"`
}

// ListHandlersInput is the (empty) list_handlers tool input.
type ListHandlersInput struct{}

// HandlerOutput describes one registered handler.
type HandlerOutput struct {
	Name   string   `json:"name"`
	Codecs []string `json:"codecs"`
}

// ListHandlersOutput is the list_handlers tool output.
type ListHandlersOutput struct {
	Handlers []HandlerOutput `json:"handlers"`
}

// Server holds the tool implementations.
type Server struct {
	renderer *render.Renderer
	version  string
}

// New creates a Server around renderer.
func New(renderer *render.Renderer, version string) *Server {
	return &Server{renderer: renderer, version: version}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "imagine", Version: s.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_code_block",
		Description: "Render one fenced code block (graphviz, plantuml, mermaid, figlet, ...) with its external tool and return the image path or text output.",
	}, s.RenderCodeBlock)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_document",
		Description: "Render every code block of a Markdown document or pandoc JSON AST.",
	}, s.RenderDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_handlers",
		Description: "List the handlers and the codecs each one answers to.",
	}, s.ListHandlers)

	return server
}

// Run serves the tools over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer().Run(ctx, &mcp.StdioTransport{})
}

// RenderCodeBlock implements the render_code_block tool.
func (s *Server) RenderCodeBlock(ctx context.Context, _ *mcp.CallToolRequest, in RenderBlockInput) (*mcp.CallToolResult, RenderBlockOutput, error) {
	codec := strings.TrimSpace(in.Codec)
	if codec == "" {
		return nil, RenderBlockOutput{}, fmt.Errorf("codec is required")
	}
	if _, ok := s.renderer.Engine().Registry().Lookup(codec); !ok {
		return nil, RenderBlockOutput{}, fmt.Errorf("%w: %s", imagine.ErrUnknownCodec, codec)
	}

	b := imagine.CodeBlock{Classes: []string{codec}, Content: in.Code}
	keys := make([]string, 0, len(in.Attributes))
	for k := range in.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.KeyVals = append(b.KeyVals, imagine.KeyVal{Key: k, Value: in.Attributes[k]})
	}
	if in.Options != "" {
		b.KeyVals = append(b.KeyVals, imagine.KeyVal{Key: imagine.KeyOptions, Value: in.Options})
	}
	if in.Caption != "" {
		b.KeyVals = append(b.KeyVals, imagine.KeyVal{Key: imagine.KeyCaption, Value: in.Caption})
	}
	if in.Keep {
		b.KeyVals = append(b.KeyVals, imagine.KeyVal{Key: imagine.KeyKeep, Value: "true"})
	}

	rep, err := s.renderer.Process(ctx, b, in.Format)
	if err != nil {
		return nil, RenderBlockOutput{}, err
	}

	out := RenderBlockOutput{Replaced: !rep.Unchanged()}
	var parts []string
	for _, n := range rep {
		out.Nodes = append(out.Nodes, NodeOutput{Kind: n.Kind.String(), Text: n.Text, Src: n.Src, Caption: n.Caption})
		parts = append(parts, markdown.FormatNode(n, false))
	}
	if out.Replaced {
		out.Markdown = strings.Join(parts, "\n\n")
	} else {
		out.Markdown = markdown.FormatNode(imagine.Node{Kind: imagine.NodeCode, Classes: b.Classes, KeyVals: b.KeyVals, Text: b.Content}, false)
	}
	return nil, out, nil
}

// RenderDocument implements the render_document tool.
func (s *Server) RenderDocument(ctx context.Context, _ *mcp.CallToolRequest, in RenderDocumentInput) (*mcp.CallToolResult, RenderDocumentOutput, error) {
	mode, err := render.ParseMode(in.Mode)
	if err != nil {
		return nil, RenderDocumentOutput{}, err
	}
	res, err := s.renderer.Render(ctx, []byte(in.Document), render.Options{Mode: mode, Format: in.Format, HTML: in.HTML})
	if err != nil {
		return nil, RenderDocumentOutput{}, err
	}
	return nil, RenderDocumentOutput{
		Output:   string(res.Output),
		Mode:     string(res.Mode),
		Blocks:   res.Blocks,
		Replaced: res.Replaced,
	}, nil
}

// ListHandlers implements the list_handlers tool.
func (s *Server) ListHandlers(_ context.Context, _ *mcp.CallToolRequest, _ ListHandlersInput) (*mcp.CallToolResult, ListHandlersOutput, error) {
	var out ListHandlersOutput
	for _, d := range s.renderer.Engine().Registry().Descriptors() {
		codecs := make([]string, 0, len(d.Codecs))
		for codec := range d.Codecs {
			codecs = append(codecs, codec)
		}
		sort.Strings(codecs)
		out.Handlers = append(out.Handlers, HandlerOutput{Name: d.Name, Codecs: codecs})
	}
	return nil, out, nil
}
