// ABOUTME: Tests for document rendering through a real engine backed by a fake process runner.
// ABOUTME: Covers mode detection, pandoc and Markdown documents, HTML output and block counts.
package render

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/2389-research/imagine/imagine"
)

// imageRunner pretends to be every tool: it writes the output file and
// echoes "ART" for text tools.
type imageRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *imageRunner) Run(_ context.Context, _ string, _ []string, output string, force bool) imagine.RunResult {
	if _, err := os.Stat(output); err == nil && !force {
		return imagine.RunResult{Succeeded: true, OutputExists: true}
	}
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if strings.HasSuffix(output, ".png") || strings.HasSuffix(output, ".svg") {
		_ = os.WriteFile(output, []byte("img"), 0o644)
	}
	return imagine.RunResult{Succeeded: true, Output: []byte("ART")}
}

func newTestRenderer(t *testing.T) (*Renderer, *imageRunner, string) {
	t.Helper()
	runner := &imageRunner{}
	basedir := filepath.Join(t.TempDir(), "pd")
	engine, err := imagine.NewEngine(imagine.EngineConfig{BaseDir: basedir, Runner: runner})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewRenderer(engine, nil), runner, basedir
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"": "", "pandoc": ModePandoc, "JSON": ModePandoc, "md": ModeMarkdown, "markdown": ModeMarkdown}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Errorf("expected %q for %q, got %q", want, in, got)
		}
	}
	if _, err := ParseMode("rst"); err == nil {
		t.Error("expected an error for rst")
	}
}

func TestDetectMode(t *testing.T) {
	if DetectMode([]byte(` {"pandoc-api-version":[1,23],"meta":{},"blocks":[]}`)) != ModePandoc {
		t.Error("expected pandoc for an AST")
	}
	if DetectMode([]byte("# Title\n\n```dot\n{}\n```\n")) != ModeMarkdown {
		t.Error("expected markdown for a markdown document")
	}
	if DetectMode([]byte(`{"name":"x"}`)) != ModeMarkdown {
		t.Error("expected markdown for unrelated json")
	}
}

func TestRenderMarkdown(t *testing.T) {
	r, runner, basedir := newTestRenderer(t)
	src := "# Doc\n\n```dot\ndigraph { a -> b }\n```\n\n```python\nprint(1)\n```\n"

	res, err := r.Render(context.Background(), []byte(src), Options{Format: "html"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModeMarkdown {
		t.Errorf("expected markdown mode, got %q", res.Mode)
	}
	if res.Blocks != 2 || res.Replaced != 1 || res.Unchanged != 1 {
		t.Errorf("expected 2 blocks, 1 replaced, 1 unchanged, got %+v", res)
	}
	out := string(res.Output)
	if !strings.Contains(out, "![]("+imagine.ImageDir(basedir)) || !strings.Contains(out, ".svg)") {
		t.Errorf("expected svg image link, got %q", out)
	}
	if !strings.Contains(out, "```python\nprint(1)\n```") {
		t.Errorf("expected python block untouched, got %q", out)
	}
	if runner.calls != 1 {
		t.Errorf("expected 1 invocation, got %d", runner.calls)
	}

	if _, err := r.Render(context.Background(), []byte(src), Options{Format: "html"}); err != nil {
		t.Fatal(err)
	}
	if runner.calls != 1 {
		t.Errorf("expected second render served from disk, got %d invocations", runner.calls)
	}
}

func TestRenderMarkdownToHTML(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	src := "```dot {caption=\"Flow\"}\ndigraph { a -> b }\n```\n"

	res, err := r.Render(context.Background(), []byte(src), Options{HTML: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "<figure>") || !strings.Contains(out, "<figcaption>Flow</figcaption>") {
		t.Errorf("expected html figure, got %q", out)
	}
	if !strings.Contains(out, `.svg"`) {
		t.Errorf("expected html format to select svg, got %q", out)
	}
}

func TestRenderPandoc(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	src := `{"pandoc-api-version":[1,23,1],"meta":{},"blocks":[{"t":"CodeBlock","c":[["",["figlet"],[]],"HI"]}]}`

	res, err := r.Render(context.Background(), []byte(src), Options{Format: "latex"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModePandoc || res.Replaced != 1 {
		t.Errorf("expected one pandoc replacement, got %+v", res)
	}

	var doc struct {
		Blocks []struct {
			T string `json:"t"`
			C []any  `json:"c"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal(res.Output, &doc); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if len(doc.Blocks) != 1 || doc.Blocks[0].T != "CodeBlock" || doc.Blocks[0].C[1] != "ART" {
		t.Errorf("expected figlet output code block, got %+v", doc.Blocks)
	}
}

func TestRendererProcessSingleBlock(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	rep, err := r.Process(context.Background(), imagine.CodeBlock{Classes: []string{"boxes"}, Content: "x"}, "html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep) != 1 || rep[0].Text != "ART" {
		t.Errorf("expected boxes output, got %+v", rep)
	}
}
