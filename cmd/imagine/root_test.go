// ABOUTME: Tests for the imagine command tree, executed in-process with captured stdio.
// ABOUTME: Uses the self-describing imagine codec and unknown codecs so no external tool is needed.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	isolate(t)
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootFiltersPandocJSON(t *testing.T) {
	basedir := filepath.Join(t.TempDir(), "pd")
	doc := `{"pandoc-api-version":[1,23,1],"meta":{},"blocks":[{"t":"CodeBlock","c":[["",["imagine"],[]],""]},{"t":"CodeBlock","c":[["",["python"],[]],"print(1)"]}]}`

	out, _, err := execute(t, doc, "html", "--basedir", basedir, "--no-ledger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Codecs:") {
		t.Errorf("expected help text in output, got %s", out)
	}
	if !strings.Contains(out, `"print(1)"`) {
		t.Errorf("expected python block untouched, got %s", out)
	}
}

func TestRootRejectsInvalidJSON(t *testing.T) {
	_, _, err := execute(t, "{", "--basedir", filepath.Join(t.TempDir(), "pd"), "--no-ledger")
	if err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestRootRejectsExtraArgs(t *testing.T) {
	if _, _, err := execute(t, "", "html", "latex"); err == nil {
		t.Error("expected an error for two positional arguments")
	}
}

func TestRenderMarkdownFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.md")
	outPath := filepath.Join(dir, "doc.out.md")
	src := "# Title\n\n```python\nx = 1\n```\n\n```imagine\n```\n"
	if err := os.WriteFile(in, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := execute(t, "", "render", in, "-o", outPath, "--basedir", filepath.Join(dir, "pd"), "--no-ledger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(got), "# Title\n\n```python\nx = 1\n```\n") {
		t.Errorf("expected untouched prefix, got %q", got)
	}
	if !strings.Contains(string(got), "Codecs:") {
		t.Errorf("expected help block rendered, got %q", got)
	}
}

func TestRenderStdinHTML(t *testing.T) {
	out, _, err := execute(t, "Hello *world*\n", "render", "--html", "--basedir", filepath.Join(t.TempDir(), "pd"), "--no-ledger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "<p>Hello <em>world</em></p>" {
		t.Errorf("expected html, got %q", out)
	}
}

func TestRenderBadMode(t *testing.T) {
	if _, _, err := execute(t, "x", "render", "--mode", "rst"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestRenderMissingFile(t *testing.T) {
	_, _, err := execute(t, "", "render", filepath.Join(t.TempDir(), "absent.md"))
	if err == nil || !strings.Contains(err.Error(), "absent.md") {
		t.Errorf("expected a read error naming the file, got %v", err)
	}
}

func TestHandlersListing(t *testing.T) {
	out, _, err := execute(t, "", "handlers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"HANDLER", "Graphviz", "graphviz", "Mermaid"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in listing, got:\n%s", want, out)
		}
	}

	out, _, err = execute(t, "", "handlers", "--usage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Codecs:") {
		t.Errorf("expected usage text, got:\n%s", out)
	}
}

func TestLedgerCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, _, err := execute(t, "", "ledger", "stats", "--ledger", db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "total") {
		t.Errorf("expected totals row, got:\n%s", out)
	}

	out, _, err = execute(t, "", "ledger", "recent", "--ledger", db, "-n", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "STARTED") {
		t.Errorf("expected header, got:\n%s", out)
	}

	if _, _, err := execute(t, "", "ledger", "stats", "--no-ledger"); err == nil {
		t.Error("expected an error when the ledger is disabled")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "imagine dev\n" {
		t.Errorf("expected version line, got %q", out)
	}
}
