// ABOUTME: Tests for the pandoc JSON filter: tree walking, splicing, node encoding and error propagation.
// ABOUTME: Uses a stub processor so no external tools are needed.
package pandoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/2389-research/imagine/imagine"
)

type stubProcessor struct {
	seen    []imagine.CodeBlock
	formats []string
	replace func(b imagine.CodeBlock) imagine.Replacement
}

func (s *stubProcessor) Process(_ context.Context, b imagine.CodeBlock, format string) (imagine.Replacement, error) {
	s.seen = append(s.seen, b)
	s.formats = append(s.formats, format)
	if s.replace == nil {
		return nil, nil
	}
	return s.replace(b), nil
}

const sampleDoc = `{"pandoc-api-version":[1,23,1],"meta":{},"blocks":[
{"t":"Para","c":[{"t":"Str","c":"before"}]},
{"t":"CodeBlock","c":[["g1",["dot"],[["caption","A graph"],["width","50%"]]],"digraph { a -> b }"]},
{"t":"BlockQuote","c":[{"t":"CodeBlock","c":[["",["python"],[]],"print(1)"]}]},
{"t":"Para","c":[{"t":"Str","c":"after <b>"}]}
]}`

func TestFilterPassesBlocksInDocumentOrder(t *testing.T) {
	p := &stubProcessor{}
	var out bytes.Buffer

	if err := Filter(context.Background(), p, strings.NewReader(sampleDoc), &out, "html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.seen) != 2 {
		t.Fatalf("expected 2 code blocks, got %d", len(p.seen))
	}

	first := p.seen[0]
	want := imagine.CodeBlock{
		ID:      "g1",
		Classes: []string{"dot"},
		KeyVals: []imagine.KeyVal{{Key: "caption", Value: "A graph"}, {Key: "width", Value: "50%"}},
		Content: "digraph { a -> b }",
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("expected %+v, got %+v", want, first)
	}
	if p.seen[1].Content != "print(1)" {
		t.Errorf("expected nested block, got %+v", p.seen[1])
	}
	if p.formats[0] != "html" {
		t.Errorf("expected format html, got %q", p.formats[0])
	}
}

func TestFilterVisitsMetaBeforeBlocks(t *testing.T) {
	in := `{"pandoc-api-version":[1,23,1],"meta":{` +
		`"zeta":{"t":"MetaBlocks","c":[{"t":"CodeBlock","c":[["",["m2"],[]],""]}]},` +
		`"alpha":{"t":"MetaBlocks","c":[{"t":"CodeBlock","c":[["",["m1"],[]],""]}]}},` +
		`"blocks":[{"t":"CodeBlock","c":[["",["b1"],[]],""]},{"t":"CodeBlock","c":[["",["b2"],[]],""]}]}`

	for run := 0; run < 20; run++ {
		p := &stubProcessor{}
		if err := Filter(context.Background(), p, strings.NewReader(in), &bytes.Buffer{}, "html"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []string
		for _, b := range p.seen {
			got = append(got, b.Classes[0])
		}
		if strings.Join(got, ",") != "m1,m2,b1,b2" {
			t.Fatalf("run %d: expected m1,m2,b1,b2, got %v", run, got)
		}
	}
}

func TestFilterLeavesUnchangedDocumentIntact(t *testing.T) {
	var out bytes.Buffer
	if err := Filter(context.Background(), &stubProcessor{}, strings.NewReader(sampleDoc), &out, "html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got, want any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid output json: %v", err)
	}
	if err := json.Unmarshal([]byte(sampleDoc), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected document unchanged\nwant %v\ngot  %v", want, got)
	}
	if !strings.Contains(out.String(), "after <b>") {
		t.Errorf("expected html left unescaped, got %s", out.String())
	}
}

func TestFilterSplicesReplacements(t *testing.T) {
	p := &stubProcessor{replace: func(b imagine.CodeBlock) imagine.Replacement {
		if b.Classes[0] != "dot" {
			return nil
		}
		return imagine.Replacement{
			{Kind: imagine.NodeCode, Text: "```{.dot}\nsrc\n```"},
			{
				Kind:    imagine.NodeImage,
				ID:      "g1",
				Classes: []string{"dot"},
				KeyVals: []imagine.KeyVal{{Key: "width", Value: "50%"}},
				Src:     "pd-images/abc.svg",
				Caption: "A graph",
				Title:   "fig:",
			},
		}
	}}
	var out bytes.Buffer

	if err := Filter(context.Background(), p, strings.NewReader(sampleDoc), &out, "html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Blocks) != 5 {
		t.Fatalf("expected 5 blocks after splicing, got %d", len(doc.Blocks))
	}

	wantCode := `{"c":[["",[],[]],"` + "```{.dot}\\nsrc\\n```" + `"],"t":"CodeBlock"}`
	if string(doc.Blocks[1]) != wantCode {
		t.Errorf("expected %s, got %s", wantCode, doc.Blocks[1])
	}
	wantImage := `{"c":[{"c":[["g1",["dot"],[["width","50%"]]],[{"c":"A","t":"Str"},{"t":"Space"},{"c":"graph","t":"Str"}],["pd-images/abc.svg","fig:"]],"t":"Image"}],"t":"Para"}`
	if string(doc.Blocks[2]) != wantImage {
		t.Errorf("expected %s, got %s", wantImage, doc.Blocks[2])
	}
	if len(p.seen) != 2 {
		t.Errorf("expected replacements not to be walked again, saw %d blocks", len(p.seen))
	}
}

func TestFilterKeepsNumbers(t *testing.T) {
	var out bytes.Buffer
	in := `{"pandoc-api-version":[1,23,1],"meta":{"n":{"t":"MetaString","c":"12345678901234567890"}},"blocks":[]}`
	if err := Filter(context.Background(), &stubProcessor{}, strings.NewReader(in), &out, "html"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"pandoc-api-version":[1,23,1]`) {
		t.Errorf("expected api version preserved, got %s", out.String())
	}
}

func TestFilterPropagatesProcessorErrors(t *testing.T) {
	in := `{"blocks":[{"t":"CodeBlock","c":[["",["dot"],[[1,"x"]]],"a"]}]}`
	err := Filter(context.Background(), &stubProcessor{}, strings.NewReader(in), &bytes.Buffer{}, "html")
	if !errors.Is(err, imagine.ErrMalformedAttributes) {
		t.Errorf("expected ErrMalformedAttributes, got %v", err)
	}
}

func TestFilterRejectsInvalidJSON(t *testing.T) {
	if err := Filter(context.Background(), &stubProcessor{}, strings.NewReader("{"), &bytes.Buffer{}, "html"); err == nil {
		t.Error("expected an error for truncated json")
	}
}

func TestEncodeNodeWithoutCaption(t *testing.T) {
	n := EncodeNode(imagine.Node{Kind: imagine.NodeImage, Src: "a.png"})
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"c":[{"c":[["",[],[]],[],["a.png",""]],"t":"Image"}],"t":"Para"}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}
