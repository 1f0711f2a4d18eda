package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	scanerr "pptKeywordDetector/internal/errors"
	fx "pptKeywordDetector/internal/testutil/pptxfixture"
)

func mustParse(t *testing.T, data []byte) *Presentation {
	t.Helper()
	p, err := Parse("deck.pptx", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return p
}

func TestParse_SlidesInDocumentOrder(t *testing.T) {
	data := fx.Build(fx.Deck{
		Slides: [][]fx.Shape{
			{fx.Text("title one"), fx.Picture(), fx.Text("body", "second paragraph")},
			{fx.Table(), fx.Empty()},
		},
	})

	slides, err := mustParse(t, data).Slides()
	if err != nil {
		t.Fatalf("Slides failed: %v", err)
	}
	if len(slides) != 2 {
		t.Fatalf("len(slides) = %d, want 2", len(slides))
	}

	s1 := slides[0]
	if s1.Number != 1 || len(s1.Shapes) != 3 {
		t.Fatalf("slide 1 = number %d, %d shapes", s1.Number, len(s1.Shapes))
	}

	if text, ok := s1.Shapes[0].Text(); !ok || text != "title one" {
		t.Errorf("shape 0 text = %q, %v", text, ok)
	}
	if _, ok := s1.Shapes[1].Text(); ok {
		t.Errorf("picture should not expose text")
	}
	if s1.Shapes[1].Name() != "Shape 2" {
		t.Errorf("shape 1 name = %q, want Shape 2", s1.Shapes[1].Name())
	}
	if s1.Part != "ppt/slides/slide1.xml" || slides[1].Part != "ppt/slides/slide2.xml" {
		t.Errorf("slide parts = %q, %q", s1.Part, slides[1].Part)
	}
	if text, _ := s1.Shapes[2].Text(); text != "body\nsecond paragraph" {
		t.Errorf("shape 2 text = %q", text)
	}

	s2 := slides[1]
	if _, ok := s2.Shapes[0].Text(); ok {
		t.Errorf("table frame should not expose text")
	}
	if text, ok := s2.Shapes[1].Text(); !ok || text != "" {
		t.Errorf("sp without txBody = %q, %v; want empty text shape", text, ok)
	}
}

func TestParse_RunsAndLineBreaks(t *testing.T) {
	data := fx.Build(fx.Deck{
		Slides: [][]fx.Shape{{fx.Runs("Old ", "Company", "\v", "Name & Co")}},
	})

	slides, err := mustParse(t, data).Slides()
	if err != nil {
		t.Fatalf("Slides failed: %v", err)
	}
	text, _ := slides[0].Shapes[0].Text()
	if text != "Old Company\vName & Co" {
		t.Errorf("text = %q", text)
	}
}

func TestParse_MastersAndLayouts(t *testing.T) {
	data := fx.Build(fx.Deck{
		Masters: []fx.Master{
			{Layouts: [][]fx.Shape{{fx.Text("a")}, {fx.Picture(), fx.Text("b")}}},
			{Layouts: [][]fx.Shape{{fx.Text("c")}}},
		},
	})

	masters, err := mustParse(t, data).Masters()
	if err != nil {
		t.Fatalf("Masters failed: %v", err)
	}
	if len(masters) != 2 {
		t.Fatalf("len(masters) = %d, want 2", len(masters))
	}
	if masters[0].Number != 1 || len(masters[0].Layouts) != 2 {
		t.Fatalf("master 1 = %+v", masters[0])
	}
	l2 := masters[0].Layouts[1]
	if l2.Number != 2 || l2.Name != "Layout 2" {
		t.Errorf("layout = number %d name %q", l2.Number, l2.Name)
	}
	if l2.Part != "ppt/slideLayouts/slideLayout2.xml" {
		t.Errorf("layout part = %q", l2.Part)
	}
	if text, _ := l2.Shapes[1].Text(); text != "b" {
		t.Errorf("layout 2 shape 1 = %q", text)
	}
	if masters[1].Number != 2 || masters[1].Layouts[0].Number != 1 {
		t.Errorf("master 2 = %+v", masters[1])
	}
}

func TestParse_BrokenLayoutKeepsEarlierMasters(t *testing.T) {
	deck := fx.Deck{
		Masters: []fx.Master{
			{Layouts: [][]fx.Shape{{fx.Text("a")}}},
			{Layouts: [][]fx.Shape{{fx.Text("b")}, {fx.Text("c")}}},
		},
	}
	data := fx.BuildWithParts(deck, map[string]string{
		"ppt/slideLayouts/slideLayout3.xml": "<p:sldLayout><p:cSld>",
	})

	masters, err := mustParse(t, data).Masters()
	if err == nil {
		t.Fatal("expected error for truncated layout")
	}
	if !scanerr.HasCode(err, scanerr.ErrParsingFailed) {
		t.Errorf("code = %v, want ErrParsingFailed", scanerr.GetCode(err))
	}
	if len(masters) != 2 {
		t.Fatalf("len(masters) = %d, want 2 (second partial)", len(masters))
	}
	if len(masters[1].Layouts) != 1 {
		t.Errorf("partial master layouts = %d, want 1", len(masters[1].Layouts))
	}
}

func TestParse_MissingSlidePart(t *testing.T) {
	deck := fx.Deck{Slides: [][]fx.Shape{{fx.Text("x")}}}
	data := fx.BuildWithParts(deck, map[string]string{"ppt/slides/slide1.xml": ""})

	_, err := mustParse(t, data).Slides()
	if !scanerr.HasCode(err, scanerr.ErrPartMissing) {
		t.Errorf("err = %v, want ErrPartMissing", err)
	}
}

func TestParse_ReportsDetectedType(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

	_, err := Parse("renamed.pptx", png)
	if !scanerr.HasCode(err, scanerr.ErrFileFormat) {
		t.Fatalf("err = %v, want ErrFileFormat", err)
	}
	if !strings.Contains(err.Error(), "image/png") {
		t.Errorf("error should name the detected type: %v", err)
	}
}

func TestParse_Failures(t *testing.T) {
	docx := new(bytes.Buffer)
	w := zip.NewWriter(docx)
	f, _ := w.Create("word/document.xml")
	f.Write([]byte("<w:document/>"))
	w.Close()

	ole := make([]byte, 1024)
	copy(ole, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})

	tests := []struct {
		name string
		data []byte
		code scanerr.ErrorCode
	}{
		{"Empty", nil, scanerr.ErrFileFormat},
		{"Garbage", []byte("this is not a presentation"), scanerr.ErrFileFormat},
		{"LegacyPPT", ole, scanerr.ErrFileFormat},
		{"Docx", docx.Bytes(), scanerr.ErrFileFormat},
		{"BrokenMainPart", fx.BuildWithParts(fx.Deck{}, map[string]string{"ppt/presentation.xml": "<p:presentation"}), scanerr.ErrParsingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse("bad.pptx", tt.data)
			if err == nil {
				t.Fatalf("Parse succeeded, want error (got %v)", p)
			}
			if !scanerr.HasCode(err, tt.code) {
				t.Errorf("code = %v, want %v (err: %v)", scanerr.GetCode(err), tt.code, err)
			}
			if err.Error() == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestOpen_FromFilesystem(t *testing.T) {
	fs := memfs.New()
	data := fx.Build(fx.Deck{Slides: [][]fx.Shape{{fx.Text("hello")}}})
	if err := util.WriteFile(fs, "decks/a.pptx", data, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	p, err := Open(fs, "decks/a.pptx")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if slides, err := p.Slides(); err != nil || len(slides) != 1 {
		t.Errorf("Slides() = %d, %v", len(slides), err)
	}

	if _, err := Open(fs, "decks/missing.pptx"); !scanerr.HasCode(err, scanerr.ErrFileReadFailed) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		base, target, want string
	}{
		{"ppt", "slides/slide1.xml", "ppt/slides/slide1.xml"},
		{"ppt/slideMasters", "../slideLayouts/slideLayout1.xml", "ppt/slideLayouts/slideLayout1.xml"},
		{"ppt/slideMasters", "/ppt/slideLayouts/slideLayout2.xml", "ppt/slideLayouts/slideLayout2.xml"},
		{"", "ppt/presentation.xml", "ppt/presentation.xml"},
	}
	for _, tt := range tests {
		if got := resolveTarget(tt.base, tt.target); got != tt.want {
			t.Errorf("resolveTarget(%q, %q) = %q, want %q", tt.base, tt.target, got, tt.want)
		}
	}
}
