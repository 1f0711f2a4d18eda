package report

import (
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"pptKeywordDetector/internal/model"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

func sampleResults() []model.FileResult {
	return []model.FileResult{
		model.Succeeded("/d/a.pptx", []model.Match{
			{Location: "1", Keywords: []string{"acme"}, Count: 2},
			{Location: "Master Group 1, Layout 2", ShapeIndex: 3, Keywords: []string{"acme"}, Count: 1, IsMaster: true},
		}, nil),
		model.Succeeded("/d/b.pptx", nil, nil),
		model.Failed("/d/c.pptx", "file is not a zip package"),
	}
}

func TestFormat(t *testing.T) {
	got := Format(sampleResults(), "/d", false, fixedTime)

	want := "/d/a.pptx\t2\n" +
		"/d/c.pptx\t0\t(error: file is not a zip package)\n" +
		"\n" +
		strings.Repeat("=", 80) + "\n" +
		"Target directory: /d\n" +
		"Files with detections: 1/3\n" +
		"Scanned at: 2024-03-09 14:05:07\n" +
		strings.Repeat("=", 80) + "\n"

	if got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormat_ShowAll(t *testing.T) {
	got := Format(sampleResults(), "/d", true, fixedTime)
	if !strings.HasPrefix(got, "/d/a.pptx\t2\n/d/b.pptx\t0\n/d/c.pptx\t0\t(error: ") {
		t.Errorf("unexpected report head:\n%s", got)
	}
}

func TestFormat_Empty(t *testing.T) {
	got := Format(nil, "/empty", true, fixedTime)
	if !strings.HasPrefix(got, "\n"+Separator) {
		t.Errorf("report should start with blank line and separator:\n%q", got)
	}
	if !strings.Contains(got, "Files with detections: 0/0\n") {
		t.Errorf("missing summary:\n%s", got)
	}
}

func TestLine(t *testing.T) {
	failedWithMatches := model.FileResult{
		Path:    "x.pptx",
		Success: false,
		Matches: []model.Match{{Count: 5}},
		Error:   "boom",
	}

	tests := []struct {
		name    string
		result  model.FileResult
		showAll bool
		want    string
		ok      bool
	}{
		{"Hit", model.Succeeded("a", []model.Match{{}}, nil), false, "a\t1", true},
		{"Clean_Hidden", model.Succeeded("b", nil, nil), false, "", false},
		{"Clean_ShowAll", model.Succeeded("b", nil, nil), true, "b\t0", true},
		{"Failed", model.Failed("c", "bad"), false, "c\t0\t(error: bad)", true},
		{"Failed_Forces_Zero", failedWithMatches, true, "x.pptx\t0\t(error: boom)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Line(tt.result, tt.showAll)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Line() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())
	if s.TotalFiles != 3 || s.FilesWithMatches != 1 || s.FailedFiles != 1 || s.TotalMatches != 2 || s.TotalOccurrences != 3 {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.Ratio() != "1/3" {
		t.Errorf("Ratio() = %q", s.Ratio())
	}
}

func TestDetails(t *testing.T) {
	results := sampleResults()
	results[0].Matches[0].Excerpt = "line one\nline two"
	results[0].Matches[0].ShapeName = "Title 1"
	results[0].Matches[0].Part = "ppt/slides/slide1.xml"
	results[0].Matches[1].LayoutName = "Title Slide"
	results[0].Warnings = []string{"master/layout scan incomplete"}

	got := Details(results)
	for _, want := range []string{
		"/d/a.pptx\n",
		"[slide 1] shape #0  acme  x2",
		"line one line two",
		`"Title 1" in ppt/slides/slide1.xml`,
		"[master Master Group 1, Layout 2 (Title Slide)] shape #3",
		"warning: master/layout scan incomplete",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Details() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "b.pptx") || strings.Contains(got, "c.pptx") {
		t.Errorf("Details() should only list files with matches or warnings:\n%s", got)
	}
}

func TestSave(t *testing.T) {
	fs := memfs.New()

	if err := Save(fs, "out/nested/report.txt", "first"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := Save(fs, "out/nested/report.txt", "日本語 second"); err != nil {
		t.Fatalf("Save overwrite failed: %v", err)
	}

	data, err := util.ReadFile(fs, "out/nested/report.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "日本語 second" {
		t.Errorf("content = %q", data)
	}
}
