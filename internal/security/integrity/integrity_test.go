package integrity

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	scanerr "pptKeywordDetector/internal/errors"
)

// "hello world" 的 SM3 标准值 (Hex)
const helloWorldSM3 = "44f0061e69fa6fdfc290c494654a05dc0c053da7e5c52b84ef93a9d67d3fff88"

func TestComputeSM3(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "a/hello.txt", []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	hash, err := ComputeSM3(fs, "a/hello.txt")
	if err != nil {
		t.Fatalf("ComputeSM3 failed: %v", err)
	}
	if hash != helloWorldSM3 {
		t.Errorf("SM3 hash mismatch.\nGot:  %s\nWant: %s", hash, helloWorldSM3)
	}

	if _, err := ComputeSM3(fs, "missing.txt"); !scanerr.HasCode(err, scanerr.ErrFileReadFailed) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestSumReader(t *testing.T) {
	hash, err := SumReader(strings.NewReader("hello world"), "inline")
	if err != nil || hash != helloWorldSM3 {
		t.Errorf("SumReader = %s, %v", hash, err)
	}
}

func TestDigests(t *testing.T) {
	fs := memfs.New()
	util.WriteFile(fs, "x.pptx", []byte("hello world"), 0644)

	got := Digests(fs, []string{"x.pptx", "gone.pptx"}, func(name string) string { return "/root/" + name })
	if len(got) != 1 || got["/root/x.pptx"] != helloWorldSM3 {
		t.Errorf("Digests = %v", got)
	}
}
