package format

import (
	"bytes"

	"github.com/h2non/filetype"
)

// Kind 演示文稿容器类型
type Kind int

const (
	KindUnknown        Kind = iota
	KindPresentationML      // pptx / pptm / potx (OOXML)
	KindZip                 // 其它 zip 容器，可能是非常规排序的 OOXML
	KindLegacyBinary        // ppt (OLE2 复合文档)
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindPresentationML:
		return "presentationml"
	case KindZip:
		return "zip"
	case KindLegacyBinary:
		return "ole2"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

var (
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Identify 根据文件内容识别容器类型
// OOXML 的判定需要查看 zip 内的文件名，因此应传入完整内容而不只是文件头
func Identify(data []byte) Kind {
	if len(data) == 0 {
		return KindEmpty
	}

	// 1. OOXML 演示文稿
	if filetype.Is(data, "pptx") {
		return KindPresentationML
	}

	// 2. Zip 容器，交给 zip 解析器判定
	if bytes.HasPrefix(data, zipMagic) {
		return KindZip
	}

	// 3. OLE2 (旧版 Office)
	if filetype.Is(data, "ppt") || bytes.HasPrefix(data, ole2Magic) {
		return KindLegacyBinary
	}

	return KindUnknown
}

// MIME 返回 filetype 识别出的 MIME 类型，无法识别时为空
func MIME(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
