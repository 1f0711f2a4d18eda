// Package pptxfixture 在内存中生成最小可用的 .pptx 包，供各包测试使用
package pptxfixture

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relOfficeDoc   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
)

// Shape 形状描述
type Shape struct {
	Kind       string     // "sp"(默认), "pic", "graphicFrame", "cxnSp", "grpSp"
	Paragraphs [][]string // 每个段落由若干 run 组成；"\v" 单独成项时生成 a:br
	NoTxBody   bool
}

// Text 生成文本形状，每个参数是一个段落（单个 run）
func Text(paragraphs ...string) Shape {
	s := Shape{Kind: "sp"}
	for _, p := range paragraphs {
		s.Paragraphs = append(s.Paragraphs, []string{p})
	}
	return s
}

// Runs 生成单段落、多 run 的文本形状
func Runs(runs ...string) Shape {
	return Shape{Kind: "sp", Paragraphs: [][]string{runs}}
}

// Empty 没有 txBody 的文本形状
func Empty() Shape {
	return Shape{Kind: "sp", NoTxBody: true}
}

// Picture 图片形状
func Picture() Shape {
	return Shape{Kind: "pic"}
}

// Table 表格框
func Table() Shape {
	return Shape{Kind: "graphicFrame"}
}

// Master 母版描述，每个元素是一个版式的形状列表
type Master struct {
	Layouts [][]Shape
}

// Deck 演示文稿描述
type Deck struct {
	Slides  [][]Shape
	Masters []Master
}

// Build 生成 .pptx 字节内容
func Build(d Deck) []byte {
	b := newBuilder()

	var presRels []rel
	var masterIDs, slideIDs []string
	layoutNo := 0

	for mi, m := range d.Masters {
		masterPart := fmt.Sprintf("ppt/slideMasters/slideMaster%d.xml", mi+1)
		rid := fmt.Sprintf("rId%d", len(presRels)+1)
		presRels = append(presRels, rel{rid, relSlideMaster, fmt.Sprintf("slideMasters/slideMaster%d.xml", mi+1)})
		masterIDs = append(masterIDs, fmt.Sprintf(`<p:sldMasterId id="%d" r:id="%s"/>`, 2147483648+mi*100, rid))

		var masterRels []rel
		var layoutIDs []string
		for li, shapes := range m.Layouts {
			layoutNo++
			lrid := fmt.Sprintf("rId%d", li+1)
			masterRels = append(masterRels, rel{lrid, relSlideLayout, fmt.Sprintf("../slideLayouts/slideLayout%d.xml", layoutNo)})
			layoutIDs = append(layoutIDs, fmt.Sprintf(`<p:sldLayoutId id="%d" r:id="%s"/>`, 2147483649+layoutNo, lrid))
			b.add(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", layoutNo),
				fmt.Sprintf(`<p:sldLayout xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld name="Layout %d">%s</p:cSld></p:sldLayout>`,
					nsA, nsR, nsP, li+1, spTree(shapes)))
		}

		b.add(masterPart, fmt.Sprintf(`<p:sldMaster xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld>%s</p:cSld><p:sldLayoutIdLst>%s</p:sldLayoutIdLst></p:sldMaster>`,
			nsA, nsR, nsP, spTree(nil), strings.Join(layoutIDs, "")))
		b.add(relsPath(masterPart), relsXML(masterRels))
	}

	for si, shapes := range d.Slides {
		rid := fmt.Sprintf("rId%d", len(presRels)+1)
		presRels = append(presRels, rel{rid, relSlide, fmt.Sprintf("slides/slide%d.xml", si+1)})
		slideIDs = append(slideIDs, fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, 256+si, rid))
		b.add(fmt.Sprintf("ppt/slides/slide%d.xml", si+1),
			fmt.Sprintf(`<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld>%s</p:cSld></p:sld>`, nsA, nsR, nsP, spTree(shapes)))
	}

	b.add("ppt/presentation.xml", fmt.Sprintf(`<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:sldMasterIdLst>%s</p:sldMasterIdLst><p:sldIdLst>%s</p:sldIdLst></p:presentation>`,
		nsA, nsR, nsP, strings.Join(masterIDs, ""), strings.Join(slideIDs, "")))
	b.add("ppt/_rels/presentation.xml.rels", relsXML(presRels))
	b.add("_rels/.rels", relsXML([]rel{{"rId1", relOfficeDoc, "ppt/presentation.xml"}}))

	return b.bytes()
}

// BuildWithParts 生成 .pptx 后替换或追加指定部件，用于构造损坏的包
func BuildWithParts(d Deck, overrides map[string]string) []byte {
	src := Build(d)
	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		panic(err)
	}

	b := newBuilder()
	for _, f := range zr.File {
		if _, ok := overrides[f.Name]; ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			panic(err)
		}
		buf := new(bytes.Buffer)
		buf.ReadFrom(rc)
		rc.Close()
		b.add(f.Name, buf.String())
	}
	for name, content := range overrides {
		if content == "" {
			continue // 空字符串表示删除该部件
		}
		b.add(name, content)
	}
	return b.bytes()
}

// ============================================================
// 内部实现
// ============================================================

type rel struct {
	id, typ, target string
}

type builder struct {
	buf   *bytes.Buffer
	w     *zip.Writer
	names []string
}

func newBuilder() *builder {
	buf := new(bytes.Buffer)
	b := &builder{buf: buf, w: zip.NewWriter(buf)}
	b.add("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`)
	return b
}

func (b *builder) add(name, content string) {
	if name == "[Content_Types].xml" && len(b.names) > 0 {
		return
	}
	f, err := b.w.Create(name)
	if err != nil {
		panic(err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		panic(err)
	}
	b.names = append(b.names, name)
}

func (b *builder) bytes() []byte {
	if err := b.w.Close(); err != nil {
		panic(err)
	}
	return b.buf.Bytes()
}

func relsPath(part string) string {
	i := strings.LastIndex(part, "/")
	return part[:i] + "/_rels/" + part[i+1:] + ".rels"
}

func relsXML(rels []rel) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func spTree(shapes []Shape) string {
	var sb strings.Builder
	sb.WriteString(`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	for i, s := range shapes {
		id := i + 2
		name := fmt.Sprintf("Shape %d", i+1)
		switch s.Kind {
		case "pic":
			fmt.Fprintf(&sb, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill/><p:spPr/></p:pic>`, id, name)
		case "graphicFrame":
			fmt.Fprintf(&sb, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="%s"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr><a:graphic><a:graphicData><a:tbl><a:tr><a:tc><a:txBody><a:p><a:r><a:t>table text</a:t></a:r></a:p></a:txBody></a:tc></a:tr></a:tbl></a:graphicData></a:graphic></p:graphicFrame>`, id, name)
		case "cxnSp":
			fmt.Fprintf(&sb, `<p:cxnSp><p:nvCxnSpPr><p:cNvPr id="%d" name="%s"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr><p:spPr/></p:cxnSp>`, id, name)
		case "grpSp":
			fmt.Fprintf(&sb, `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="%s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:grpSp>`, id, name)
		default:
			fmt.Fprintf(&sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/>`, id, name)
			if !s.NoTxBody {
				sb.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
				for _, para := range s.Paragraphs {
					sb.WriteString(`<a:p>`)
					for _, run := range para {
						if run == "\v" {
							sb.WriteString(`<a:br/>`)
							continue
						}
						sb.WriteString(`<a:r><a:rPr lang="en-US"/><a:t>`)
						xml.EscapeText(&sb, []byte(run))
						sb.WriteString(`</a:t></a:r>`)
					}
					sb.WriteString(`<a:endParaRPr lang="en-US"/></a:p>`)
				}
				sb.WriteString(`</p:txBody>`)
			}
			sb.WriteString(`</p:sp>`)
		}
	}
	sb.WriteString(`</p:spTree>`)
	return sb.String()
}
