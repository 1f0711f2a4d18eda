package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"pptKeywordDetector/internal/detector/format"
	scanerr "pptKeywordDetector/internal/errors"
)

const (
	relTypeOfficeDocument = "/officeDocument"
	defaultMainPart       = "ppt/presentation.xml"

	// 单个部件解压后的上限，防止压缩炸弹
	maxPartSize = 64 << 20
)

// Presentation 已打开的演示文稿
// 文件内容整体读入内存，幻灯片和母版在访问时才解析
type Presentation struct {
	name     string
	parts    map[string]*zip.File
	mainPart string
	rels     map[string]relationshipXML
	doc      presentationXML
}

// Open 从文件系统读取并打开演示文稿
func Open(fsys billy.Filesystem, name string) (*Presentation, error) {
	data, err := util.ReadFile(fsys, name)
	if err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrFileReadFailed, "failed to read file").WithFile(name)
	}
	return Parse(name, data)
}

// Parse 从内存中的文件内容打开演示文稿
func Parse(name string, data []byte) (*Presentation, error) {
	switch kind := format.Identify(data); kind {
	case format.KindEmpty:
		return nil, scanerr.FileFormatError(name, "file is empty")
	case format.KindLegacyBinary:
		return nil, scanerr.FileFormatError(name, "legacy binary PowerPoint (.ppt) format is not supported, convert it to .pptx")
	case format.KindUnknown:
		if mime := format.MIME(data); mime != "" {
			return nil, scanerr.FileFormatError(name, "file is not a PowerPoint package (detected "+mime+")")
		}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrFileFormat, "file is not a zip package").WithFile(name)
	}

	p := &Presentation{
		name:  name,
		parts: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		p.parts[strings.TrimPrefix(f.Name, "/")] = f
	}

	p.mainPart, err = p.findMainPart()
	if err != nil {
		return nil, err
	}

	if err := p.decodePart(p.mainPart, &p.doc); err != nil {
		return nil, err
	}

	p.rels, err = p.relationships(p.mainPart)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Slides 按文档顺序解析全部幻灯片
func (p *Presentation) Slides() ([]Slide, error) {
	slides := make([]Slide, 0, len(p.doc.Slides))

	for i, ref := range p.doc.Slides {
		part, err := p.resolve(p.mainPart, p.rels, ref.RID)
		if err != nil {
			return slides, err
		}

		var sx slideXML
		if err := p.decodePart(part, &sx); err != nil {
			return slides, err
		}

		slides = append(slides, Slide{
			Number: i + 1,
			Part:   part,
			Shapes: shapesOf(sx.CSld),
		})
	}

	return slides, nil
}

// Masters 按文档顺序解析母版及其版式
// 出错时返回已经解析完成的部分，最后一个母版可能只包含部分版式
func (p *Presentation) Masters() ([]Master, error) {
	masters := make([]Master, 0, len(p.doc.Masters))

	for i, ref := range p.doc.Masters {
		part, err := p.resolve(p.mainPart, p.rels, ref.RID)
		if err != nil {
			return masters, err
		}

		var mx slideMasterXML
		if err := p.decodePart(part, &mx); err != nil {
			return masters, err
		}

		master := Master{Number: i + 1}

		masterRels, err := p.relationships(part)
		if err != nil {
			return masters, err
		}

		for j, lref := range mx.Layouts {
			lpart, err := p.resolve(part, masterRels, lref.RID)
			if err != nil {
				return append(masters, master), err
			}

			var lx slideXML
			if err := p.decodePart(lpart, &lx); err != nil {
				return append(masters, master), err
			}

			master.Layouts = append(master.Layouts, Layout{
				Number: j + 1,
				Name:   lx.CSld.Name,
				Part:   lpart,
				Shapes: shapesOf(lx.CSld),
			})
		}

		masters = append(masters, master)
	}

	return masters, nil
}

func shapesOf(c commonSlideXML) []Shape {
	if c.SpTree == nil {
		return nil
	}
	return c.SpTree.Shapes
}

// findMainPart 通过 _rels/.rels 找到主文档部件
func (p *Presentation) findMainPart() (string, error) {
	if _, ok := p.parts["_rels/.rels"]; ok {
		var rels relationshipsXML
		if err := p.decodePart("_rels/.rels", &rels); err != nil {
			return "", err
		}
		for _, r := range rels.Items {
			if strings.HasSuffix(r.Type, relTypeOfficeDocument) {
				target := resolveTarget("", r.Target)
				if _, ok := p.parts[target]; !ok {
					return "", scanerr.PartMissingError(target).WithFile(p.name)
				}
				if !strings.HasPrefix(target, "ppt/") {
					return "", scanerr.FileFormatError(p.name, fmt.Sprintf("file is not a PowerPoint package, main part is %s", target))
				}
				return target, nil
			}
		}
	}

	if _, ok := p.parts[defaultMainPart]; ok {
		return defaultMainPart, nil
	}
	return "", scanerr.FileFormatError(p.name, "file is not a PowerPoint package, missing "+defaultMainPart)
}

// relationships 读取部件的关系文件，关系文件不存在时返回空表
func (p *Presentation) relationships(part string) (map[string]relationshipXML, error) {
	relsPart := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")

	out := make(map[string]relationshipXML)
	if _, ok := p.parts[relsPart]; !ok {
		return out, nil
	}

	var rels relationshipsXML
	if err := p.decodePart(relsPart, &rels); err != nil {
		return nil, err
	}
	for _, r := range rels.Items {
		out[r.ID] = r
	}
	return out, nil
}

// resolve 将 r:id 解析为包内部件路径
func (p *Presentation) resolve(source string, rels map[string]relationshipXML, rid string) (string, error) {
	rel, ok := rels[rid]
	if !ok {
		return "", scanerr.Newf(scanerr.ErrPartMissing, "relationship %q not found for %s", rid, source).WithFile(p.name)
	}
	if strings.EqualFold(rel.TargetMode, "External") {
		return "", scanerr.Newf(scanerr.ErrParsingFailed, "relationship %q of %s is external", rid, source).WithFile(p.name)
	}

	target := resolveTarget(path.Dir(source), rel.Target)
	if _, ok := p.parts[target]; !ok {
		return "", scanerr.PartMissingError(target).WithFile(p.name)
	}
	return target, nil
}

// resolveTarget 关系目标相对于源部件所在目录，以 "/" 开头时为包内绝对路径
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Clean(path.Join(baseDir, target)), "/")
}

// decodePart 解压并解析一个 XML 部件
func (p *Presentation) decodePart(part string, v any) error {
	f, ok := p.parts[part]
	if !ok {
		return scanerr.PartMissingError(part).WithFile(p.name)
	}

	rc, err := f.Open()
	if err != nil {
		return scanerr.ParsingError(part, err).WithFile(p.name)
	}
	defer rc.Close()

	lr := &io.LimitedReader{R: rc, N: maxPartSize + 1}
	if err := xml.NewDecoder(lr).Decode(v); err != nil {
		return scanerr.ParsingError(part, err).WithFile(p.name)
	}
	if lr.N <= 0 {
		return scanerr.Newf(scanerr.ErrParsingFailed, "part %s exceeds %d bytes", part, maxPartSize).WithFile(p.name)
	}
	return nil
}
