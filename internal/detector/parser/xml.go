package parser

import (
	"encoding/xml"
	"strings"
)

// ============================================================
// 包关系 (.rels)
// ============================================================

type relationshipsXML struct {
	Items []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// relRef 带 r:id 的引用元素 (sldId, sldMasterId, sldLayoutId)
// 只取关系命名空间下的 id，忽略同名的数值 id 属性；兼容 transitional 与 strict 两种命名空间
type relRef struct {
	RID string
}

func (r *relRef) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Local == "id" && strings.HasSuffix(a.Name.Space, "relationships") {
			r.RID = a.Value
		}
	}
	return d.Skip()
}

// ============================================================
// presentation.xml / slideMaster.xml
// ============================================================

type presentationXML struct {
	Masters []relRef `xml:"sldMasterIdLst>sldMasterId"`
	Slides  []relRef `xml:"sldIdLst>sldId"`
}

type slideMasterXML struct {
	CSld    commonSlideXML `xml:"cSld"`
	Layouts []relRef       `xml:"sldLayoutIdLst>sldLayoutId"`
}

// commonSlideXML 对应 p:cSld，幻灯片、版式、母版共用
type commonSlideXML struct {
	Name   string     `xml:"name,attr"`
	SpTree *shapeTree `xml:"spTree"`
}

type slideXML struct {
	CSld commonSlideXML `xml:"cSld"`
}

// ============================================================
// 形状树
// ============================================================

// shapeTree 按文档顺序收集 p:spTree 的直接子形状
type shapeTree struct {
	Shapes []Shape
}

// 形状元素；nvGrpSpPr、grpSpPr、extLst、mc:AlternateContent 等不计入
var graphicKinds = map[string]bool{
	"grpSp":        true,
	"graphicFrame": true,
	"cxnSp":        true,
	"pic":          true,
	"contentPart":  true,
}

func (t *shapeTree) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "sp":
				var sp spXML
				if err := d.DecodeElement(&sp, &el); err != nil {
					return err
				}
				t.Shapes = append(t.Shapes, &TextShape{name: sp.NvSpPr.CNvPr.Name, text: sp.text()})
			case graphicKinds[el.Name.Local]:
				var nv nonVisualXML
				if err := d.DecodeElement(&nv, &el); err != nil {
					return err
				}
				t.Shapes = append(t.Shapes, &GraphicShape{name: nv.name()})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type cNvPrXML struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type spXML struct {
	NvSpPr struct {
		CNvPr cNvPrXML `xml:"cNvPr"`
	} `xml:"nvSpPr"`
	TxBody *txBodyXML `xml:"txBody"`
}

// nonVisualXML 只读取非文本形状的名称
type nonVisualXML struct {
	Pic          *nvXML `xml:"nvPicPr"`
	GraphicFrame *nvXML `xml:"nvGraphicFramePr"`
	Connector    *nvXML `xml:"nvCxnSpPr"`
	Group        *nvXML `xml:"nvGrpSpPr"`
	ContentPart  *nvXML `xml:"nvContentPartPr"`
}

type nvXML struct {
	CNvPr cNvPrXML `xml:"cNvPr"`
}

func (n *nonVisualXML) name() string {
	for _, nv := range []*nvXML{n.Pic, n.GraphicFrame, n.Connector, n.Group, n.ContentPart} {
		if nv != nil {
			return nv.CNvPr.Name
		}
	}
	return ""
}

// ============================================================
// 文本
// ============================================================

type txBodyXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

type paragraphXML struct {
	Content []textRunXML `xml:",any"`
}

// textRunXML a:r、a:fld 携带 a:t，a:br 为换行
type textRunXML struct {
	XMLName xml.Name
	T       string `xml:"t"`
}

func (p paragraphXML) text() string {
	var sb strings.Builder
	for _, c := range p.Content {
		switch c.XMLName.Local {
		case "r", "fld":
			sb.WriteString(c.T)
		case "br":
			sb.WriteByte('\v')
		}
	}
	return sb.String()
}

// text 段落之间用换行连接；没有 txBody 的形状文本为空
func (s *spXML) text() string {
	if s.TxBody == nil {
		return ""
	}
	parts := make([]string, len(s.TxBody.Paragraphs))
	for i, p := range s.TxBody.Paragraphs {
		parts[i] = p.text()
	}
	return strings.Join(parts, "\n")
}
