// Package keyword 形状文本的关键词匹配
package keyword

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pptKeywordDetector/internal/detector/parser"
	"pptKeywordDetector/internal/model"
)

// ExcerptLength 命中记录中保留的原文字符数
const ExcerptLength = 100

// Matcher 关键词匹配器
// 关键词在创建时统一转为小写，匹配时每个形状只做一次小写转换
type Matcher struct {
	keywords []string
	lowered  []string
}

// NewMatcher 创建匹配器，关键词顺序即结果中的顺序
func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{
		keywords: append([]string(nil), keywords...),
		lowered:  make([]string, len(keywords)),
	}
	for i, kw := range keywords {
		m.lowered[i] = lower(kw)
	}
	return m
}

// Keywords 返回关键词列表的副本
func (m *Matcher) Keywords() []string {
	return append([]string(nil), m.keywords...)
}

// Match 在一段文本中查找关键词
// 返回命中的关键词（按列表顺序）及各关键词非重叠出现次数之和；空白文本直接返回
func (m *Matcher) Match(text string) (found []string, count int) {
	if strings.TrimSpace(text) == "" {
		return nil, 0
	}

	lt := lower(text)
	for i, kw := range m.lowered {
		// 空关键词在任何文本中都“出现”，与子串语义一致但没有意义，直接跳过
		if kw == "" {
			continue
		}
		if n := strings.Count(lt, kw); n > 0 {
			found = append(found, m.keywords[i])
			count += n
		}
	}
	return found, count
}

// MatchShape 检测单个形状，无文本或未命中时返回 false
func (m *Matcher) MatchShape(shape parser.Shape, location string, shapeIndex int, master bool) (model.Match, bool) {
	text, ok := shape.Text()
	if !ok {
		return model.Match{}, false
	}

	found, count := m.Match(text)
	if len(found) == 0 {
		return model.Match{}, false
	}

	return model.Match{
		Location:   location,
		ShapeIndex: shapeIndex,
		ShapeName:  shape.Name(),
		Excerpt:    Excerpt(text, ExcerptLength),
		Keywords:   found,
		Count:      count,
		IsMaster:   master,
	}, true
}

// ScanSlides 按文档顺序检测所有普通幻灯片
func (m *Matcher) ScanSlides(slides []parser.Slide) []model.Match {
	var out []model.Match
	for _, slide := range slides {
		loc := strconv.Itoa(slide.Number)
		for i, shape := range slide.Shapes {
			if match, ok := m.MatchShape(shape, loc, i, false); ok {
				match.SlideNumber = slide.Number
				match.Part = slide.Part
				out = append(out, match)
			}
		}
	}
	return out
}

// ScanMasters 按文档顺序检测母版下所有版式
func (m *Matcher) ScanMasters(masters []parser.Master) []model.Match {
	var out []model.Match
	for _, master := range masters {
		for _, layout := range master.Layouts {
			loc := MasterLocation(master.Number, layout.Number)
			for i, shape := range layout.Shapes {
				if match, ok := m.MatchShape(shape, loc, i, true); ok {
					match.LayoutName = layout.Name
					match.Part = layout.Part
					out = append(out, match)
				}
			}
		}
	}
	return out
}

// MasterLocation 母版命中的位置描述
func MasterLocation(group, layout int) string {
	return fmt.Sprintf("Master Group %d, Layout %d", group, layout)
}

// Excerpt 截取前 n 个字符（按 rune 计），不追加省略号
func Excerpt(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// lower 完整 Unicode 小写映射
// cases.Caser 不是并发安全的，每次调用创建新的实例
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
