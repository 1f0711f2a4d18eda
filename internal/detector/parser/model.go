// Package parser 演示文稿 (PresentationML) 读取
// 只暴露关键词检测需要的对象模型: 幻灯片、母版、版式、形状及其文本
package parser

// Shape 幻灯片或版式上的一个形状
// Text 的第二个返回值表示该形状是否承载文本，图片、表格框、连接线、组合等返回 false
type Shape interface {
	Name() string
	Text() (string, bool)
}

// TextShape 对应 p:sp，总是承载文本（可能为空）
type TextShape struct {
	name string
	text string
}

// NewTextShape 创建文本形状，测试和替身实现使用
func NewTextShape(name, text string) *TextShape {
	return &TextShape{name: name, text: text}
}

func (s *TextShape) Name() string { return s.name }

func (s *TextShape) Text() (string, bool) { return s.text, true }

// GraphicShape 不承载文本的形状
type GraphicShape struct {
	name string
}

// NewGraphicShape 创建无文本形状
func NewGraphicShape(name string) *GraphicShape {
	return &GraphicShape{name: name}
}

func (s *GraphicShape) Name() string { return s.name }

func (s *GraphicShape) Text() (string, bool) { return "", false }

// Slide 普通幻灯片
type Slide struct {
	Number int    // 从 1 开始
	Part   string // 包内部件名，如 ppt/slides/slide3.xml
	Shapes []Shape
}

// Layout 母版下的版式
type Layout struct {
	Number int // 在所属母版内从 1 开始
	Name   string
	Part   string
	Shapes []Shape
}

// Master 幻灯片母版
type Master struct {
	Number  int // 从 1 开始
	Layouts []Layout
}

// Document 关键词检测依赖的最小文档接口
// *Presentation 实现该接口，测试中可以用内存替身代替
type Document interface {
	Slides() ([]Slide, error)
	Masters() ([]Master, error)
}
