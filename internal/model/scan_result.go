package model

// Match 单个形状上的关键词命中记录
type Match struct {
	// Location 普通幻灯片为幻灯片编号，母版为 "Master Group N, Layout M"
	Location    string   `json:"location"`
	SlideNumber int      `json:"slide_number,omitempty"` // 母版命中时为 0
	ShapeIndex  int      `json:"shape_index"`
	ShapeName   string   `json:"shape_name,omitempty"`
	LayoutName  string   `json:"layout_name,omitempty"` // 仅母版命中
	Part        string   `json:"part,omitempty"`        // 所在的包内部件
	Excerpt     string   `json:"excerpt"`  // 形状文本的前 100 个字符
	Keywords    []string `json:"keywords"` // 按关键词列表顺序，不重复
	Count       int      `json:"count"`    // 各关键词出现次数之和
	IsMaster    bool     `json:"is_master"`
}

// FileResult 单个文件的扫描结果，创建后不再修改
type FileResult struct {
	Path     string   `json:"path"`
	Success  bool     `json:"success"`
	Matches  []Match  `json:"matches"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// DetectionCount 报告中的检测数
// 失败的文件恒为 0
func (r FileResult) DetectionCount() int {
	if !r.Success {
		return 0
	}
	return len(r.Matches)
}

// HasDetections 是否有命中
func (r FileResult) HasDetections() bool {
	return len(r.Matches) > 0
}

// TotalOccurrences 所有命中记录的出现次数之和
func (r FileResult) TotalOccurrences() int {
	n := 0
	for _, m := range r.Matches {
		n += m.Count
	}
	return n
}

// Succeeded 构造成功结果
func Succeeded(path string, matches []Match, warnings []string) FileResult {
	if matches == nil {
		matches = []Match{}
	}
	return FileResult{
		Path:     path,
		Success:  true,
		Matches:  matches,
		Warnings: warnings,
	}
}

// Failed 构造失败结果，不携带任何命中记录
func Failed(path string, errMsg string) FileResult {
	return FileResult{
		Path:    path,
		Success: false,
		Matches: []Match{},
		Error:   errMsg,
	}
}
