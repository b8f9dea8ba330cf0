package domain

// ResourceEntry 是某个 bundle 贡献的一个文件。
//
// Name 同时是去重键与 zip 条目名；SourcePath 是交给 Fetch 的不透明定位符。
type ResourceEntry struct {
	Name       string
	SourcePath string
}

// ResourceSet 是按名称去重、保持插入顺序的 ResourceEntry 集合。
//
// 约束：同一个 Name 至多一条；Entries 的顺序就是 zip 中资源条目的顺序，必须可复现。
// 零值不可用，请使用 NewResourceSet。
type ResourceSet struct {
	entries []ResourceEntry
	byName  map[string]int
}

func NewResourceSet() *ResourceSet {
	return &ResourceSet{byName: make(map[string]int)}
}

// Has 只按 Name 判断成员关系。
func (s *ResourceSet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Add 追加一条；Name 已存在时不做任何修改并返回 false。
func (s *ResourceSet) Add(e ResourceEntry) bool {
	if s.Has(e.Name) {
		return false
	}
	s.byName[e.Name] = len(s.entries)
	s.entries = append(s.entries, e)
	return true
}

func (s *ResourceSet) Len() int { return len(s.entries) }

// Entries 返回插入顺序的副本（调用方修改不影响集合本身）。
func (s *ResourceSet) Entries() []ResourceEntry {
	return append([]ResourceEntry(nil), s.entries...)
}

// ContentItem 是取回内容后的资源（Loader 产出、Builder 消费）。
type ContentItem struct {
	Name    string
	Content []byte
}
