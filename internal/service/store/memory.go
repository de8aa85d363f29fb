package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"designlookup/internal/model"
)

// DefaultWorkspaceTTL 会话空闲多久后回收
const DefaultWorkspaceTTL = 12 * time.Hour

// Workspace 单个用户会话持有的数据：设计表、纱线表和最近一次查询结果
// 上传只做整体替换，不做局部修改
type Workspace struct {
	ID string

	designs    *model.Dataset
	yarns      *model.Dataset
	designsAt  time.Time
	yarnsAt    time.Time
	lastResult *model.SearchResult
	searches   int
	generation uint64 // 每次替换数据集加一

	mu sync.RWMutex
}

// SetDataset 替换指定类型的数据集，同时作废上一次查询结果
func (w *Workspace) SetDataset(kind model.DatasetKind, ds *model.Dataset) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch kind {
	case model.KindDesigns:
		w.designs = ds
		w.designsAt = time.Now()
	case model.KindYarns:
		w.yarns = ds
		w.yarnsAt = time.Now()
	default:
		return
	}
	w.generation++
	w.lastResult = nil
}

// Datasets 返回当前的两个数据集（可能为 nil）以及数据集版本号
// 版本号交给 SetLastResult，用来识别查询期间发生的上传
func (w *Workspace) Datasets() (designs, yarns *model.Dataset, generation uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.designs, w.yarns, w.generation
}

// SetLastResult 记录最近一次查询结果，供导出使用
// generation 与当前版本不一致时说明数据集已被替换，结果不保存并返回 false
func (w *Workspace) SetLastResult(result *model.SearchResult, generation uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.searches++
	if generation != w.generation {
		return false
	}
	w.lastResult = result
	return true
}

// LastResult 最近一次查询结果
func (w *Workspace) LastResult() *model.SearchResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastResult
}

// WorkspaceInfo 会话概况
type WorkspaceInfo struct {
	ID         string              `json:"id"`
	Designs    *model.DatasetInfo  `json:"designs,omitempty"`
	Yarns      *model.DatasetInfo  `json:"yarns,omitempty"`
	Searches   int                 `json:"searches"`
	LastResult *model.ResultCounts `json:"lastResult,omitempty"`
	LastQuery  string              `json:"lastQuery,omitempty"`
}

// Info 生成会话概况
func (w *Workspace) Info() WorkspaceInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	info := WorkspaceInfo{ID: w.ID, Searches: w.searches}
	if w.designs != nil {
		d := w.designs.Info()
		d.Uploaded = w.designsAt.Format(time.RFC3339)
		info.Designs = &d
	}
	if w.yarns != nil {
		y := w.yarns.Info()
		y.Uploaded = w.yarnsAt.Format(time.RFC3339)
		info.Yarns = &y
	}
	if w.lastResult != nil {
		counts := w.lastResult.Counts()
		info.LastResult = &counts
		info.LastQuery = w.lastResult.Query
	}
	return info
}

type workspaceEntry struct {
	ws       *Workspace
	lastSeen time.Time
}

// MemoryStore 内存会话存储
type MemoryStore struct {
	workspaces map[string]*workspaceEntry
	ttl        time.Duration
	now        func() time.Time
	mu         sync.RWMutex
}

// NewMemoryStore 创建内存存储，ttl <= 0 时使用默认值
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultWorkspaceTTL
	}
	return &MemoryStore{
		workspaces: make(map[string]*workspaceEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

// GetOrCreate 获取会话，不存在时新建；id 为空时生成新 id
func (s *MemoryStore) GetOrCreate(id string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	if e, ok := s.workspaces[id]; ok && id != "" {
		e.lastSeen = now
		return e.ws
	}
	if id == "" {
		id = uuid.New().String()
	}
	ws := &Workspace{ID: id}
	s.workspaces[id] = &workspaceEntry{ws: ws, lastSeen: now}
	return ws
}

// Delete 删除会话
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, id)
}

// Count 获取会话数量
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// Clear 清空所有会话
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces = make(map[string]*workspaceEntry)
}

func (s *MemoryStore) purgeExpiredLocked(now time.Time) {
	for id, e := range s.workspaces {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.workspaces, id)
		}
	}
}
