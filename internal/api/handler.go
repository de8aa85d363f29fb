package api

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"designlookup/internal/lookup"
	workspace "designlookup/internal/service/store"
	"designlookup/internal/store"
)

const (
	sessionName     = "designlookup"
	sessionKeyID    = "workspace"
	contextKeyWS    = "workspace"
	defaultMaxBytes = 32 << 20
)

// Options 处理器依赖
type Options struct {
	Engine     *lookup.Engine
	Workspaces *workspace.MemoryStore
	Logs       *store.Store // 可为 nil，此时不记录活动日志
	Cookies    sessions.Store
	ExportDir  string
	MaxUpload  int64 // 上传大小上限（字节）
}

// Handler API 处理器
type Handler struct {
	engine     *lookup.Engine
	workspaces *workspace.MemoryStore
	logs       *store.Store
	cookies    sessions.Store
	exportDir  string
	maxUpload  int64
	downloads  *exportDownloadStore
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	if opts.Engine == nil {
		opts.Engine = lookup.NewEngine(lookup.Options{})
	}
	if opts.Workspaces == nil {
		opts.Workspaces = workspace.NewMemoryStore(0)
	}
	if opts.ExportDir == "" {
		opts.ExportDir = os.TempDir()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = defaultMaxBytes
	}
	return &Handler{
		engine:     opts.Engine,
		workspaces: opts.Workspaces,
		logs:       opts.Logs,
		cookies:    opts.Cookies,
		exportDir:  opts.ExportDir,
		maxUpload:  opts.MaxUpload,
		downloads:  newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.Use(h.withWorkspace)

	// 会话状态与统计
	router.GET("/status", h.GetStatus)
	router.DELETE("/session", h.ResetSession)

	// 上传设计表 / 纱线表
	router.POST("/upload/:kind", h.Upload)

	// 查询
	router.POST("/search", h.Search)

	// 导出
	router.POST("/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}

// withWorkspace 从 cookie 取出会话 id，找不到时新建会话并写回 cookie
func (h *Handler) withWorkspace(c *gin.Context) {
	var (
		sess *sessions.Session
		id   string
	)
	if h.cookies != nil {
		s, err := h.cookies.Get(c.Request, sessionName)
		if err != nil {
			// cookie 签名无效（例如密钥变更）时得到的是新会话，继续使用
			log.Printf("[Session] 读取会话失败: %v", err)
		}
		sess = s
		if v, ok := sess.Values[sessionKeyID].(string); ok {
			id = v
		}
	}

	ws := h.workspaces.GetOrCreate(id)
	if sess != nil && ws.ID != id {
		sess.Values[sessionKeyID] = ws.ID
		if err := sess.Save(c.Request, c.Writer); err != nil {
			log.Printf("[Session] 保存会话失败: %v", err)
		}
	}

	c.Set(contextKeyWS, ws)
	c.Next()
}

func currentWorkspace(c *gin.Context) *workspace.Workspace {
	v, ok := c.Get(contextKeyWS)
	if !ok {
		return nil
	}
	ws, _ := v.(*workspace.Workspace)
	return ws
}

func errorJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// ResetSession 丢弃当前会话的数据和活动记录
// DELETE /api/session
func (h *Handler) ResetSession(c *gin.Context) {
	ws := currentWorkspace(c)
	h.workspaces.Delete(ws.ID)
	if h.logs != nil {
		if err := h.logs.DeleteSession(ws.ID); err != nil {
			log.Printf("[Session] 删除活动记录失败: %v", err)
		}
	}

	if h.cookies != nil {
		if sess, err := h.cookies.Get(c.Request, sessionName); err == nil {
			sess.Options.MaxAge = -1
			_ = sess.Save(c.Request, c.Writer)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
