package server

import (
	"crypto/rand"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"designlookup/internal/api"
	"designlookup/internal/config"
	"designlookup/internal/lookup"
	workspace "designlookup/internal/service/store"
	"designlookup/internal/store"
)

//go:embed all:dist
var staticFiles embed.FS

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	store      *store.Store
	workspaces *workspace.MemoryStore
	api        *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	// 活动日志
	logStore, err := store.New(filepath.Join(dataDir, "designlookup.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	engine := lookup.NewEngine(lookup.Options{
		SuggestionLimit: cfg.Lookup.SuggestionLimit,
		MissingKey:      lookup.ParseMissingKeyPolicy(cfg.Lookup.MissingKey),
	})

	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
	workspaces := workspace.NewMemoryStore(ttl)
	handler := api.NewHandler(api.Options{
		Engine:     engine,
		Workspaces: workspaces,
		Logs:       logStore,
		Cookies:    newCookieStore(cfg.Session.Secret, ttl),
		ExportDir:  filepath.Join(dataDir, "exports"),
		MaxUpload:  cfg.Server.MaxUploadMB << 20,
	})

	s := &Server{
		router:     gin.Default(),
		store:      logStore,
		workspaces: workspaces,
		api:        handler,
	}

	s.setupRoutes(cfg)

	return s, nil
}

func newCookieStore(secret string, ttl time.Duration) *sessions.CookieStore {
	key := []byte(secret)
	if len(key) == 0 {
		// 未配置密钥时每次启动随机生成，重启后旧会话失效
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Printf("[Session] 生成会话密钥失败: %v", err)
		}
	}

	cookies := sessions.NewCookieStore(key)
	cookies.MaxAge(int(ttl.Seconds()))
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.SameSite = http.SameSiteLaxMode
	return cookies
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(cfg *config.AppConfig) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := s.router.Group("/api")
	if cfg.Server.RateLimit > 0 {
		group.Use(newClientLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst).middleware)
	}
	s.api.RegisterRoutes(group)

	// 静态资源
	if cfg.Server.DevMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}

	// 生产模式：使用embed的静态资源
	sub, _ := fs.Sub(staticFiles, "dist")

	assetsSub, _ := fs.Sub(sub, "assets")
	s.router.StaticFS("/assets", http.FS(assetsSub))

	s.router.GET("/favicon.svg", func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "favicon.svg")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", data)
	})

	index := func(c *gin.Context) {
		data, _ := fs.ReadFile(sub, "index.html")
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
	s.router.GET("/", index)
	s.router.NoRoute(index)
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 丢弃内存中的会话并关闭活动日志数据库
func (s *Server) Close() error {
	s.workspaces.Clear()
	return s.store.Close()
}
