package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"designlookup/internal/lookup"
	workspace "designlookup/internal/service/store"
	"designlookup/internal/store"
)

// StatusResponse 会话状态与统计
type StatusResponse struct {
	Session        workspace.WorkspaceInfo `json:"session"`
	Ready          bool                    `json:"ready"` // 至少上传了一个数据集
	Lookup         lookup.Options          `json:"lookup"`
	Activity       *store.Summary          `json:"activity,omitempty"`
	RecentSearches []store.SearchLog       `json:"recentSearches,omitempty"`
	RecentUploads  []store.UploadLog       `json:"recentUploads,omitempty"`
}

// GetStatus 获取会话状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ws := currentWorkspace(c)
	info := ws.Info()

	resp := StatusResponse{
		Session: info,
		Ready:   info.Designs != nil || info.Yarns != nil,
		Lookup:  h.engine.Options(),
	}

	if h.logs != nil {
		if sum, err := h.logs.Summary(ws.ID); err == nil {
			resp.Activity = &sum
		} else {
			log.Printf("[Status] 统计失败: %v", err)
		}
		if searches, err := h.logs.ListSearches(ws.ID, 10); err == nil {
			resp.RecentSearches = searches
		}
		if uploads, err := h.logs.ListUploads(ws.ID, 10); err == nil {
			resp.RecentUploads = uploads
		}
	}

	c.JSON(http.StatusOK, resp)
}
