package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"designlookup/internal/lookup"
	"designlookup/internal/model"
	"designlookup/internal/store"
)

// SearchRequest 查询请求
type SearchRequest struct {
	Query string `json:"query" form:"query"`
}

// SearchResponse 查询响应
type SearchResponse struct {
	*model.SearchResult
	Counts model.ResultCounts `json:"counts"`
}

// Search 按设计名称查询
// POST /api/search
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "参数错误")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		errorJSON(c, http.StatusBadRequest, "请输入设计名称")
		return
	}

	ws := currentWorkspace(c)
	designs, yarns, generation := ws.Datasets()

	result, err := h.engine.Search(designs, yarns, req.Query)
	if err != nil {
		if errors.Is(err, lookup.ErrEmptyQuery) {
			errorJSON(c, http.StatusBadRequest, "请输入设计名称")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "查询失败: "+err.Error())
		return
	}

	if !ws.SetLastResult(result, generation) {
		// 查询期间数据集被替换，结果仍返回但不作为导出来源
		log.Printf("[Search] 会话 %s 的数据集在查询期间已更新，结果不保存", ws.ID)
	}
	h.recordSearch(ws.ID, result)

	c.JSON(http.StatusOK, SearchResponse{
		SearchResult: result,
		Counts:       result.Counts(),
	})
}

func (h *Handler) recordSearch(sessionID string, result *model.SearchResult) {
	if h.logs == nil {
		return
	}
	counts := result.Counts()
	_, err := h.logs.RecordSearch(store.SearchLog{
		SessionID:     sessionID,
		Query:         result.Query,
		Kind:          string(result.Kind),
		DesignMatches: counts.DesignMatches,
		YarnMatches:   counts.YarnMatches,
		CombinedRows:  counts.CombinedRows,
		Suggestions:   counts.Suggestions,
	})
	if err != nil {
		log.Printf("[Search] 写入查询记录失败: %v", err)
	}
}
