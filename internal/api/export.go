package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"designlookup/internal/service/excel"
)

const (
	exportTTL       = 10 * time.Minute
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var reUnsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Export 将最近一次查询结果导出为 Excel，返回一次性下载地址
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	ws := currentWorkspace(c)
	result := ws.LastResult()
	if result == nil {
		errorJSON(c, http.StatusConflict, "请先查询")
		return
	}

	file, err := excel.NewExporter().Export(result)
	if err != nil {
		if errors.Is(err, excel.ErrNothingToExport) {
			errorJSON(c, http.StatusConflict, "没有可导出的数据")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "导出失败: "+err.Error())
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.exportDir, 0755); err != nil {
		errorJSON(c, http.StatusInternalServerError, "写入导出文件失败: "+err.Error())
		return
	}
	tempPath := filepath.Join(h.exportDir, fmt.Sprintf("designlookup_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := file.SaveAs(tempPath); err != nil {
		removeQuietly(tempPath)
		errorJSON(c, http.StatusInternalServerError, "写入导出文件失败: "+err.Error())
		return
	}

	token := h.downloads.put(tempPath, result.Query, exportTTL)
	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": "/api/export/download/" + token,
		"expiresIn":   int(exportTTL.Seconds()),
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		errorJSON(c, http.StatusBadRequest, "缺少 token")
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		errorJSON(c, http.StatusNotFound, "下载链接已失效")
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		errorJSON(c, http.StatusNotFound, "导出文件不存在")
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.query))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	removeQuietly(item.filePath)
}

// buildExportContentDisposition ASCII 文件名加 RFC 5987 的 UTF-8 文件名
func buildExportContentDisposition(query string) string {
	base := "design-lookup"
	if q := strings.Trim(reUnsafeFilename.ReplaceAllString(query, "_"), "_"); q != "" {
		base += "-" + q
	}
	utf8Name := "design-lookup"
	if q := strings.TrimSpace(query); q != "" {
		utf8Name += "-" + q
	}
	return fmt.Sprintf("attachment; filename=\"%s.xlsx\"; filename*=UTF-8''%s.xlsx", base, url.PathEscape(utf8Name))
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
