package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"designlookup/internal/model"
	"designlookup/internal/service/excel"
	"designlookup/internal/store"
)

// 上传预览行数
const previewRows = 5

// UploadResponse 上传响应
type UploadResponse struct {
	Kind    model.DatasetKind `json:"kind"`
	FileID  string            `json:"fileId"`
	Dataset model.DatasetInfo `json:"dataset"`
	Preview []model.Record    `json:"preview"`
}

// Upload 上传设计表或纱线表，解析并规范化后整体替换会话中的同类数据
// POST /api/upload/:kind
func (h *Handler) Upload(c *gin.Context) {
	kind, ok := model.ParseDatasetKind(c.Param("kind"))
	if !ok {
		errorJSON(c, http.StatusBadRequest, "未知的数据类型")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorJSON(c, http.StatusRequestEntityTooLarge, "文件过大")
			return
		}
		errorJSON(c, http.StatusBadRequest, "未找到上传文件")
		return
	}

	ws := currentWorkspace(c)
	parser := excel.NewParser()

	file, err := fileHeader.Open()
	if err != nil {
		h.recordUpload(ws.ID, parser.GetFileID(), kind, fileHeader.Filename, nil, err)
		errorJSON(c, http.StatusBadRequest, "读取文件失败: "+err.Error())
		return
	}
	defer file.Close()

	raw, err := parser.Parse(fileHeader.Filename, file)
	if err != nil {
		// 解析失败不影响已保存的数据集
		h.recordUpload(ws.ID, parser.GetFileID(), kind, fileHeader.Filename, nil, err)
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	ds := h.engine.Normalize(raw)
	ws.SetDataset(kind, ds)
	h.recordUpload(ws.ID, parser.GetFileID(), kind, fileHeader.Filename, ds, nil)

	preview := ds.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	c.JSON(http.StatusOK, UploadResponse{
		Kind:    kind,
		FileID:  parser.GetFileID(),
		Dataset: ds.Info(),
		Preview: preview,
	})
}

func (h *Handler) recordUpload(sessionID, fileID string, kind model.DatasetKind, filename string, ds *model.Dataset, uploadErr error) {
	if h.logs == nil {
		return
	}

	entry := store.UploadLog{
		SessionID: sessionID,
		FileID:    fileID,
		Kind:      string(kind),
		Filename:  filename,
		Status:    store.UploadStatusOK,
	}
	if uploadErr != nil {
		entry.Status = store.UploadStatusFailed
		entry.ErrorMessage = uploadErr.Error()
	}
	if ds != nil {
		entry.RowCount = ds.Len()
		entry.ColumnCount = len(ds.Columns)
		entry.HasKey = ds.HasKey()
	}

	if _, err := h.logs.RecordUpload(entry); err != nil {
		log.Printf("[Upload] 写入上传记录失败: %v", err)
	}
}
