package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/hitoshi/foodsave/internal/bulkimport"
	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/model"
)

// BulkImportServiceInterface は一括アップロードハンドラーが必要とするサービスインターフェース。
type BulkImportServiceInterface interface {
	// Import はExcelファイルを解析し全行検証のうえ一括保存する。
	Import(ctx context.Context, stakeholderID, filename string, r io.Reader) (*bulkimport.Result, error)
}

// BulkUploadHandler はExcel一括アップロードのHTTPハンドラー。
type BulkUploadHandler struct {
	service  BulkImportServiceInterface
	maxBytes int64
}

// NewBulkUploadHandler はBulkUploadHandlerを生成する。
// maxBytesが0以下の場合は10MiBを上限とする。
func NewBulkUploadHandler(service BulkImportServiceInterface, maxBytes int64) *BulkUploadHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &BulkUploadHandler{service: service, maxBytes: maxBytes}
}

// Upload はmultipartの"file"フィールドを受け取り一括登録する。
// POST /api/bulkupload
func (h *BulkUploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("multipartフォームの解析に失敗しました"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("fileフィールドは必須です"))
		return
	}
	defer file.Close()

	result, err := h.service.Import(r.Context(), stakeholder.ID, header.Filename, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"count": result.Count})
}
