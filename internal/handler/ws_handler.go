package handler

import (
	"net/http"

	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/realtime"
)

// WSHandler はWebSocket接続のHTTPハンドラー。
type WSHandler struct {
	hub *realtime.Hub
}

// NewWSHandler はWSHandlerを生成する。
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve は認証済みステークホルダーのWebSocket接続をハブに登録する。
// GET /ws?email=...
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	h.hub.ServeWS(w, r, stakeholder.ID)
}
