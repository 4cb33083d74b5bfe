package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/notification"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	// ListNotifiable は通知フィードを返す。maxDaysが0以下の場合は既定のウィンドウを使う。
	ListNotifiable(ctx context.Context, stakeholderID string, maxDays int) ([]*notification.Notification, error)
	// ListInventory は全アイテムの期限注釈付き一覧を返す。
	ListInventory(ctx context.Context, stakeholderID string) ([]*notification.InventoryItem, error)
	// MarkRead は通知を既読にする。
	MarkRead(ctx context.Context, stakeholderID, itemID string) error
	// MarkDeleted は通知をフィードから外す。
	MarkDeleted(ctx context.Context, stakeholderID, itemID string) error
}

// NotificationHandler は通知フィードのHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// notificationResponse は通知フィード1件のAPIレスポンス。
type notificationResponse struct {
	ItemID     string `json:"itemId"`
	ItemLabel  string `json:"itemLabel"`
	ExpiryDate string `json:"expiryDate"`
	DiffDays   int    `json:"diffDays"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Read       bool   `json:"read"`
}

// inventoryItemResponse は在庫一覧1件のAPIレスポンス。
type inventoryItemResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ExpiryDate     string `json:"expiryDate"`
	Quantity       int    `json:"quantity"`
	Category       string `json:"category"`
	MeasurePerUnit string `json:"measurePerUnit"`
	Unit           string `json:"unit"`
	DiffDays       int    `json:"diffDays"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

// List は通知フィードを返す。
// GET /api/notifications?days=N
// daysを省略するか不正な値を渡した場合は設定済みのウィンドウを使う。
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	maxDays := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			maxDays = parsed
		}
	}

	notifications, err := h.service.ListNotifiable(r.Context(), stakeholder.ID, maxDays)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, notificationResponse{
			ItemID:     n.ItemID,
			ItemLabel:  n.ItemLabel,
			ExpiryDate: n.ExpiryDate.Format(time.RFC3339),
			DiffDays:   n.DiffDays,
			Status:     string(n.Status),
			Message:    n.Message,
			Read:       n.Read,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListInventory は全アイテムの期限注釈付き一覧を返す。
// GET /api/notifications/inventory
func (h *NotificationHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	items, err := h.service.ListInventory(r.Context(), stakeholder.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]inventoryItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, inventoryItemResponse{
			ID:             it.Item.ID,
			Name:           it.Item.Name,
			ExpiryDate:     it.Item.ExpiryDate.Format(time.RFC3339),
			Quantity:       it.Item.Quantity,
			Category:       it.Item.Category,
			MeasurePerUnit: it.Item.MeasurePerUnit,
			Unit:           it.Item.Unit,
			DiffDays:       it.Classification.DiffDays,
			Status:         string(it.Classification.Status),
			Message:        it.Classification.Message,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkRead は通知を既読にする。
// PUT /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	itemID := chi.URLParam(r, "id")
	if err := h.service.MarkRead(r.Context(), stakeholder.ID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// MarkDeleted は通知をフィードから外す。アイテム行は残る。
// PUT /api/notifications/{id}/delete
func (h *NotificationHandler) MarkDeleted(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	itemID := chi.URLParam(r, "id")
	if err := h.service.MarkDeleted(r.Context(), stakeholder.ID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
