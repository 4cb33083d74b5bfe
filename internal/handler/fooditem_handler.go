package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodsave/internal/fooditem"
	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/model"
)

// FoodItemServiceInterface は食品アイテムハンドラーが必要とするサービスインターフェース。
type FoodItemServiceInterface interface {
	// List はステークホルダーの全アイテムを返す。
	List(ctx context.Context, stakeholderID string) ([]*model.FoodItem, error)
	// Create はアイテムを作成する。
	Create(ctx context.Context, stakeholderID string, in fooditem.Input) (*model.FoodItem, error)
	// Update は所有アイテムを更新する。
	Update(ctx context.Context, stakeholderID, itemID string, in fooditem.Input) (*model.FoodItem, error)
	// Delete は所有アイテムを削除する。
	Delete(ctx context.Context, stakeholderID, itemID string) error
}

// FoodItemHandler は食品アイテムCRUDのHTTPハンドラー。
type FoodItemHandler struct {
	service FoodItemServiceInterface
}

// NewFoodItemHandler はFoodItemHandlerを生成する。
func NewFoodItemHandler(service FoodItemServiceInterface) *FoodItemHandler {
	return &FoodItemHandler{service: service}
}

// foodItemRequest はアイテム作成・更新リクエストのボディ。
type foodItemRequest struct {
	Name           string `json:"name"`
	ExpiryDate     string `json:"expiryDate"`
	Quantity       int    `json:"quantity"`
	Category       string `json:"category"`
	DonationID     string `json:"donationId"`
	MeasurePerUnit string `json:"measurePerUnit"`
	Unit           string `json:"unit"`
}

// foodItemResponse はアイテムのAPIレスポンス。
type foodItemResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ExpiryDate     string `json:"expiryDate"`
	Quantity       int    `json:"quantity"`
	Category       string `json:"category"`
	DonationID     string `json:"donationId"`
	MeasurePerUnit string `json:"measurePerUnit"`
	Unit           string `json:"unit"`
}

func (req foodItemRequest) toInput() (fooditem.Input, error) {
	var expiry time.Time
	if req.ExpiryDate != "" {
		var err error
		expiry, err = time.Parse(time.RFC3339, req.ExpiryDate)
		if err != nil {
			expiry, err = time.Parse("2006-01-02", req.ExpiryDate)
			if err != nil {
				return fooditem.Input{}, model.NewValidationError("expiryDateの形式が不正です")
			}
		}
	}
	return fooditem.Input{
		Name:           req.Name,
		ExpiryDate:     expiry,
		Quantity:       req.Quantity,
		Category:       req.Category,
		DonationID:     req.DonationID,
		MeasurePerUnit: req.MeasurePerUnit,
		Unit:           req.Unit,
	}, nil
}

func toFoodItemResponse(item *model.FoodItem) foodItemResponse {
	return foodItemResponse{
		ID:             item.ID,
		Name:           item.Name,
		ExpiryDate:     item.ExpiryDate.Format(time.RFC3339),
		Quantity:       item.Quantity,
		Category:       item.Category,
		DonationID:     item.DonationID,
		MeasurePerUnit: item.MeasurePerUnit,
		Unit:           item.Unit,
	}
}

// List はステークホルダーの全アイテムを返す。
// GET /api/fooditems
func (h *FoodItemHandler) List(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	items, err := h.service.List(r.Context(), stakeholder.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]foodItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toFoodItemResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はアイテムを作成する。
// POST /api/fooditems
func (h *FoodItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req foodItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	in, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	item, err := h.service.Create(r.Context(), stakeholder.ID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFoodItemResponse(item))
}

// Update は所有アイテムを更新する。
// PUT /api/fooditems/{id}
func (h *FoodItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req foodItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	in, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	itemID := chi.URLParam(r, "id")
	item, err := h.service.Update(r.Context(), stakeholder.ID, itemID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFoodItemResponse(item))
}

// Delete は所有アイテムを削除する。
// DELETE /api/fooditems/{id}
func (h *FoodItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	itemID := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), stakeholder.ID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
