package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/model"
)

// DonationServiceInterface は寄付ハンドラーが必要とするサービスインターフェース。
type DonationServiceInterface interface {
	// Get は寄付を取得する。当事者以外は拒否される。
	Get(ctx context.Context, stakeholderID, donationID string) (*model.Donation, error)
	// Create は寄付をpending状態で作成する。
	Create(ctx context.Context, donorID, charityID string) (*model.Donation, error)
	// UpdateStatus は寄付の状態を遷移させる。
	UpdateStatus(ctx context.Context, stakeholderID, donationID string, status model.DonationStatus) (*model.Donation, error)
	// PendingCount は慈善団体宛の承認待ち件数を返す。
	PendingCount(ctx context.Context, stakeholderID string) (int, error)
}

// DonationHandler は寄付のHTTPハンドラー。
type DonationHandler struct {
	service DonationServiceInterface
}

// NewDonationHandler はDonationHandlerを生成する。
func NewDonationHandler(service DonationServiceInterface) *DonationHandler {
	return &DonationHandler{service: service}
}

// createDonationRequest は寄付作成リクエストのボディ。
type createDonationRequest struct {
	CharityID string `json:"charityId"`
}

// updateDonationStatusRequest は状態遷移リクエストのボディ。
type updateDonationStatusRequest struct {
	Status string `json:"status"`
}

// donationResponse は寄付のAPIレスポンス。
type donationResponse struct {
	ID        string `json:"id"`
	DonorID   string `json:"donorId"`
	CharityID string `json:"charityId"`
	Status    string `json:"status"`
}

func toDonationResponse(d *model.Donation) donationResponse {
	return donationResponse{
		ID:        d.ID,
		DonorID:   d.DonorID,
		CharityID: d.CharityID,
		Status:    string(d.Status),
	}
}

// Get は寄付を取得する。
// GET /api/donations/{id}
func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	donationID := chi.URLParam(r, "id")
	d, err := h.service.Get(r.Context(), stakeholder.ID, donationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDonationResponse(d))
}

// Create は寄付を作成する。
// POST /api/donations
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	d, err := h.service.Create(r.Context(), stakeholder.ID, req.CharityID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDonationResponse(d))
}

// UpdateStatus は寄付の承認・却下を処理する。
// PATCH /api/donations/{id}/status
func (h *DonationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateDonationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	donationID := chi.URLParam(r, "id")
	d, err := h.service.UpdateStatus(r.Context(), stakeholder.ID, donationID, model.DonationStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDonationResponse(d))
}

// PendingCount は承認待ち寄付数を返す。
// GET /api/donations/pending-count
func (h *DonationHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	count, err := h.service.PendingCount(r.Context(), stakeholder.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
