package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/foodsave/internal/auth"
	"github.com/hitoshi/foodsave/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新しいステークホルダーを登録する。
	Register(ctx context.Context, in auth.RegisterInput) (*model.Stakeholder, error)
	// Login は認証情報を検証しログイン状態にする。
	Login(ctx context.Context, email, password string) (*model.Stakeholder, error)
	// Logout はログイン状態を解除する。
	Logout(email string)
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest は登録リクエストのボディ。
type registerRequest struct {
	AccountType string `json:"accountType"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Region      string `json:"region"`
	Password    string `json:"password"`
	Capacity    *int   `json:"capacity"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// stakeholderResponse はステークホルダー情報のAPIレスポンス。
// パスワードハッシュは含めない。
type stakeholderResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Region   string `json:"region"`
	Capacity int    `json:"capacity"`
}

func toStakeholderResponse(s *model.Stakeholder) stakeholderResponse {
	return stakeholderResponse{
		ID:       s.ID,
		Name:     s.Name,
		Email:    s.Email,
		Region:   s.Region,
		Capacity: s.Capacity,
	}
}

// Register はステークホルダー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	s, err := h.service.Register(r.Context(), auth.RegisterInput{
		AccountType: req.AccountType,
		Name:        req.Name,
		Email:       req.Email,
		Region:      req.Region,
		Password:    req.Password,
		Capacity:    req.Capacity,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStakeholderResponse(s))
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	s, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStakeholderResponse(s))
}

// Logout はログアウトを処理する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	h.service.Logout(req.Email)
	w.WriteHeader(http.StatusNoContent)
}
