package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/model"
)

// withStakeholder は認証済みステークホルダーをリクエストコンテキストに注入する。
func withStakeholder(r *http.Request, id string) *http.Request {
	s := &model.Stakeholder{ID: id, Name: "Tester", Email: id + "@example.com", Capacity: model.CapacityNone}
	return r.WithContext(middleware.ContextWithStakeholder(r.Context(), s))
}

// withURLParam はchiのURLパラメータをリクエストコンテキストに注入する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorBody はエラーレスポンスのボディを解析する。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var body apiErrorResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{model.ErrCodeValidationFailed, http.StatusBadRequest},
		{model.ErrCodeCapacityRequired, http.StatusBadRequest},
		{model.ErrCodeInvalidAccountType, http.StatusBadRequest},
		{model.ErrCodeBulkImportFailed, http.StatusBadRequest},
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{model.ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{model.ErrCodeForbidden, http.StatusForbidden},
		{model.ErrCodeNotificationNotFound, http.StatusNotFound},
		{model.ErrCodeFoodItemNotFound, http.StatusNotFound},
		{model.ErrCodeDonationNotFound, http.StatusNotFound},
		{model.ErrCodeEmailExists, http.StatusConflict},
		{model.ErrCodeStorageError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tc.code})
		if got != tc.want {
			t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestHandleServiceError_APIError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, model.NewDonationNotFoundError("d1"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	body := decodeErrorBody(t, w)
	if body.Code != model.ErrCodeDonationNotFound {
		t.Errorf("code = %s, want DONATION_NOT_FOUND", body.Code)
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	wrapped := errors.Join(model.NewForbiddenError("当事者ではありません"))
	w := httptest.NewRecorder()
	handleServiceError(w, wrapped)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestHandleServiceError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.New("connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	body := decodeErrorBody(t, w)
	if body.Code != model.ErrCodeStorageError {
		t.Errorf("code = %s, want STORAGE_ERROR", body.Code)
	}
}
