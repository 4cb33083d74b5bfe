package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/model"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	// Append はメッセージをスレッドに追記する。
	Append(ctx context.Context, senderID, donationID, payload, iv string) (*model.ChatMessage, error)
	// MarkRead は相手からの未読メッセージを既読にする。
	MarkRead(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error)
	// MarkDelivered は相手からの未配信メッセージを配信済みにする。
	MarkDelivered(ctx context.Context, donationID, recipientID string) ([]*model.ChatMessage, error)
	// ListSince は指定時刻以降の当事者メッセージを表示名解決済みで返す。
	ListSince(ctx context.Context, stakeholderID string, since time.Time) ([]*model.ChatMessageView, error)
}

// ChatHandler は暗号化チャットのHTTPハンドラー。
// ペイロードはクライアント側で暗号化済みの文字列として扱い、サーバーは復号しない。
type ChatHandler struct {
	service ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface) *ChatHandler {
	return &ChatHandler{service: service}
}

// appendChatRequest はメッセージ追記リクエストのボディ。
type appendChatRequest struct {
	DonationID string `json:"donationId"`
	Payload    string `json:"payload"`
	IV         string `json:"iv"`
}

// chatThreadRequest は既読・配信済み化リクエストのボディ。
type chatThreadRequest struct {
	DonationID string `json:"donationId"`
}

// chatMessageResponse はメッセージのAPIレスポンス。
type chatMessageResponse struct {
	ID          string `json:"id"`
	DonationID  string `json:"donationId"`
	SenderID    string `json:"senderId"`
	Payload     string `json:"payload"`
	IV          string `json:"iv"`
	Icon        string `json:"icon"`
	SentAt      string `json:"sentAt"`
	ReadReceipt bool   `json:"readReceipt"`
	Delivered   bool   `json:"delivered"`
}

// chatMessageViewResponse は表示名解決済みメッセージのAPIレスポンス。
type chatMessageViewResponse struct {
	chatMessageResponse

	SenderName    string `json:"senderName"`
	RecipientID   string `json:"recipientId"`
	RecipientName string `json:"recipientName"`
	IsOutgoing    bool   `json:"isOutgoing"`
}

func toChatMessageResponse(m *model.ChatMessage) chatMessageResponse {
	return chatMessageResponse{
		ID:          m.ID,
		DonationID:  m.DonationID,
		SenderID:    m.SenderID,
		Payload:     m.Payload,
		IV:          m.IV,
		Icon:        m.Icon,
		SentAt:      m.SentAt.Format(time.RFC3339Nano),
		ReadReceipt: m.ReadReceipt,
		Delivered:   m.Delivered,
	}
}

// Append はメッセージをスレッドに追記する。
// POST /api/chat/append
func (h *ChatHandler) Append(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req appendChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	msg, err := h.service.Append(r.Context(), stakeholder.ID, req.DonationID, req.Payload, req.IV)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toChatMessageResponse(msg))
}

// MarkRead はスレッド内の相手メッセージを既読にする。
// POST /api/chat/markRead
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.markThread(w, r, h.service.MarkRead)
}

// MarkDelivered はスレッド内の相手メッセージを配信済みにする。
// POST /api/chat/markDelivered
func (h *ChatHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.markThread(w, r, h.service.MarkDelivered)
}

func (h *ChatHandler) markThread(w http.ResponseWriter, r *http.Request, mark func(ctx context.Context, donationID, stakeholderID string) ([]*model.ChatMessage, error)) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req chatThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := mark(r.Context(), req.DonationID, stakeholder.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]chatMessageResponse, 0, len(updated))
	for _, m := range updated {
		resp = append(resp, toChatMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSince は指定時刻以降のメッセージを返す。
// sinceクエリパラメータはRFC3339。省略時はゼロ時刻（全件）。
// GET /api/chat/listSince?since=...
func (h *ChatHandler) ListSince(w http.ResponseWriter, r *http.Request) {
	stakeholder, err := middleware.StakeholderFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("sinceはRFC3339形式で指定してください"))
			return
		}
	}

	views, err := h.service.ListSince(r.Context(), stakeholder.ID, since)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]chatMessageViewResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, chatMessageViewResponse{
			chatMessageResponse: toChatMessageResponse(&v.ChatMessage),
			SenderName:          v.SenderName,
			RecipientID:         v.RecipientID,
			RecipientName:       v.RecipientName,
			IsOutgoing:          v.IsOutgoing,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
