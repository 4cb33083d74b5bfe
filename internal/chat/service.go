package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// Emitter はリアルタイム更新の通知先。配信の成否はチャット操作に影響しない。
type Emitter interface {
	Emit(event string, payload any)
}

// Service はチャットメッセージの追記・配達確認・一覧取得を提供する。
type Service struct {
	chatRepo        repository.ChatMessageRepository
	donationRepo    repository.DonationRepository
	stakeholderRepo repository.StakeholderRepository
	emitter         Emitter
	now             func() time.Time
	logger          *slog.Logger
}

// NewService はチャットサービスを生成する。emitterはnil可。
func NewService(
	chatRepo repository.ChatMessageRepository,
	donationRepo repository.DonationRepository,
	stakeholderRepo repository.StakeholderRepository,
	emitter Emitter,
	logger *slog.Logger,
) *Service {
	return &Service{
		chatRepo:        chatRepo,
		donationRepo:    donationRepo,
		stakeholderRepo: stakeholderRepo,
		emitter:         emitter,
		now:             time.Now,
		logger:          logger,
	}
}

// requireParticipant は寄付の存在と当事者性を検証して寄付を返す。
func (s *Service) requireParticipant(ctx context.Context, donationID, stakeholderID string) (*model.Donation, error) {
	donation, err := s.donationRepo.FindByID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("寄付の取得に失敗しました: %w", err)
	}
	if donation == nil {
		return nil, model.NewDonationNotFoundError(donationID)
	}
	if !donation.Involves(stakeholderID) {
		return nil, model.NewForbiddenError("この寄付の当事者ではありません")
	}
	return donation, nil
}

// Append はメッセージをスレッドに追記する。
// タイムスタンプはサーバー側で採番し、クライアントの申告値は使わない。
func (s *Service) Append(ctx context.Context, senderID, donationID, payload, iv string) (*model.ChatMessage, error) {
	if donationID == "" || senderID == "" {
		return nil, model.NewValidationError("donationIdとsenderIdは必須です")
	}
	if payload == "" || iv == "" {
		return nil, model.NewValidationError("payloadとivは必須です")
	}
	if _, err := s.requireParticipant(ctx, donationID, senderID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ID:         uuid.New().String(),
		DonationID: donationID,
		SenderID:   senderID,
		Payload:    payload,
		IV:         iv,
		Icon:       IconFor(donationID),
		SentAt:     s.now(),
	}
	if err := s.chatRepo.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("メッセージの保存に失敗しました: %w", err)
	}

	s.emit("chat:message", map[string]any{
		"donationId": donationID,
		"senderId":   senderID,
		"messageId":  msg.ID,
	})
	return msg, nil
}

// MarkRead は相手からのメッセージをすべて既読にし、更新後の行を返す。
// 自分が送信した行には触れない。
func (s *Service) MarkRead(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error) {
	if _, err := s.requireParticipant(ctx, donationID, readerID); err != nil {
		return nil, err
	}
	updated, err := s.chatRepo.MarkRead(ctx, donationID, readerID)
	if err != nil {
		return nil, fmt.Errorf("既読化に失敗しました: %w", err)
	}
	if len(updated) > 0 {
		s.emit("chat:read", map[string]any{
			"donationId": donationID,
			"readerId":   readerID,
		})
	}
	return updated, nil
}

// MarkDelivered は相手からのメッセージをすべて配達済みにし、更新後の行を返す。
func (s *Service) MarkDelivered(ctx context.Context, donationID, recipientID string) ([]*model.ChatMessage, error) {
	if _, err := s.requireParticipant(ctx, donationID, recipientID); err != nil {
		return nil, err
	}
	updated, err := s.chatRepo.MarkDelivered(ctx, donationID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("配達済み化に失敗しました: %w", err)
	}
	if len(updated) > 0 {
		s.emit("chat:delivered", map[string]any{
			"donationId":  donationID,
			"recipientId": recipientID,
		})
	}
	return updated, nil
}

// ListSince は自分が当事者である寄付のsince以降のメッセージを、
// 送信時刻昇順（同時刻はID昇順）で表示名解決済みの形で返す。
func (s *Service) ListSince(ctx context.Context, stakeholderID string, since time.Time) ([]*model.ChatMessageView, error) {
	rows, err := s.chatRepo.ListForParticipantSince(ctx, stakeholderID, since)
	if err != nil {
		return nil, fmt.Errorf("メッセージ一覧の取得に失敗しました: %w", err)
	}

	idSet := make(map[string]bool)
	for _, row := range rows {
		idSet[row.SenderID] = true
		idSet[row.DonorID] = true
		idSet[row.CharityID] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	names := map[string]string{}
	if len(ids) > 0 {
		names, err = s.stakeholderRepo.NamesByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("表示名の解決に失敗しました: %w", err)
		}
	}

	views := make([]*model.ChatMessageView, 0, len(rows))
	for _, row := range rows {
		recipientID := row.DonorID
		if row.SenderID == row.DonorID {
			recipientID = row.CharityID
		}
		views = append(views, &model.ChatMessageView{
			ChatMessage:   row.ChatMessage,
			SenderName:    names[row.SenderID],
			RecipientID:   recipientID,
			RecipientName: names[recipientID],
			IsOutgoing:    row.SenderID == stakeholderID,
		})
	}
	return views, nil
}

func (s *Service) emit(event string, payload any) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(event, payload)
}
