// Package chat は寄付スレッドのメッセージ追記・配達・シード投入を提供する。
// サーバーは本文を復号しない。payloadとIVは受け取ったまま保存する。
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// Seeder は承認済み寄付の両当事者にシード行（空payload）を投入する。
// シード行があることでクライアントはスレッド一覧に寄付を表示できる。
type Seeder struct {
	chatRepo repository.ChatMessageRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewSeeder はシーダーを生成する。
func NewSeeder(chatRepo repository.ChatMessageRepository, logger *slog.Logger) *Seeder {
	return &Seeder{
		chatRepo: chatRepo,
		now:      time.Now,
		logger:   logger,
	}
}

// EnsureSeeded は寄付の両当事者それぞれにシード行を1件だけ保証する。
// 既存の送信者はスキップし、片方の失敗がもう片方の投入を妨げない。
// 挿入済みとの衝突（部分一意制約違反）は成功扱いで、冪等に再実行できる。
// 実際に挿入した行を返す。
func (s *Seeder) EnsureSeeded(ctx context.Context, d *model.Donation) ([]*model.ChatMessage, error) {
	senders, err := s.chatRepo.ListSenders(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("送信者一覧の取得に失敗しました: %w", err)
	}

	seeded := make(map[string]bool, len(senders))
	for _, id := range senders {
		seeded[id] = true
	}

	var inserted []*model.ChatMessage
	var errs []error
	donorID, charityID := d.Participants()
	for _, participantID := range []string{donorID, charityID} {
		if seeded[participantID] {
			continue
		}
		msg := &model.ChatMessage{
			ID:         uuid.New().String(),
			DonationID: d.ID,
			SenderID:   participantID,
			Payload:    "",
			Icon:       IconFor(d.ID),
			SentAt:     s.now(),
		}
		ok, err := s.chatRepo.InsertSeed(ctx, msg)
		if err != nil {
			s.logger.Error("チャットシードの挿入に失敗しました",
				"donation_id", d.ID, "sender_id", participantID, "error", err)
			errs = append(errs, err)
			continue
		}
		if !ok {
			// 並行シードが先行した。冪等なので成功扱い。
			continue
		}
		inserted = append(inserted, msg)
		s.logger.Info("chat seed inserted", "donation_id", d.ID, "sender_id", participantID)
	}
	return inserted, errors.Join(errs...)
}
