// Package approval は承認済み寄付へのチャットシード投入ポーラーを提供する。
// 短い間隔（デフォルト5秒）で承認済み寄付を走査し、
// 両当事者にシード行が存在する状態を冪等に維持する。
package approval

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// ChatSeeder はシード投入の実行インターフェース。
type ChatSeeder interface {
	// EnsureSeeded は寄付の両当事者にシード行を1件ずつ保証する。
	EnsureSeeded(ctx context.Context, d *model.Donation) ([]*model.ChatMessage, error)
}

// CycleRecorder はシードサイクルのメトリクス記録インターフェース。
type CycleRecorder interface {
	RecordSeedCycleSuccess()
	RecordSeedCycleFailure()
	RecordSeedsInserted(count int)
}

// Poller は承認済み寄付を走査してシード投入を行うポーラー。
// 1件の失敗が他の寄付の処理を妨げず、サイクルの失敗でポーラーは止まらない。
type Poller struct {
	donationRepo repository.DonationRepository
	seeder       ChatSeeder
	logger       *slog.Logger

	// Metrics は任意のメトリクス記録先。nilの場合は記録しない。
	Metrics CycleRecorder
}

// NewPoller はPollerの新しいインスタンスを生成する。
func NewPoller(donationRepo repository.DonationRepository, seeder ChatSeeder, logger *slog.Logger) *Poller {
	return &Poller{
		donationRepo: donationRepo,
		seeder:       seeder,
		logger:       logger,
	}
}

// Start は指定間隔のティッカーでポーラーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("承認ポーラーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := p.RunOnce(ctx); err != nil {
		p.logger.Error("シードサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("承認ポーラーを停止しました")
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error("シードサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は承認済み寄付を1回走査してシード投入を実行する。
// 個別の寄付の失敗はログに記録して次の寄付に進む。
func (p *Poller) RunOnce(ctx context.Context) error {
	start := time.Now()

	donations, err := p.donationRepo.ListByStatus(ctx, model.DonationStatusApproved)
	if err != nil {
		if p.Metrics != nil {
			p.Metrics.RecordSeedCycleFailure()
		}
		return err
	}

	var insertedTotal int
	for _, donation := range donations {
		inserted, err := p.seeder.EnsureSeeded(ctx, donation)
		// 片側だけ投入できた場合もerrと一緒に返るため、先に数える
		insertedTotal += len(inserted)
		if err != nil {
			p.logger.Error("寄付へのシード投入に失敗しました",
				slog.String("donation_id", donation.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if p.Metrics != nil {
		p.Metrics.RecordSeedCycleSuccess()
		if insertedTotal > 0 {
			p.Metrics.RecordSeedsInserted(insertedTotal)
		}
	}

	if insertedTotal > 0 {
		duration := time.Since(start)
		p.logger.Info("シードサイクルが完了しました",
			slog.Int("donation_count", len(donations)),
			slog.Int("inserted_count", insertedTotal),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
	}
	return nil
}
