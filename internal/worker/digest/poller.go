package digest

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/foodsave/internal/email"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// SendRecorder はダイジェスト送信のメトリクス記録インターフェース。
type SendRecorder interface {
	RecordDigestSent(category string)
	RecordDigestFailure(category string)
}

// Poller は全ステークホルダーを走査してダイジェストメールを送るポーラー。
// 慈善団体には承認待ち一覧、両当事者にはチャット開通一覧を送る。
// 寄付IDごとにクールダウン内の分は除外し、送信成功時にだけ台帳を刻む。
type Poller struct {
	stakeholderRepo  repository.StakeholderRepository
	donationRepo     repository.DonationRepository
	sender           email.Sender
	ledger           *Ledger
	frontendURL      string
	pendingCooldown  time.Duration
	approvedCooldown time.Duration
	logger           *slog.Logger

	// Metrics は任意のメトリクス記録先。nilの場合は記録しない。
	Metrics SendRecorder
}

// NewPoller はPollerの新しいインスタンスを生成する。
// クールダウンが0以下の場合はデフォルト値（pending: 24時間、approved: 1時間）を使う。
func NewPoller(
	stakeholderRepo repository.StakeholderRepository,
	donationRepo repository.DonationRepository,
	sender email.Sender,
	ledger *Ledger,
	frontendURL string,
	pendingCooldown time.Duration,
	approvedCooldown time.Duration,
	logger *slog.Logger,
) *Poller {
	if pendingCooldown <= 0 {
		pendingCooldown = 24 * time.Hour
	}
	if approvedCooldown <= 0 {
		approvedCooldown = time.Hour
	}
	return &Poller{
		stakeholderRepo:  stakeholderRepo,
		donationRepo:     donationRepo,
		sender:           sender,
		ledger:           ledger,
		frontendURL:      frontendURL,
		pendingCooldown:  pendingCooldown,
		approvedCooldown: approvedCooldown,
		logger:           logger,
	}
}

// Start は指定間隔のティッカーでポーラーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("ダイジェストポーラーを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("pending_cooldown", p.pendingCooldown),
		slog.Duration("approved_cooldown", p.approvedCooldown),
	)

	// 起動直後に1回実行
	if err := p.RunOnce(ctx); err != nil {
		p.logger.Error("ダイジェストサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ダイジェストポーラーを停止しました")
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error("ダイジェストサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全ステークホルダーを1回走査してダイジェストを送信する。
// 個別の送信失敗はログに記録して次のステークホルダーに進む。
func (p *Poller) RunOnce(ctx context.Context) error {
	stakeholders, err := p.stakeholderRepo.List(ctx)
	if err != nil {
		return err
	}

	var sentCount int
	for _, s := range stakeholders {
		if s.IsCharity() {
			if p.sendPendingDigest(ctx, s) {
				sentCount++
			}
		}
		if p.sendApprovedDigest(ctx, s) {
			sentCount++
		}
	}

	if sentCount > 0 {
		p.logger.Info("ダイジェストサイクルが完了しました",
			slog.Int("stakeholder_count", len(stakeholders)),
			slog.Int("sent_count", sentCount),
		)
	}
	return nil
}

// sendPendingDigest は慈善団体宛の承認待ちダイジェストを送る。送信した場合trueを返す。
func (p *Poller) sendPendingDigest(ctx context.Context, s *model.Stakeholder) bool {
	donations, err := p.donationRepo.ListByStatusAndCharity(ctx, model.DonationStatusPending, s.ID)
	if err != nil {
		p.logger.Error("承認待ち寄付の取得に失敗しました",
			slog.String("stakeholder_id", s.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	due := p.filterDue(donations, CategoryPending, p.pendingCooldown)
	if len(due) == 0 {
		return false
	}

	body, err := email.ComposePendingDigest(s.Name, due, p.frontendURL)
	if err != nil {
		p.logger.Error("承認待ちダイジェストの生成に失敗しました",
			slog.String("stakeholder_id", s.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return p.deliver(s, CategoryPending, email.SubjectPendingDigest, body, due)
}

// sendApprovedDigest は当事者宛のチャット開通ダイジェストを送る。送信した場合trueを返す。
func (p *Poller) sendApprovedDigest(ctx context.Context, s *model.Stakeholder) bool {
	donations, err := p.donationRepo.ListByStatusAndParticipant(ctx, model.DonationStatusApproved, s.ID)
	if err != nil {
		p.logger.Error("承認済み寄付の取得に失敗しました",
			slog.String("stakeholder_id", s.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	due := p.filterDue(donations, CategoryApproved, p.approvedCooldown)
	if len(due) == 0 {
		return false
	}

	body, err := email.ComposeApprovedDigest(s.Name, due, p.frontendURL)
	if err != nil {
		p.logger.Error("チャット開通ダイジェストの生成に失敗しました",
			slog.String("stakeholder_id", s.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return p.deliver(s, CategoryApproved, email.SubjectApprovedDigest, body, due)
}

// filterDue はクールダウンが明けている寄付だけを残す。
// 台帳に載っていない寄付（未通知）は常に対象になる。
func (p *Poller) filterDue(donations []*model.Donation, category Category, cooldown time.Duration) []*model.Donation {
	var due []*model.Donation
	for _, d := range donations {
		if p.ledger.Due(d.ID, category, cooldown) {
			due = append(due, d)
		}
	}
	return due
}

// deliver はメールを1通送り、成功時にだけ含めた寄付IDを台帳に刻む。
func (p *Poller) deliver(s *model.Stakeholder, category Category, subject, body string, donations []*model.Donation) bool {
	if err := p.sender.Send(s.Email, subject, body); err != nil {
		// 台帳は刻まない。次のサイクルで再送を試みる。
		p.logger.Error("ダイジェストメールの送信に失敗しました",
			slog.String("stakeholder_id", s.ID),
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		if p.Metrics != nil {
			p.Metrics.RecordDigestFailure(string(category))
		}
		return false
	}
	for _, d := range donations {
		p.ledger.Stamp(d.ID, category)
	}
	if p.Metrics != nil {
		p.Metrics.RecordDigestSent(string(category))
	}
	p.logger.Info("digest email sent",
		slog.String("stakeholder_id", s.ID),
		slog.String("category", string(category)),
		slog.Int("donation_count", len(donations)),
	)
	return true
}
