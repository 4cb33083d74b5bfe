// Package digest はダイジェストメールの定期送信ポーラーを提供する。
package digest

import (
	"sync"
	"time"
)

// Category はダイジェストメールの種別。クールダウンは種別ごとに独立する。
type Category string

const (
	// CategoryPending は慈善団体向けの承認待ちダイジェスト。
	CategoryPending Category = "pending"
	// CategoryApproved は当事者向けのチャット開通ダイジェスト。
	CategoryApproved Category = "approved"
)

type ledgerKey struct {
	donationID string
	category   Category
}

// Ledger は(寄付, 種別)ごとの最終通知時刻を保持する。
// 未通知の寄付はクールダウンに関係なく次のサイクルで通知対象になる。
// プロセス内メモリに載り、再起動でリセットされる。
// 再起動直後の重複送信はクールダウンの設計上許容する。
type Ledger struct {
	mu   sync.Mutex
	sent map[ledgerKey]time.Time
	now  func() time.Time
}

// NewLedger は空の送信台帳を生成する。
func NewLedger() *Ledger {
	return &Ledger{
		sent: make(map[ledgerKey]time.Time),
		now:  time.Now,
	}
}

// LastSent は寄付の最終通知時刻を返す。未通知の場合はゼロ値とfalseを返す。
func (l *Ledger) LastSent(donationID string, category Category) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.sent[ledgerKey{donationID, category}]
	return t, ok
}

// Stamp は寄付の最終通知時刻を現在時刻で記録する。
// 送信が成功した後にだけ呼ぶこと。失敗時に刻むと再送の機会を失う。
func (l *Ledger) Stamp(donationID string, category Category) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent[ledgerKey{donationID, category}] = l.now()
}

// Due は寄付のクールダウンが明けているかどうかを返す。未通知なら常にtrue。
func (l *Ledger) Due(donationID string, category Category, cooldown time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.sent[ledgerKey{donationID, category}]
	if !ok {
		return true
	}
	return l.now().Sub(last) >= cooldown
}
