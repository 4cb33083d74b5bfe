package model

import "time"

// DonationStatus は寄付のライフサイクル状態を表す。
type DonationStatus string

const (
	// DonationStatusPending は慈善団体の承認待ち状態。
	DonationStatusPending DonationStatus = "pending"
	// DonationStatusApproved は承認済み状態。チャットシードとメール通知のトリガー。
	DonationStatusApproved DonationStatus = "approved"
	// DonationStatusRejected は却下された終端状態。状態遷移の起点にはならない。
	DonationStatusRejected DonationStatus = "rejected"
)

// Donation はドナーから慈善団体への食品譲渡の提案を表す。
type Donation struct {
	ID        string
	DonorID   string
	CharityID string
	Status    DonationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Participants は寄付の両当事者（ドナー、慈善団体）のIDを返す。
func (d *Donation) Participants() (donorID, charityID string) {
	return d.DonorID, d.CharityID
}

// Involves は指定ステークホルダーが寄付の当事者かどうかを返す。
func (d *Donation) Involves(stakeholderID string) bool {
	return d.DonorID == stakeholderID || d.CharityID == stakeholderID
}
