// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, donation, chat, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	ErrCodeFoodItemNotFound     = "FOOD_ITEM_NOT_FOUND"
	ErrCodeDonationNotFound     = "DONATION_NOT_FOUND"
	ErrCodeStakeholderNotFound  = "STAKEHOLDER_NOT_FOUND"
	ErrCodeEmailExists          = "EMAIL_EXISTS"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeCapacityRequired     = "CAPACITY_REQUIRED"
	ErrCodeInvalidAccountType   = "INVALID_ACCOUNT_TYPE"
	ErrCodeBulkImportFailed     = "BULK_IMPORT_FAILED"
	ErrCodeStorageError         = "STORAGE_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力が不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作を行う権限がありません: %s", reason),
		Category: "auth",
		Action:   "自分が当事者であるリソースのみ操作できます。",
	}
}

// NewNotificationNotFoundError は通知未検出エラーを生成する。
// 所有者不一致と存在しないIDは意図的に区別しない。
func NewNotificationNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotificationNotFound,
		Message:  fmt.Sprintf("指定された通知が見つかりません: %s", itemID),
		Category: "validation",
		Action:   "通知IDを確認してください。",
	}
}

// NewNotificationDeleteNotFoundError は通知削除時の未検出エラーを生成する。
// markReadの未検出とはメッセージを分ける（認可上の振る舞いは同一）。
func NewNotificationDeleteNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotificationNotFound,
		Message:  fmt.Sprintf("削除対象の通知が見つかりません: %s", itemID),
		Category: "validation",
		Action:   "通知IDを確認してください。",
	}
}

// NewFoodItemNotFoundError は食品アイテム未検出エラーを生成する。
func NewFoodItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeFoodItemNotFound,
		Message:  fmt.Sprintf("指定された食品アイテムが見つかりません: %s", itemID),
		Category: "validation",
		Action:   "アイテムIDを確認してください。",
	}
}

// NewDonationNotFoundError は寄付未検出エラーを生成する。
func NewDonationNotFoundError(donationID string) *APIError {
	return &APIError{
		Code:     ErrCodeDonationNotFound,
		Message:  fmt.Sprintf("指定された寄付が見つかりません: %s", donationID),
		Category: "donation",
		Action:   "寄付IDを確認してください。",
	}
}

// NewStakeholderNotFoundError はステークホルダー未検出エラーを生成する。
func NewStakeholderNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeStakeholderNotFound,
		Message:  "ステークホルダーが見つかりません。",
		Category: "auth",
		Action:   "メールアドレスを確認してください。",
	}
}

// NewEmailExistsError はメールアドレス重複エラーを生成する。
func NewEmailExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailExists,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewCapacityRequiredError は慈善団体のcapacity未指定エラーを生成する。
func NewCapacityRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeCapacityRequired,
		Message:  "慈善団体の登録には受け入れ能力（capacity）の指定が必要です。",
		Category: "validation",
		Action:   "0以上のcapacityを指定してください。",
	}
}

// NewInvalidAccountTypeError はアカウント種別不正エラーを生成する。
func NewInvalidAccountTypeError(accountType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAccountType,
		Message:  fmt.Sprintf("無効なアカウント種別です: %s", accountType),
		Category: "validation",
		Action:   "household、business、charityのいずれかを指定してください。",
	}
}

// NewBulkImportError は一括取込の行検証エラーを生成する。
func NewBulkImportError(details []string) *APIError {
	return &APIError{
		Code:     ErrCodeBulkImportFailed,
		Message:  fmt.Sprintf("一括取込の検証に失敗しました（%d件のエラー）。", len(details)),
		Category: "validation",
		Action:   "エラー行を修正して再アップロードしてください。",
	}
}
