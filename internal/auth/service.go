// Package auth はステークホルダーの登録・ログインと、
// メールアドレスからの識別解決（認証コラボレータ）を提供する。
package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// Service はステークホルダーの認証サービス。
// ログイン済みユーザーはプロセスローカルなレジストリに保持する
// （永続化しない。再起動で再ログインが必要になる）。
type Service struct {
	stakeholderRepo repository.StakeholderRepository

	mu       sync.RWMutex
	loggedIn map[string]*model.Stakeholder // key: email
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(stakeholderRepo repository.StakeholderRepository) *Service {
	return &Service{
		stakeholderRepo: stakeholderRepo,
		loggedIn:        make(map[string]*model.Stakeholder),
	}
}

// RegisterInput は登録リクエストの入力。
type RegisterInput struct {
	AccountType string
	Name        string
	Email       string
	Region      string
	Password    string
	Capacity    *int // 慈善団体のみ必須（0以上）
}

// Register は新しいステークホルダーを登録する。
// IDはロールプレフィックス＋連番で採番される。
// 慈善団体はcapacity（0以上）が必須。それ以外は番兵値-1を格納する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Stakeholder, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, model.NewValidationError("name、email、passwordは必須です")
	}

	prefix := model.RolePrefix(in.AccountType)
	if prefix == "" {
		return nil, model.NewInvalidAccountTypeError(in.AccountType)
	}

	existing, err := s.stakeholderRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewEmailExistsError()
	}

	capacity := model.CapacityNone
	if prefix == "c" {
		if in.Capacity == nil || *in.Capacity < 0 {
			return nil, model.NewCapacityRequiredError()
		}
		capacity = *in.Capacity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id, err := s.stakeholderRepo.NextIDForPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	stakeholder := &model.Stakeholder{
		ID:           id,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Region:       in.Region,
		Capacity:     capacity,
	}
	if err := s.stakeholderRepo.Create(ctx, stakeholder); err != nil {
		return nil, err
	}

	return stakeholder, nil
}

// Login はメールアドレスとパスワードを検証し、成功時に
// ログイン済みレジストリへ登録してステークホルダーを返す。
// 存在しないメールとパスワード不一致は同じエラーを返す（存在の漏洩防止）。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Stakeholder, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("emailとpasswordは必須です")
	}

	stakeholder, err := s.stakeholderRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if stakeholder == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stakeholder.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	s.mu.Lock()
	s.loggedIn[email] = stakeholder
	s.mu.Unlock()

	return stakeholder, nil
}

// Logout はログイン済みレジストリからメールアドレスを取り除く。冪等。
func (s *Service) Logout(email string) {
	s.mu.Lock()
	delete(s.loggedIn, email)
	s.mu.Unlock()
}

// Resolve はメールアドレスをログイン済みステークホルダーに解決する。
// 未ログインの場合はnilを返す。コアの各エンドポイントはストアに触れる前に
// この解決を必ず通す。
func (s *Service) Resolve(ctx context.Context, email string) (*model.Stakeholder, error) {
	s.mu.RLock()
	stakeholder := s.loggedIn[email]
	s.mu.RUnlock()
	return stakeholder, nil
}
