// Package auth はユーザー登録・ログイン・JWTトークン管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/jurnal/internal/model"
	"github.com/hitoshi/jurnal/internal/repository"
)

// SignupInput はユーザー登録リクエストの入力。
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput はログインリクエストの入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service は認証サービス。パスワードハッシュにはbcryptを使用する。
type Service struct {
	users  repository.UserRepository
	tokens *TokenManager
	logger *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository, tokens *TokenManager, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Signup は新規ユーザーを登録し、アクセストークンを発行する。
// メールアドレスが既に存在する場合はUSER_EXISTSエラーを返す。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*model.User, string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:             uuid.New().String(),
		Email:          input.Email,
		Username:       input.Username,
		HashedPassword: string(hashed),
		IsActive:       true,
		JournalMedium:  model.MediumWeb,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", model.NewUserExistsError()
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("ユーザーを登録しました", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// ユーザー不在とパスワード不一致は同じINVALID_CREDENTIALSエラーに丸める。
func (s *Service) Login(ctx context.Context, input LoginInput) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.HashedPassword == "" {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.Password)); err != nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("ユーザーがログインしました", slog.String("user_id", user.ID))
	return user, token, nil
}

// CurrentUser はトークン検証済みのユーザーIDからユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// GetOrCreateByEmail はメールアドレスでユーザーを検索し、存在しない場合は
// パスワードなしのNotionユーザーとして自動作成する。OAuth連携フローで使用する。
// 戻り値のexistingは既存ユーザーだった場合にtrue。
func (s *Service) GetOrCreateByEmail(ctx context.Context, email string) (*model.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil {
		return user, true, nil
	}

	now := time.Now()
	user = &model.User{
		ID:            uuid.New().String(),
		Email:         email,
		IsActive:      true,
		JournalMedium: model.MediumNotion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 同時リクエストで先に作成された場合は再検索で拾う
		if errors.Is(err, repository.ErrDuplicateEmail) {
			user, ferr := s.users.FindByEmail(ctx, email)
			if ferr != nil || user == nil {
				return nil, false, fmt.Errorf("failed to find user after duplicate: %w", ferr)
			}
			return user, true, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Notion連携ユーザーを作成しました", slog.String("user_id", user.ID))
	return user, false, nil
}

// IssueToken は指定ユーザーのアクセストークンを発行する。
func (s *Service) IssueToken(userID string) (string, error) {
	return s.tokens.Issue(userID)
}

// VerifyToken はアクセストークンを検証し、ユーザーIDを返す。
func (s *Service) VerifyToken(tokenString string) (string, error) {
	return s.tokens.Verify(tokenString)
}
