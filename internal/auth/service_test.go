package auth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/jurnal/internal/model"
	"github.com/hitoshi/jurnal/internal/repository"
)

// mockUserRepo はUserRepositoryのモック実装。
type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
	created       *model.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	m.created = user
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) ListActiveNotionUsers(ctx context.Context) ([]*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) IncrementInactiveCounter(ctx context.Context, userID string) error {
	return nil
}

func (m *mockUserRepo) ResetInactiveCounter(ctx context.Context, userID string) error {
	return nil
}

func (m *mockUserRepo) DeactivateInactive(ctx context.Context, threshold int) (int64, error) {
	return 0, nil
}

func (m *mockUserRepo) UpdateJournalMedium(ctx context.Context, userID string, medium model.JournalMedium) error {
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

func newTestService(repo *mockUserRepo) *Service {
	return NewService(repo, NewTokenManager("test-secret", DefaultTokenTTL), newTestLogger())
}

func TestService_Signup_CreatesUserAndIssuesToken(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	user, token, err := svc.Signup(context.Background(), SignupInput{
		Email:    "new@example.com",
		Username: "newuser",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Signup() がエラーを返した: %v", err)
	}

	if user.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "new@example.com")
	}
	if !user.IsActive {
		t.Error("新規ユーザーはアクティブであるべき")
	}
	if user.JournalMedium != model.MediumWeb {
		t.Errorf("JournalMedium = %q, want %q", user.JournalMedium, model.MediumWeb)
	}
	if user.HashedPassword == "password123" {
		t.Error("パスワードが平文のまま保存されている")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("password123")); err != nil {
		t.Error("保存されたハッシュが元のパスワードと一致しない")
	}
	if token == "" {
		t.Error("アクセストークンが発行されていない")
	}
}

func TestService_Signup_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := newTestService(repo)

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Email:    "taken@example.com",
		Username: "someone",
		Password: "password123",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserExists {
		t.Fatalf("USER_EXISTSエラーを返すべき: %v", err)
	}
}

func TestService_Login_Success(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, HashedPassword: string(hashed)}, nil
		},
	}
	svc := newTestService(repo)

	user, token, err := svc.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login() がエラーを返した: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("ユーザーID = %q, want %q", user.ID, "user-1")
	}

	userID, err := svc.VerifyToken(token)
	if err != nil || userID != "user-1" {
		t.Errorf("発行されたトークンの検証に失敗: %v", err)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, HashedPassword: string(hashed)}, nil
		},
	}
	svc := newTestService(repo)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "wrong-password",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("INVALID_CREDENTIALSエラーを返すべき: %v", err)
	}
}

func TestService_Login_UnknownUser(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	// ユーザー不在もパスワード不一致と同じエラーに丸める
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("INVALID_CREDENTIALSエラーを返すべき: %v", err)
	}
}

func TestService_Login_PasswordlessNotionUser(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, HashedPassword: ""}, nil
		},
	}
	svc := newTestService(repo)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "notion-user@example.com",
		Password: "anything",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("パスワードなしユーザーのログインはINVALID_CREDENTIALSを返すべき: %v", err)
	}
}

func TestService_CurrentUser_NotFound(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	_, err := svc.CurrentUser(context.Background(), "missing-id")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("USER_NOT_FOUNDエラーを返すべき: %v", err)
	}
}

func TestService_GetOrCreateByEmail_ReturnsExistingUser(t *testing.T) {
	existing := &model.User{ID: "user-1", Email: "user@example.com"}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return existing, nil
		},
	}
	svc := newTestService(repo)

	user, wasExisting, err := svc.GetOrCreateByEmail(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail() がエラーを返した: %v", err)
	}
	if !wasExisting {
		t.Error("既存ユーザーの場合はexisting=trueを返すべき")
	}
	if user.ID != "user-1" {
		t.Errorf("ユーザーID = %q, want %q", user.ID, "user-1")
	}
	if repo.created != nil {
		t.Error("既存ユーザーがいる場合は新規作成すべきでない")
	}
}

func TestService_GetOrCreateByEmail_CreatesNotionUser(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	user, wasExisting, err := svc.GetOrCreateByEmail(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail() がエラーを返した: %v", err)
	}
	if wasExisting {
		t.Error("新規作成の場合はexisting=falseを返すべき")
	}
	if user.JournalMedium != model.MediumNotion {
		t.Errorf("JournalMedium = %q, want %q", user.JournalMedium, model.MediumNotion)
	}
	if user.HashedPassword != "" {
		t.Error("OAuth経由のユーザーはパスワードなしで作成されるべき")
	}
	if repo.created == nil {
		t.Error("ユーザーが作成されていない")
	}
}

func TestService_GetOrCreateByEmail_DuplicateRaceRefetches(t *testing.T) {
	raced := &model.User{ID: "user-raced", Email: "race@example.com"}
	calls := 0
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			calls++
			if calls == 1 {
				return nil, nil // 1回目は未存在
			}
			return raced, nil // 重複エラー後の再検索で存在
		},
		createFn: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := newTestService(repo)

	user, wasExisting, err := svc.GetOrCreateByEmail(context.Background(), "race@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail() がエラーを返した: %v", err)
	}
	if !wasExisting {
		t.Error("重複検出後は既存ユーザー扱いになるべき")
	}
	if user.ID != "user-raced" {
		t.Errorf("ユーザーID = %q, want %q", user.ID, "user-raced")
	}
}

// created_atが最新の連携を有効とみなすため、作成時刻のゼロ値はレコードの
// 新旧判定を壊す。登録経路ごとにタイムスタンプが設定されることを確認する。

func TestService_Signup_SetsTimestamps(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	before := time.Now()
	_, _, err := svc.Signup(context.Background(), SignupInput{
		Email:    "user@example.com",
		Username: "someone",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Signup() がエラーを返した: %v", err)
	}

	if repo.created == nil {
		t.Fatal("ユーザーが作成されていない")
	}
	if repo.created.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, ゼロ値ではなく現在時刻が設定されるべき", repo.created.CreatedAt)
	}
	if repo.created.UpdatedAt.Before(before) {
		t.Errorf("UpdatedAt = %v, ゼロ値ではなく現在時刻が設定されるべき", repo.created.UpdatedAt)
	}
}

func TestService_GetOrCreateByEmail_SetsTimestamps(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	before := time.Now()
	_, _, err := svc.GetOrCreateByEmail(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail() がエラーを返した: %v", err)
	}

	if repo.created == nil {
		t.Fatal("ユーザーが作成されていない")
	}
	if repo.created.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, ゼロ値ではなく現在時刻が設定されるべき", repo.created.CreatedAt)
	}
	if repo.created.UpdatedAt.Before(before) {
		t.Errorf("UpdatedAt = %v, ゼロ値ではなく現在時刻が設定されるべき", repo.created.UpdatedAt)
	}
}
