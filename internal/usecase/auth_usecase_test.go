package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

// =====================
// Mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var _ repo.UserRepository = (*UserRepoMock)(nil)

type RefreshTokenRepoMock struct{ mock.Mock }

func (m *RefreshTokenRepoMock) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *RefreshTokenRepoMock) MarkUsed(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) Revoke(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

var _ repo.RefreshTokenRepository = (*RefreshTokenRepoMock)(nil)

type AuthValidatorMock struct{ mock.Mock }

func (m *AuthValidatorMock) ValidateRegister(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *AuthValidatorMock) ValidateLogin(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *AuthValidatorMock) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	args := m.Called(ctx, refreshToken, userAgent)
	return args.Error(0)
}

func (m *AuthValidatorMock) ValidateLogout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthValidatorMock) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	args := m.Called(ctx, targetUserID)
	return args.Error(0)
}

var _ usecase.AuthValidator = (*AuthValidatorMock)(nil)

func newAuthUC(users *UserRepoMock, rtRepo *RefreshTokenRepoMock, v *AuthValidatorMock) *usecase.AuthUsecase {
	cfg := config.Config{JWTSecret: "test-secret"}
	return usecase.NewAuthUsecase(cfg, users, rtRepo, v)
}

// テスト用bcryptハッシュ
func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

// =====================
// Register
// =====================

func TestAuthUsecase_Register_Success(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	v.On("ValidateRegister", mock.Anything, "new@test.com", "password123").Return(nil)

	//平文が保存されないこと・初期状態の確認
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "new@test.com" &&
			u.PasswordHash != "" &&
			u.PasswordHash != "password123" &&
			u.Role == model.RoleUser &&
			u.TokenVersion == 0 &&
			u.IsActive
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 1
	})

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Register(ctx, usecase.AuthRegisterRequest{Email: "new@test.com", Password: "password123"})
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, int64(1), res.User.ID)
	assert.Equal(t, "new@test.com", res.User.Email)

	userRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// email重複（unique違反）は409相当のconflictに変換される
func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	v.On("ValidateRegister", mock.Anything, "dup@test.com", "password123").Return(nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(repo.ErrDuplicateKey)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Register(ctx, usecase.AuthRegisterRequest{Email: "dup@test.com", Password: "password123"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrConflict)

	userRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// =====================
// Login
// =====================

func TestAuthUsecase_Login_Success(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	email := "user@test.com"
	password := "password123"
	ua := "UA"

	v.On("ValidateLogin", mock.Anything, email, password).Return(nil)

	userRepo.On("FindByEmail", mock.Anything, email).Return(&model.User{
		ID:           1,
		Email:        email,
		PasswordHash: mustHash(t, password),
		Role:         model.RoleUser,
		TokenVersion: 2,
		IsActive:     true,
	}, nil)

	//last_login更新は失敗してもログイン自体は通る扱い
	userRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()

	rtRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.UserID == 1 && rt.TokenHash != "" && rt.UserAgent == ua &&
			rt.ExpiresAt.After(time.Now()) && rt.UsedAt == nil
	})).Return(nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Login(ctx, usecase.AuthLoginRequest{Email: email, Password: password}, ua)
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.NotEmpty(t, res.Body.Token.AccessToken)
	assert.Greater(t, res.Body.Token.ExpiresIn, 0)
	assert.Equal(t, 2, res.Body.Token.TokenVersion)
	assert.NotEmpty(t, res.RefreshTokenPlain)
	assert.NotEmpty(t, res.CsrfTokenPlain)

	userRepo.AssertExpectations(t)
	rtRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	email := "user@test.com"

	v.On("ValidateLogin", mock.Anything, email, "wrong-password").Return(nil)

	userRepo.On("FindByEmail", mock.Anything, email).Return(&model.User{
		ID:           1,
		Email:        email,
		PasswordHash: mustHash(t, "correct-password"),
		Role:         model.RoleUser,
		IsActive:     true,
	}, nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Login(ctx, usecase.AuthLoginRequest{Email: email, Password: "wrong-password"}, "UA")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	//失敗時にrefresh tokenを発行しない
	rtRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	userRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

func TestAuthUsecase_Login_ValidationError(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	v.On("ValidateLogin", mock.Anything, "", "").Return(usecase.ErrValidation)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Login(ctx, usecase.AuthLoginRequest{}, "UA")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrValidation)

	userRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)

	v.AssertExpectations(t)
}

func TestAuthUsecase_Login_InactiveUser(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	email := "banned@test.com"
	password := "password123"

	v.On("ValidateLogin", mock.Anything, email, password).Return(nil)

	userRepo.On("FindByEmail", mock.Anything, email).Return(&model.User{
		ID:           9,
		Email:        email,
		PasswordHash: mustHash(t, password),
		Role:         model.RoleUser,
		IsActive:     false,
	}, nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Login(ctx, usecase.AuthLoginRequest{Email: email, Password: password}, "UA")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrForbidden)

	userRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// =====================
// Refresh
// =====================

// 正常系: 旧tokenをusedにして新tokenへ入れ替える
func TestAuthUsecase_Refresh_Rotation(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	refreshPlain := "refresh-plain"
	ua := "UA"

	v.On("ValidateRefresh", mock.Anything, refreshPlain, ua).Return(nil)

	rtRepo.On("FindByTokenHash", mock.Anything, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:        "rt-old",
		UserID:    1,
		UserAgent: ua,
		ExpiresAt: time.Now().Add(10 * time.Minute),
		UsedAt:    nil,
	}, nil)

	userRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID:           1,
		Email:        "user@test.com",
		Role:         model.RoleUser,
		TokenVersion: 3,
		IsActive:     true,
	}, nil)

	rtRepo.On("MarkUsed", mock.Anything, "rt-old").Return(nil)

	rtRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.ID != "rt-old" && rt.UserID == 1 && rt.TokenHash != ""
	})).Return(nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Refresh(ctx, refreshPlain, ua)
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.NotEmpty(t, res.Body.AccessToken)
	assert.Equal(t, 3, res.Body.TokenVersion)
	assert.NotEmpty(t, res.RefreshTokenPlain)
	assert.NotEqual(t, refreshPlain, res.RefreshTokenPlain)
	assert.NotEmpty(t, res.CsrfTokenPlain)

	userRepo.AssertExpectations(t)
	rtRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// 期限切れtokenは削除して401
func TestAuthUsecase_Refresh_Expired(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	refreshPlain := "expired"
	ua := "UA"

	v.On("ValidateRefresh", mock.Anything, refreshPlain, ua).Return(nil)

	rtRepo.On("FindByTokenHash", mock.Anything, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:        "rt-exp",
		UserID:    1,
		UserAgent: ua,
		ExpiresAt: time.Now().Add(-1 * time.Minute),
		UsedAt:    nil,
	}, nil)

	rtRepo.On("DeleteByID", mock.Anything, "rt-exp").Return(nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Refresh(ctx, refreshPlain, ua)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	rtRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// used済みtokenの再提示はreplay扱い。該当ユーザーの全tokenを落とす
func TestAuthUsecase_Refresh_Replay(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	refreshPlain := "used"
	ua := "UA"
	usedAt := time.Now().Add(-1 * time.Minute)

	v.On("ValidateRefresh", mock.Anything, refreshPlain, ua).Return(nil)

	rtRepo.On("FindByTokenHash", mock.Anything, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:        "rt-used",
		UserID:    1,
		UserAgent: ua,
		ExpiresAt: time.Now().Add(10 * time.Minute),
		UsedAt:    &usedAt,
	}, nil)

	rtRepo.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Refresh(ctx, refreshPlain, ua)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrSecurityIncident)

	rtRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	rtRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// user_agentが変わっていたら再認証扱いで全token削除
func TestAuthUsecase_Refresh_UserAgentMismatch(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	refreshPlain := "ua-mismatch"
	ua := "UA-NEW"

	v.On("ValidateRefresh", mock.Anything, refreshPlain, ua).Return(nil)

	rtRepo.On("FindByTokenHash", mock.Anything, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:        "rt-ua",
		UserID:    1,
		UserAgent: "UA-OLD",
		ExpiresAt: time.Now().Add(10 * time.Minute),
		UsedAt:    nil,
	}, nil)

	rtRepo.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Refresh(ctx, refreshPlain, ua)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrSecurityIncident)

	rtRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// =====================
// Logout / ForceLogout
// =====================

func TestAuthUsecase_Logout_Success(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	v.On("ValidateLogout", mock.Anything).Return(nil)

	rtRepo.On("FindByTokenHash", mock.Anything, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:     "rt-logout",
		UserID: 1,
	}, nil)

	rtRepo.On("DeleteByID", mock.Anything, "rt-logout").Return(nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Logout(ctx, "refresh-plain")
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, "logout success", res.Message)

	rtRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

// cookie消失などでtoken空のとき401
func TestAuthUsecase_Logout_EmptyToken(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	v.On("ValidateLogout", mock.Anything).Return(nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.Logout(ctx, "")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	v.AssertExpectations(t)
}

func TestAuthUsecase_ForceLogout_Success(t *testing.T) {
	ctx := context.Background()

	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(AuthValidatorMock)

	targetUserID := int64(10)

	v.On("ValidateForceLogout", mock.Anything, targetUserID).Return(nil)

	userRepo.On("IncrementTokenVersion", mock.Anything, targetUserID).Return(nil)
	rtRepo.On("DeleteAllByUserID", mock.Anything, targetUserID).Return(nil)

	//更新後を取り直してnew_token_versionを返す
	userRepo.On("FindByID", mock.Anything, targetUserID).Return(&model.User{
		ID:           targetUserID,
		Email:        "user@test.com",
		Role:         model.RoleUser,
		TokenVersion: 5,
		IsActive:     true,
	}, nil)

	u := newAuthUC(userRepo, rtRepo, v)

	res, err := u.ForceLogout(ctx, targetUserID)
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, targetUserID, res.UserID)
	assert.Equal(t, 5, res.NewTokenVersion)

	userRepo.AssertExpectations(t)
	rtRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}
