package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
)

const testSecret = "test-secret"

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in middleware tests")
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in middleware tests")
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	panic("not used in middleware tests")
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	panic("not used in middleware tests")
}

var _ repository.UserRepository = (*UserRepoMock)(nil)

func mustMakeJWT(t *testing.T, userID int64, role string, tv int) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"tv":   tv,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return signed
}

func doRequest(authz string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	h := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	e.GET("/protected", h)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthJWT_ValidToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := mustMakeJWT(t, 1, "USER", 0)

	rec := doRequest("Bearer "+token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	rec := doRequest("", middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	cfg := config.Config{JWTSecret: "other-secret"}
	token := mustMakeJWT(t, 1, "USER", 0)

	rec := doRequest("Bearer "+token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := mustMakeJWT(t, 1, "USER", 0)

	rec := doRequest("Basic "+token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenVersionGuard_Match(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	userRepo := new(UserRepoMock)
	userRepo.On("FindByID", mock.Anything, int64(1)).
		Return(&model.User{ID: 1, Role: model.RoleUser, TokenVersion: 2, IsActive: true}, nil)

	token := mustMakeJWT(t, 1, "USER", 2)
	rec := doRequest("Bearer "+token, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// tv不一致は強制ログアウト扱い
func TestTokenVersionGuard_Mismatch(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	userRepo := new(UserRepoMock)
	userRepo.On("FindByID", mock.Anything, int64(1)).
		Return(&model.User{ID: 1, Role: model.RoleUser, TokenVersion: 3, IsActive: true}, nil)

	token := mustMakeJWT(t, 1, "USER", 2)
	rec := doRequest("Bearer "+token, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard_UserForbidden(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	token := mustMakeJWT(t, 1, "USER", 0)
	rec := doRequest("Bearer "+token, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoleGuard_AdminAllowed(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	token := mustMakeJWT(t, 2, "ADMIN", 0)
	rec := doRequest("Bearer "+token, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	assert.Equal(t, http.StatusOK, rec.Code)
}
