package handler

import (
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
)

// refresh token cookieの有効期限（usecase側のTTLと揃える）
const refreshCookieTTL = 30 * 24 * time.Hour

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	cookieSecure bool
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase, cookieSecure bool) *AuthHandler {
	return &AuthHandler{uc: uc, cookieSecure: cookieSecure}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)

	me := g.Group("/me")
	me.Use(middleware.AuthJWT(cfg))
	me.Use(middleware.TokenVersionGuard(userRepo))
	me.GET("", h.me)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//User-Agentを取得（refreshtokenに紐付ける）
	userAgent := c.Request().UserAgent()

	res, err := h.uc.Login(c.Request().Context(), req, userAgent)
	if err != nil {
		return writeAuthError(c, err)
	}

	//refreshはHttpOnly cookie、csrfはJSから読めるcookie
	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)

	return c.JSON(http.StatusOK, res.Body)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	userAgent := c.Request().UserAgent()

	res, uerr := h.uc.Refresh(c.Request().Context(), cookie.Value, userAgent)
	if uerr != nil {
		//再利用検知などは既存cookieも消す
		h.clearAuthCookies(c)
		return writeAuthError(c, uerr)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)

	return c.JSON(http.StatusOK, res.Body)
}

func (h *AuthHandler) logout(c echo.Context) error {
	cookie, err := c.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, uerr := h.uc.Logout(c.Request().Context(), cookie.Value)
	if uerr != nil {
		return writeAuthError(c, uerr)
	}

	h.clearAuthCookies(c)

	return c.JSON(http.StatusOK, out)
}

// refresh tokenをHttpOnly Cookieにセット
func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(refreshCookieTTL),
	})
}

// csrftokenをCookieにセット
func (h *AuthHandler) setCsrfCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "csrf_token",
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(refreshCookieTTL),
	})
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	c.SetCookie(&http.Cookie{
		Name:     "csrf_token",
		Value:    "",
		Path:     "/",
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// 認証系のsentinel errorをHTTPステータスへ変換
func writeAuthError(c echo.Context, err error) error {
	switch err {
	case usecase.ErrValidation, validator.ErrInvalidInput, validator.ErrInvalidRefresh:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error"})
	case validator.ErrEmailAlreadyUsed, usecase.ErrConflict:
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict"})
	case usecase.ErrUnauthorized, usecase.ErrSecurityIncident:
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case usecase.ErrForbidden:
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
