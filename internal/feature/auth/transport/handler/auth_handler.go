// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog_backend/internal/api"
	"catalog_backend/internal/feature/auth/domain"
	"catalog_backend/internal/feature/auth/transport/http/dto"
	"catalog_backend/internal/feature/auth/usecase"
	jwtmw "catalog_backend/internal/platform/jwt"
	"catalog_backend/internal/shared/validation"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register は新規ユーザーを登録し、即座にトークンを発行します。
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.TokenResult, error)
	// Login はユーザーを認証し、新しいトークンを発行します。
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.TokenResult, error)
	// Refresh は提示されたトークンを新しい期限のトークンに交換します。
	Refresh(ctx context.Context, token, ip string) (*usecase.TokenResult, error)
	// Logout はユーザーの現行トークンをクリアします。
	Logout(ctx context.Context, token string) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からAuthUsecaseを注入します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - 検証エラー時はフィールド別エラー一覧付きで422を返却
// - 成功時はユーザーとトークン付きで201を返却（登録時自動ログイン）
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register request malformed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.Fail("invalid request body"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		IPAddress:            c.ClientIP(),
	})
	if err != nil {
		var ve *validation.Error
		if errors.As(err, &ve) {
			c.JSON(http.StatusUnprocessableEntity, api.FailFields("The given data was invalid.", ve.Fields))
			return
		}
		slog.Error("register failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.Fail("Registration failed"))
		return
	}

	slog.Info("user registered", "email", result.User.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.OK("User registered successfully", gin.H{
		"user":  dto.UserResFromEntity(result.User),
		"token": result.AccessToken,
	}))
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 検証エラー時は422、認証失敗時は401を返却
// - 成功時はトークンエンベロープ付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login request malformed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.Fail("invalid request body"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		var ve *validation.Error
		if errors.As(err, &ve) {
			c.JSON(http.StatusUnprocessableEntity, api.FailFields("The given data was invalid.", ve.Fields))
			return
		}
		if errors.Is(err, domain.ErrInvalidCredentials) {
			// ユーザー列挙攻撃を防止するため、未検出と不一致を区別しない
			slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.Fail("Invalid credentials"))
			return
		}
		slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.Fail("Login failed"))
		return
	}

	slog.Info("user login successful", "email", result.User.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.OK("Login successful", api.TokenData{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   result.ExpiresIn,
		User:        dto.UserResFromEntity(result.User),
	}))
}

// Me は認証済みユーザー自身の情報を返します。
// AuthRequiredミドルウェアの背後で動作します。
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.Fail("Unauthorized"))
		return
	}
	c.JSON(http.StatusOK, api.OK("Success", dto.MeResFromEntity(user)))
}

// Logout は現行トークンを無効化します。
// 以降、同じトークンでのリクエストは401で失敗します。
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		if isTokenError(err) {
			c.JSON(http.StatusUnauthorized, api.Fail("Unauthorized"))
			return
		}
		slog.Error("logout failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.Fail("Logout failed"))
		return
	}
	c.JSON(http.StatusOK, api.OK("Successfully logged out", nil))
}

// Refresh は提示されたトークンを新しい期限のトークンに交換します。
// 古いトークンは上書きにより即座に無効化されます。
func (h *AuthHandler) Refresh(c *gin.Context) {
	result, err := h.auth.Refresh(c.Request.Context(), bearerToken(c), c.ClientIP())
	if err != nil {
		if isTokenError(err) {
			c.JSON(http.StatusUnauthorized, api.Fail("Token refresh failed"))
			return
		}
		slog.Error("token refresh failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.Fail("Token refresh failed"))
		return
	}

	c.JSON(http.StatusOK, api.OK("Token refreshed", api.TokenData{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   result.ExpiresIn,
	}))
}

// bearerToken はAuthorizationヘッダーからベアラートークンを取り出します。
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// isTokenError はトークン起因の認証エラーかどうかを判定します。
func isTokenError(err error) bool {
	return errors.Is(err, domain.ErrTokenAbsent) ||
		errors.Is(err, domain.ErrTokenExpired) ||
		errors.Is(err, domain.ErrTokenInvalid) ||
		errors.Is(err, domain.ErrUserNotFound)
}
