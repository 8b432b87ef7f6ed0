// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"catalog_backend/internal/feature/auth/domain"
	"catalog_backend/internal/feature/auth/domain/entity"
	"catalog_backend/internal/shared/validation"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// maxNameLength は表示名の最大文字数を定義します。
	maxNameLength = 100

	// maxEmailLength はメールアドレスの最大文字数を定義します。
	maxEmailLength = 100
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスの生存ユーザーが既に存在する場合、domain.ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致する生存ユーザーを取得します。
	// 存在しない場合、domain.ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致する生存ユーザーを取得します。
	// ソフトデリート済みの場合も domain.ErrUserNotFound を返します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// UpdateSessionToken はユーザーの現行セッショントークンを上書きします。
	// nilを渡すとトークンをクリアします（ログアウト）。
	UpdateSessionToken(ctx context.Context, id uint, token *string) error

	// RecordLogin はトークン発行に伴うログインメタデータを記録します。
	// 現行トークンの上書き・最終ログイン時刻・接続元アドレスを1回の更新で行います。
	RecordLogin(ctx context.Context, id uint, token string, loginAt time.Time, ip string) error
}

// TokenProvider はベアラートークンの発行・検証を抽象化します。
// 構造・署名・期限の検証はDBアクセスなしで完結します。
type TokenProvider interface {
	// GenerateToken は指定されたユーザーの署名済みトークンを生成します。
	GenerateToken(userID uint, email string) (string, error)
	// ParseToken はトークンを検証しsubjectのユーザーIDを返します。
	// 失敗は domain.ErrTokenExpired / domain.ErrTokenInvalid にマッピングされます。
	ParseToken(token string) (uint, error)
	// Expiration はトークンの有効期間を返します。
	Expiration() time.Duration
}

// RegisterInput は会員登録の入力です。
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	IPAddress            string
}

// LoginInput はログインの入力です。
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
}

// TokenResult はトークン発行系オペレーションの結果です。
// ExpiresIn は秒単位で報告されます。
type TokenResult struct {
	AccessToken string
	ExpiresIn   int64
	User        *entity.User
}

// AuthUsecase は認証・セッションライフサイクルのビジネスロジックを実装します。
type AuthUsecase struct {
	users  UserRepository
	tokens TokenProvider
}

// NewAuthUsecase はAuthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, tokens TokenProvider) *AuthUsecase {
	return &AuthUsecase{users: users, tokens: tokens}
}

// Register は新規ユーザーを登録し、即座にトークンを発行します（登録時自動ログイン）。
// 検証エラーは *validation.Error として返り、ミューテーション前に検出されます。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*TokenResult, error) {
	in.Email = normalizeEmail(in.Email)

	if err := u.validateRegister(ctx, in); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Name:        strings.TrimSpace(in.Name),
		Email:       in.Email,
		Password:    string(hashed),
		LastLoginIP: in.IPAddress,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			// 一意性の事前チェックと挿入の間の競合はここで拾う
			fields := validation.FieldErrors{}
			fields.Add("email", "The email has already been taken.")
			return nil, validation.NewError(fields)
		}
		return nil, err
	}

	return u.issueResult(ctx, user, in.IPAddress)
}

// Login はユーザーを認証し、成功時に新しいトークンを発行します。
// 新しいトークンの保存は以前のトークンを上書きし、無効化します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (*TokenResult, error) {
	in.Email = normalizeEmail(in.Email)

	if err := validateLogin(in); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, in.Email)

	// ユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュ
	// bcrypt.CompareHashAndPasswordが常に呼ばれることを保証する
	passwordHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if err == nil {
		passwordHash = user.Password
	}

	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(in.Password))

	// ユーザー未検出またはパスワード不一致の場合、汎用エラーを返す
	if err != nil || compareErr != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return u.issueResult(ctx, user, in.IPAddress)
}

// Authenticate は提示されたトークンを所有ユーザーに解決します。
// 構造・署名・期限の検証後、保存済み現行トークンと比較します。
// ログアウト等で現行トークンと一致しなくなったトークンは失効扱いです。
func (u *AuthUsecase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, domain.ErrTokenAbsent
	}

	userID, err := u.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 現行トークン比較（サーバー側の失効チェック）
	if user.JWTToken == nil || *user.JWTToken != token {
		return nil, domain.ErrTokenInvalid
	}

	return user, nil
}

// Refresh は提示されたトークンを検証し、新しい期限のトークンを発行します。
// 古いトークンは保存領域の上書きにより無効化されます。
func (u *AuthUsecase) Refresh(ctx context.Context, token, ip string) (*TokenResult, error) {
	user, err := u.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return u.issueResult(ctx, user, ip)
}

// Logout はユーザーの現行トークンをクリアします。
// 以降、同じトークンでのAuthenticateは失効として失敗します。
func (u *AuthUsecase) Logout(ctx context.Context, token string) error {
	user, err := u.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	return u.users.UpdateSessionToken(ctx, user.ID, nil)
}

// IssueFor は指定ユーザーの新しいトークンを発行し、現行トークンとして保存します。
func (u *AuthUsecase) IssueFor(ctx context.Context, user *entity.User, ip string) (string, error) {
	token, err := u.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	if err := u.users.RecordLogin(ctx, user.ID, token, now, ip); err != nil {
		return "", err
	}

	user.JWTToken = &token
	user.LastLoginAt = &now
	user.LastLoginIP = ip
	return token, nil
}

// issueResult はIssueForの結果をTokenResultに詰めます。
func (u *AuthUsecase) issueResult(ctx context.Context, user *entity.User, ip string) (*TokenResult, error) {
	token, err := u.IssueFor(ctx, user, ip)
	if err != nil {
		return nil, err
	}
	return &TokenResult{
		AccessToken: token,
		ExpiresIn:   int64(u.tokens.Expiration().Seconds()),
		User:        user,
	}, nil
}

// validateRegister は会員登録の入力を検証し、フィールド別エラー一覧を返します。
func (u *AuthUsecase) validateRegister(ctx context.Context, in RegisterInput) error {
	fields := validation.FieldErrors{}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		fields.Add("name", "The name field is required.")
	} else if len(name) > maxNameLength {
		fields.Add("name", fmt.Sprintf("The name may not be greater than %d characters.", maxNameLength))
	}

	switch {
	case in.Email == "":
		fields.Add("email", "The email field is required.")
	case !validation.IsEmail(in.Email):
		fields.Add("email", "The email must be a valid email address.")
	case len(in.Email) > maxEmailLength:
		fields.Add("email", fmt.Sprintf("The email may not be greater than %d characters.", maxEmailLength))
	default:
		// 生存ユーザー間の一意性チェック
		if _, err := u.users.FindByEmail(ctx, in.Email); err == nil {
			fields.Add("email", "The email has already been taken.")
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
	}

	switch {
	case in.Password == "":
		fields.Add("password", "The password field is required.")
	case len(in.Password) < minPasswordLength:
		fields.Add("password", fmt.Sprintf("The password must be at least %d characters.", minPasswordLength))
	case in.Password != in.PasswordConfirmation:
		fields.Add("password", "The password confirmation does not match.")
	}

	if fields.Empty() {
		return nil
	}
	return validation.NewError(fields)
}

// validateLogin はログインの入力を検証します。
func validateLogin(in LoginInput) error {
	fields := validation.FieldErrors{}

	switch {
	case in.Email == "":
		fields.Add("email", "The email field is required.")
	case !validation.IsEmail(in.Email):
		fields.Add("email", "The email must be a valid email address.")
	}

	switch {
	case in.Password == "":
		fields.Add("password", "The password field is required.")
	case len(in.Password) < minPasswordLength:
		fields.Add("password", fmt.Sprintf("The password must be at least %d characters.", minPasswordLength))
	}

	if fields.Empty() {
		return nil
	}
	return validation.NewError(fields)
}

// normalizeEmail はメールアドレスを大文字小文字非依存で比較できるよう正規化します。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
