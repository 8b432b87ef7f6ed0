package dto

import (
	"time"

	"catalog_backend/internal/feature/auth/domain/entity"
)

// UserRes はレスポンスに含めるユーザーのサブセットです。
// パスワードハッシュやトークン等の内部フィールドは公開しません。
type UserRes struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MeRes は/meエンドポイントのレスポンスです。
type MeRes struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// UserResFromEntity はエンティティをUserResに変換します。
func UserResFromEntity(u *entity.User) UserRes {
	return UserRes{ID: u.ID, Name: u.Name, Email: u.Email}
}

// MeResFromEntity はエンティティをMeResに変換します。
func MeResFromEntity(u *entity.User) MeRes {
	return MeRes{ID: u.ID, Name: u.Name, Email: u.Email, LastLoginAt: u.LastLoginAt}
}
