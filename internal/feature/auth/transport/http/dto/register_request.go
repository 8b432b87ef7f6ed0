// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// RegisterReq は/registerエンドポイントのリクエストボディを表します。
// フィールド検証はユースケース側の明示的なバリデーションで行うため、
// bindingタグは持ちません（422でフィールド別エラーを返すため）。
type RegisterReq struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
