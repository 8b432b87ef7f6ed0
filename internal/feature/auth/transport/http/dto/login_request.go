package dto

// LoginReq は/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
