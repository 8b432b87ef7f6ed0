package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog_backend/internal/api"
	authhandler "catalog_backend/internal/feature/auth/transport/handler"
	cataloghandler "catalog_backend/internal/feature/catalog/transport/handler"
	"catalog_backend/internal/platform/http/handler"
)

func NewRouter(authHandler *authhandler.AuthHandler, products *cataloghandler.ProductHandler,
	authRequired, rateLimit gin.HandlerFunc) *gin.Engine {
	r := gin.Default()

	// フレームワーク既定のページではなく統一エンベロープを返す
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, api.Fail("Method not allowed"))
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.Fail("Not found"))
	})

	// レートリミットは全ルートに適用（認証より前）
	r.Use(rateLimit)

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	// 新規ユーザー登録（登録時自動ログイン）
	r.POST("/register", authHandler.Register)
	// ログイン（トークン発行）
	r.POST("/login", authHandler.Login)
	// 公開カタログ
	r.GET("/products", products.List)
	r.GET("/products/:id", products.Detail)

	// 認証必須のルート
	auth := r.Group("/")
	auth.Use(authRequired)
	{
		auth.GET("/me", authHandler.Me)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/products", products.Create)
		auth.PUT("/products/:id", products.Update)
		auth.PATCH("/products/:id", products.Update)
		auth.DELETE("/products/:id", products.Delete)
	}

	return r
}
