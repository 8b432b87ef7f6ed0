package main

import (
	"log"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"catalog_backend/internal/app/di"
	"catalog_backend/internal/app/router"
	"catalog_backend/internal/config"
	authadapters "catalog_backend/internal/feature/auth/adapters"
	authhandler "catalog_backend/internal/feature/auth/transport/handler"
	authusecase "catalog_backend/internal/feature/auth/usecase"
	catalogadapters "catalog_backend/internal/feature/catalog/adapters"
	cataloghandler "catalog_backend/internal/feature/catalog/transport/handler"
	catalogusecase "catalog_backend/internal/feature/catalog/usecase"
	infradb "catalog_backend/internal/platform/db"
	jwtmw "catalog_backend/internal/platform/jwt"
	infraredis "catalog_backend/internal/platform/redis"
	"catalog_backend/internal/platform/storage"
	"catalog_backend/internal/shared/ratelimiter"
)

func main() {
	// .envは任意（コンテナ環境では環境変数を直接渡す）
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found. Using environment variables.")
	}

	cfg := config.Load()

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
		cfg.JWTSecret = "dev_secret_change_me"
	}

	// db
	db := infradb.OpenDB(cfg)

	// Redis（無ければインメモリのレートリミッタにフォールバック）
	var rdb *redisv9.Client
	if cfg.RedisHost == "" {
		log.Println("[WARN] REDIS_HOST is not set. Using in-memory rate limiting.")
	} else if tmp, err := infraredis.NewRedisClient(cfg); err != nil {
		log.Println("[WARN] Redis unavailable. Using in-memory rate limiting.")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Blobストレージ
	blobs, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to init blob storage: %v", err)
	}

	// Repository
	userRepo := authadapters.NewUserGorm(db)
	productRepo := catalogadapters.NewProductGorm(db)

	// Token provider
	tokens := jwtmw.NewGenerator(cfg.JWTSecret, cfg.JWTTTL)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, tokens)
	productUC := catalogusecase.NewProductUsecase(productRepo, blobs)

	// Handler
	authH := authhandler.NewAuthHandler(authUC)
	productH := cataloghandler.NewProductHandler(productUC, authUC)

	// Middleware
	limiter := di.NewLimiter(rdb, cfg)
	rateMW := ratelimiter.Middleware(limiter, tokens)
	authMW := jwtmw.AuthRequired(authUC)

	// ルータ生成
	r := router.NewRouter(authH, productH, authMW, rateMW)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
