// Package config はアプリ全体の設定を環境変数から読み込みます。
package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリ全体の設定です。
type Config struct {
	Port string // サーバーポート

	DBHost     string // DBホスト
	DBPort     int    // DBポート
	DBUser     string // DBユーザー
	DBPassword string // DBパスワード
	DBName     string // DB名

	RedisHost     string // Redisホスト（空ならインメモリにフォールバック）
	RedisPort     string // Redisポート
	RedisPassword string // Redisパスワード

	JWTSecret string        // JWT署名シークレット
	JWTTTL    time.Duration // アクセストークンの有効期間

	UploadDir string // 画像Blobの保存先ディレクトリ

	RateLimit  int           // ウィンドウあたりの最大リクエスト数
	RateWindow time.Duration // レートリミットのウィンドウ幅

	RunMigrations bool // 起動時にAutoMigrateを実行するか
}

// Load は環境変数から設定を読み込みます。シークレット以外は既定値を持ちます。
func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenvInt("DB_PORT", 5432),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getenv("DB_NAME", "catalog"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getenv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(getenvInt("JWT_TTL_MINUTES", 60)) * time.Minute,

		UploadDir: getenv("UPLOAD_DIR", "./storage"),

		RateLimit:  getenvInt("RATE_LIMIT", 20),
		RateWindow: time.Duration(getenvInt("RATE_WINDOW_SECONDS", 60)) * time.Second,

		RunMigrations: os.Getenv("RUN_MIGRATIONS") == "true",
	}
}

// getenv は環境変数を読み、未設定なら既定値を返します。
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getenvInt は数値の環境変数を読み、未設定・不正なら既定値を返します。
func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
