// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the serve and migration commands need.
type Config struct {
	Port        string
	DatabaseURL string
	AdminSecret string
	AppEnv      string

	// Object store settings, see internal/blob.
	BlobDriver  string
	BlobFSRoot  string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool

	// Migration source (content API) settings.
	ContentSpace string
	ContentToken string
	ContentURL   string
}

// Load reads the .env file if present, then the process environment.
func Load() *Config {
	_ = godotenv.Load() // missing .env is fine in production

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:agencies.db"),
		AdminSecret: getEnv("ADMIN_SECRET", ""),
		AppEnv:      getEnv("APP_ENV", "local"),

		BlobDriver:  getEnv("BLOB_DRIVER", "fs"),
		BlobFSRoot:  getEnv("BLOB_FS_ROOT", "./blobdata"),
		S3Bucket:    getEnv("BLOB_S3_BUCKET", ""),
		S3Region:    getEnv("BLOB_S3_REGION", ""),
		S3Endpoint:  getEnv("BLOB_S3_ENDPOINT", ""),
		S3AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3PathStyle: getEnv("BLOB_S3_PATH_STYLE", "") == "true",

		ContentSpace: getEnv("CONTENT_SPACE", ""),
		ContentToken: getEnv("CONTENT_ACCESS_TOKEN", ""),
		ContentURL:   getEnv("CONTENT_API_URL", "https://cdn.contentful.com"),
	}
}

// Production reports whether the app runs behind TLS; controls the Secure
// flag on the auth cookie.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
