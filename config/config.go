package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string        `validate:"required,numeric"`
	JWTSecret   string        `validate:"required"`
	TokenTTL    time.Duration `validate:"gt=0"`
	CORSOrigins []string

	DBDriver      string `validate:"required,oneof=mongo postgres sqlite"`
	MongoURI      string `validate:"required_if=DBDriver mongo"`
	MongoDatabase string `validate:"required_if=DBDriver mongo"`
	DatabaseURL   string `validate:"required_if=DBDriver postgres"`
	SQLitePath    string `validate:"required_if=DBDriver sqlite"`

	StorageDriver  string `validate:"required,oneof=s3 minio disk"`
	BucketName     string `validate:"required_unless=StorageDriver disk"`
	AWSRegion      string `validate:"required_if=StorageDriver s3"`
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	MinioHost      string `validate:"required_if=StorageDriver minio"`
	MinioAccessKey string `validate:"required_if=StorageDriver minio"`
	MinioSecretKey string `validate:"required_if=StorageDriver minio"`
	MinioUseSSL    bool
	UploadDir      string `validate:"required_if=StorageDriver disk"`
	BaseURL        string
	PresignTTL     time.Duration `validate:"gt=0"`

	Upload Upload
}

// Upload holds the derivation pipeline settings.
type Upload struct {
	MaxBytes    int64 `validate:"gt=0"`
	WorkDir     string
	JPEGQuality int `validate:"min=1,max=100"`
	MediumLimit int `validate:"gt=0"`
	ThumbLimit  int `validate:"gt=0"`
}

// LoadEnv loads variables from .env; a missing file is not an error.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Error loading .env file:", err)
	}
}

func Load() (*Config, error) {
	LoadEnv()

	cfg := &Config{
		Port:        GetEnv("PORT", "8007"),
		JWTSecret:   GetEnv("JWT_SECRET", ""),
		TokenTTL:    GetEnvDuration("TOKEN_TTL", time.Hour),
		CORSOrigins: GetEnvList("CORS_ORIGINS", nil),

		DBDriver:      GetEnv("DB_DRIVER", "mongo"),
		MongoURI:      GetEnv("MONGO_URI", "mongodb://localhost:27017/"),
		MongoDatabase: GetEnv("MONGO_DATABASE", "photoshare"),
		DatabaseURL:   GetEnv("DATABASE_URL", ""),
		SQLitePath:    GetEnv("SQLITE_PATH", "photoshare.db"),

		StorageDriver:  GetEnv("STORAGE_DRIVER", "s3"),
		BucketName:     GetEnv("BUCKET_NAME", ""),
		AWSRegion:      GetEnv("AWS_REGION", ""),
		S3Endpoint:     GetEnv("S3_ENDPOINT", ""),
		S3AccessKey:    GetEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    GetEnv("S3_SECRET_KEY", ""),
		MinioHost:      GetEnv("MINIO_HOST", "localhost:9000"),
		MinioAccessKey: GetEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: GetEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:    GetEnvBool("MINIO_USE_SSL", false),
		UploadDir:      GetEnv("UPLOAD_DIR", "uploads"),
		BaseURL:        strings.TrimSuffix(GetEnv("BASE_URL", ""), "/"),
		PresignTTL:     GetEnvDuration("PRESIGN_TTL", 10*time.Minute),

		Upload: Upload{
			MaxBytes:    int64(GetEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
			WorkDir:     GetEnv("WORK_DIR", os.TempDir()),
			JPEGQuality: GetEnvInt("JPEG_QUALITY", 85),
			MediumLimit: GetEnvInt("MEDIUM_LIMIT", 300),
			ThumbLimit:  GetEnvInt("THUMB_LIMIT", 80),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt returns the value of an environment variable as an integer or a default value
func GetEnvInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(GetEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvDuration accepts Go duration strings ("90s", "1h").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(GetEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvList splits a comma separated variable, dropping empty entries.
func GetEnvList(key string, defaultValue []string) []string {
	raw := GetEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
