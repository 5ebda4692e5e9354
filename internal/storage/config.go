package storage

import (
	"os"
	"strconv"
	"time"
)

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	PresignTTL time.Duration
}

// LoadMinIOConfig loads MinIO config from environment
func LoadMinIOConfig() *MinIOConfig {
	ttl := 24 * time.Hour
	if v, err := strconv.Atoi(os.Getenv("MINIO_PRESIGN_TTL_SECONDS")); err == nil && v > 0 {
		ttl = time.Duration(v) * time.Second
	}
	return &MinIOConfig{
		Endpoint:   os.Getenv("MINIO_ENDPOINT"),
		AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:     os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:     getEnv("MINIO_BUCKET", "dividend"),
		PresignTTL: ttl,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *MinIOConfig) Enabled() bool { return c != nil && c.Endpoint != "" }

func getEnv(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
