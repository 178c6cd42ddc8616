package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries the environment-driven settings for both binaries. The
// inspector only reads the Vision and HTTP fields; everything else belongs to
// the API server.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"host=postgres user=postgres password=postgres dbname=packscan port=5432 sslmode=disable"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"redis:6379"`

	JWTSecret   string `envconfig:"JWT_SECRET" default:"dev-secret"`
	JWTAudience string `envconfig:"JWT_AUDIENCE"`

	// Base URL of the Mask R-CNN box-prediction service.
	InferenceURL     string        `envconfig:"INFERENCE_URL" default:"http://mrcnn-service:5000"`
	InferenceTimeout time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"30s"`

	VisionEndpoint string `envconfig:"VISION_ENDPOINT" default:"https://vision.googleapis.com/v1/images:annotate"`
	VisionAPIKey   string `envconfig:"VISION_API_KEY"`

	// Directory uploaded image files are written to.
	MediaDir string `envconfig:"MEDIA_DIR" default:"media"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
