package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	// Set directly, or sourced from Secret Manager via DB_CONNECTION_SECRET.
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING"`

	// Upload settings
	UploadTempDir  string `envconfig:"UPLOAD_TEMP_DIR" default:"uploads/temp"`
	VideosDir      string `envconfig:"VIDEOS_DIR" default:"uploads/videos"`
	PublicPrefix   string `envconfig:"PUBLIC_PREFIX" default:"/uploads/videos"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`

	// How long a merge waits for an in-flight merge of the same lecture
	// before rejecting the request.
	MergeLockWaitSec int `envconfig:"MERGE_LOCK_WAIT_SEC" default:"5"`

	// Duration plausibility thresholds, in seconds. These encode observed
	// failure modes of metadata probing (spuriously huge values) and are
	// load-bearing for existing data; changing them changes observable
	// behavior on the lecture-update endpoints.
	DurationSuspiciousSec int `envconfig:"DURATION_SUSPICIOUS_SEC" default:"1000"`
	DurationSoftMaxSec    int `envconfig:"DURATION_SOFT_MAX_SEC" default:"7200"`
	DurationHardMaxSec    int `envconfig:"DURATION_HARD_MAX_SEC" default:"86400"`

	// FFprobe binary used as the fallback duration strategy.
	FFprobeBin string `envconfig:"FFPROBE_BIN" default:"ffprobe"`

	// Optional S3-compatible archival of assembled videos.
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Optional Secret Manager names for sensitive values. Each is read at
	// startup only when the corresponding plain value is unset. Requires
	// GCP_PROJECT_ID.
	DBConnectionSecret string `envconfig:"DB_CONNECTION_SECRET"`
	S3AccessKeySecret  string `envconfig:"S3_ACCESS_KEY_SECRET"`
	S3SecretKeySecret  string `envconfig:"S3_SECRET_KEY_SECRET"`

	// Optional Pub/Sub notification of processed videos.
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubVideoTopic   string `envconfig:"PUBSUB_VIDEO_TOPIC" default:"video_processed"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
