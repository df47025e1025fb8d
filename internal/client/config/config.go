package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	AdapterPresign = "presign"
	AdapterForm    = "form"
	AdapterMinio   = "minio"
	AdapterGRPC    = "grpc"
)

// Config holds runtime settings for the CLI.
//
// Endpoint is used by the form adapter, GRPCTarget by the grpc adapter and
// the S3 fields by the presign and minio adapters. TokenSecret signs the
// upload tokens of form and grpc uploads. The default S3Endpoint points at
// the sink's /objects routes, which only the presign adapter can use; the
// minio adapter needs the root of a real S3 service such as MinIO. With Interactive set the CLI reads
// commands from stdin once the initial files are added.
type Config struct {
	Adapter     string        `validate:"oneof=presign form minio grpc"`
	AutoUpload  bool
	Interactive bool
	Endpoint    string        `validate:"required_if=Adapter form,omitempty,url"`
	GRPCTarget  string        `validate:"required_if=Adapter grpc"`
	TokenSecret string        `validate:"required_if=Adapter form,required_if=Adapter grpc"`
	TokenTTL    time.Duration `validate:"gt=0"`
	S3Endpoint  string        `validate:"required_if=Adapter minio,omitempty,url"`
	S3Bucket    string        `validate:"required_if=Adapter presign,required_if=Adapter minio"`
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool
	PresignTTL  time.Duration `validate:"gt=0"`
	KeyPrefix   string
	ChunkSize   int           `validate:"gt=0"`
	WatchDir    string
	LogLevel    string        `validate:"oneof=debug info warn error"`
	LogFormat   string        `validate:"oneof=text json"`
}

// LoadDefaults populates c with defaults that talk to a local sink.
func (c *Config) LoadDefaults() {
	c.Adapter = AdapterForm
	c.AutoUpload = true
	c.Endpoint = "http://127.0.0.1:8080/upload"
	c.GRPCTarget = "127.0.0.1:50051"
	c.TokenSecret = "secretKey"
	c.TokenTTL = time.Minute
	c.S3Endpoint = "http://127.0.0.1:8080/objects"
	c.S3Bucket = "uploads"
	c.S3Region = "us-east-1"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3PathStyle = true
	c.PresignTTL = 15 * time.Minute
	c.ChunkSize = 64 << 10
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON and the environment (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
