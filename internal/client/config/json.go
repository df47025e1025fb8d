package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/flagx"
	"github.com/ilyakaznacheev/cleanenv"
)

// JsonConfig is the file/environment view of Config. Durations are strings
// such as "15m".
type JsonConfig struct {
	Adapter     string `json:"adapter" env:"FILEPICKER_ADAPTER"`
	AutoUpload  bool   `json:"auto_upload" env:"FILEPICKER_AUTO_UPLOAD"`
	Interactive bool   `json:"interactive" env:"FILEPICKER_INTERACTIVE"`
	Endpoint    string `json:"endpoint" env:"FILEPICKER_ENDPOINT"`
	GRPCTarget  string `json:"grpc_target" env:"FILEPICKER_GRPC_TARGET"`
	TokenSecret string `json:"token_secret" env:"FILEPICKER_TOKEN_SECRET"`
	TokenTTL    string `json:"token_ttl" env:"FILEPICKER_TOKEN_TTL"`
	S3Endpoint  string `json:"s3_endpoint" env:"FILEPICKER_S3_ENDPOINT"`
	S3Bucket    string `json:"s3_bucket" env:"FILEPICKER_S3_BUCKET"`
	S3Region    string `json:"s3_region" env:"FILEPICKER_S3_REGION"`
	S3AccessKey string `json:"s3_access_key" env:"FILEPICKER_S3_ACCESS_KEY"`
	S3SecretKey string `json:"s3_secret_key" env:"FILEPICKER_S3_SECRET_KEY"`
	S3PathStyle bool   `json:"s3_path_style" env:"FILEPICKER_S3_PATH_STYLE"`
	PresignTTL  string `json:"presign_ttl" env:"FILEPICKER_PRESIGN_TTL"`
	KeyPrefix   string `json:"key_prefix" env:"FILEPICKER_KEY_PREFIX"`
	ChunkSize   int    `json:"chunk_size" env:"FILEPICKER_CHUNK_SIZE"`
	WatchDir    string `json:"watch_dir" env:"FILEPICKER_WATCH_DIR"`
	LogLevel    string `json:"log_level" env:"FILEPICKER_LOG_LEVEL"`
	LogFormat   string `json:"log_format" env:"FILEPICKER_LOG_FORMAT"`
}

// parseJson overlays cfg with the JSON file named by -c or -config, then with
// FILEPICKER_* environment variables. Keys missing from both keep their
// current value. It panics on an unreadable file or an invalid value.
func parseJson(cfg *Config) {
	c := &JsonConfig{
		Adapter:     cfg.Adapter,
		AutoUpload:  cfg.AutoUpload,
		Interactive: cfg.Interactive,
		Endpoint:    cfg.Endpoint,
		GRPCTarget:  cfg.GRPCTarget,
		TokenSecret: cfg.TokenSecret,
		TokenTTL:    cfg.TokenTTL.String(),
		S3Endpoint:  cfg.S3Endpoint,
		S3Bucket:    cfg.S3Bucket,
		S3Region:    cfg.S3Region,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PathStyle: cfg.S3PathStyle,
		PresignTTL:  cfg.PresignTTL.String(),
		KeyPrefix:   cfg.KeyPrefix,
		ChunkSize:   cfg.ChunkSize,
		WatchDir:    cfg.WatchDir,
		LogLevel:    cfg.LogLevel,
		LogFormat:   cfg.LogFormat,
	}

	var err error
	if path := flagx.ConfigPath(os.Args[1:]); path != "" {
		err = cleanenv.ReadConfig(path, c)
	} else {
		err = cleanenv.ReadEnv(c)
	}
	if err != nil {
		panic(err)
	}

	tokenTTL, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		panic(err)
	}
	presignTTL, err := time.ParseDuration(c.PresignTTL)
	if err != nil {
		panic(err)
	}

	cfg.Adapter = c.Adapter
	cfg.AutoUpload = c.AutoUpload
	cfg.Interactive = c.Interactive
	cfg.Endpoint = c.Endpoint
	cfg.GRPCTarget = c.GRPCTarget
	cfg.TokenSecret = c.TokenSecret
	cfg.TokenTTL = tokenTTL
	cfg.S3Endpoint = c.S3Endpoint
	cfg.S3Bucket = c.S3Bucket
	cfg.S3Region = c.S3Region
	cfg.S3AccessKey = c.S3AccessKey
	cfg.S3SecretKey = c.S3SecretKey
	cfg.S3PathStyle = c.S3PathStyle
	cfg.PresignTTL = presignTTL
	cfg.KeyPrefix = c.KeyPrefix
	cfg.ChunkSize = c.ChunkSize
	cfg.WatchDir = c.WatchDir
	cfg.LogLevel = c.LogLevel
	cfg.LogFormat = c.LogFormat
}
