package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/flagx"
	"github.com/ilyakaznacheev/cleanenv"
)

// JsonConfig is the file/environment view of Config. Durations are
// strings accepted by time.ParseDuration ("5s").
type JsonConfig struct {
	HTTPAddr        string `json:"http_addr" env:"FILEPICKER_HTTP_ADDR"`
	GRPCAddr        string `json:"grpc_addr" env:"FILEPICKER_GRPC_ADDR"`
	StorageDir      string `json:"storage_dir" env:"FILEPICKER_STORAGE_DIR"`
	SecretKey       string `json:"secret_key" env:"FILEPICKER_SECRET_KEY"`
	BodyLimit       string `json:"body_limit" env:"FILEPICKER_BODY_LIMIT"`
	ShutdownTimeout string `json:"shutdown_timeout" env:"FILEPICKER_SHUTDOWN_TIMEOUT"`
	LogLevel        string `json:"log_level" env:"FILEPICKER_LOG_LEVEL"`
	LogFormat       string `json:"log_format" env:"FILEPICKER_LOG_FORMAT"`
}

// parseJson overlays config with values from the JSON file named by -c or
// -config, then with FILEPICKER_* environment variables. Keys missing from
// both keep their current value. It panics when the file cannot be read or
// holds an invalid value.
func parseJson(config *Config) {
	c := &JsonConfig{
		HTTPAddr:        config.HTTPAddr,
		GRPCAddr:        config.GRPCAddr,
		StorageDir:      config.StorageDir,
		SecretKey:       config.SecretKey,
		BodyLimit:       config.BodyLimit,
		ShutdownTimeout: config.ShutdownTimeout.String(),
		LogLevel:        config.LogLevel,
		LogFormat:       config.LogFormat,
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

	shutdownTimeout, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		panic(err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCAddr = c.GRPCAddr
	config.StorageDir = c.StorageDir
	config.SecretKey = c.SecretKey
	config.BodyLimit = c.BodyLimit
	config.ShutdownTimeout = shutdownTimeout
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
}
