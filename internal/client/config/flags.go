package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/filepicker/internal/flagx"
)

var settingFlags = []string{"-a", "-e", "-g", "-k", "-s3", "-b", "-r", "-ak", "-sk", "-p", "-n", "-w", "-l", "-f"}

// ValueFlags and BoolFlags are every flag the loader understands. Callers
// use them to tell flags apart from the file arguments.
var (
	ValueFlags = append(append([]string{}, settingFlags...), "-c", "-config", "--config")
	BoolFlags  = []string{"-auto", "-i", "-path-style"}
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string      adapter: presign, form, minio or grpc
//	-auto          upload as soon as a file is added (-auto=false to disable)
//	-i             interactive mode, commands are read from stdin
//	-e string      form upload endpoint URL
//	-g string      gRPC target
//	-k string      upload token secret
//	-s3 string     S3/MinIO endpoint URL
//	-b string      bucket
//	-r string      region
//	-ak string     access key
//	-sk string     secret key
//	-path-style    path-style bucket addressing
//	-p string      object key prefix
//	-n int         gRPC chunk size in bytes
//	-w string      directory to watch for new files
//	-l string      log level
//	-f string      log format, text or json
func parseFlags(cfg *Config) {
	args := flagx.FilterFlags(os.Args[1:], settingFlags, BoolFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Adapter, "a", cfg.Adapter, "adapter (presign|form|minio|grpc)")
	fs.BoolVar(&cfg.AutoUpload, "auto", cfg.AutoUpload, "upload files as soon as they are added")
	fs.BoolVar(&cfg.Interactive, "i", cfg.Interactive, "read commands from stdin")
	fs.StringVar(&cfg.Endpoint, "e", cfg.Endpoint, "form upload endpoint")
	fs.StringVar(&cfg.GRPCTarget, "g", cfg.GRPCTarget, "gRPC target")
	fs.StringVar(&cfg.TokenSecret, "k", cfg.TokenSecret, "upload token secret")
	fs.StringVar(&cfg.S3Endpoint, "s3", cfg.S3Endpoint, "S3 endpoint")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "bucket")
	fs.StringVar(&cfg.S3Region, "r", cfg.S3Region, "region")
	fs.StringVar(&cfg.S3AccessKey, "ak", cfg.S3AccessKey, "access key")
	fs.StringVar(&cfg.S3SecretKey, "sk", cfg.S3SecretKey, "secret key")
	fs.BoolVar(&cfg.S3PathStyle, "path-style", cfg.S3PathStyle, "path-style bucket addressing")
	fs.StringVar(&cfg.KeyPrefix, "p", cfg.KeyPrefix, "object key prefix")
	fs.IntVar(&cfg.ChunkSize, "n", cfg.ChunkSize, "gRPC chunk size")
	fs.StringVar(&cfg.WatchDir, "w", cfg.WatchDir, "directory to watch")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text|json)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
