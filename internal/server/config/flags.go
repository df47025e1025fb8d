package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/filepicker/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC bind address (e.g. ":50051")
//	-d string     storage directory
//	-s string     upload token secret
//	-b string     maximum HTTP body size (e.g. "32M")
//	-t duration   shutdown grace period (e.g. "5s")
//	-l string     log level
//	-f string     log format, text or json
//
// Only the flags above are picked out of os.Args, so -c/-config and
// unrelated arguments are left alone.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-b", "-t", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.StorageDir, "d", config.StorageDir, "storage directory")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "upload token secret")
	fs.StringVar(&config.BodyLimit, "b", config.BodyLimit, "maximum HTTP body size")
	fs.DurationVar(&config.ShutdownTimeout, "t", config.ShutdownTimeout, "shutdown grace period")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (text|json)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
