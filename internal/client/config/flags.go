package config

import (
	"flag"
	"os"
	"time"

	"github.com/studira/studira/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short and long forms):
//
//	-a, --api-url string       base URL of the backend API
//	-t, --timeout int          request timeout in seconds
//	-s, --session-file string  session file path
//	-l, --log-level string     log level
//
// The args are filtered with flagx.FilterArgs so cobra and other packages
// can define their own flags without collisions; the command tree registers
// the same names as persistent flags so they pass cobra's parsing too.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "--api-url",
		"-t", "--timeout",
		"-s", "--session-file",
		"-l", "--log-level",
	})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the backend API")
	fs.StringVar(&cfg.BaseURL, "api-url", cfg.BaseURL, "base URL of the backend API")
	timeoutSec := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(timeoutSec, "timeout", *timeoutSec, "request timeout (in seconds)")
	fs.StringVar(&cfg.SessionFile, "s", cfg.SessionFile, "session file path")
	fs.StringVar(&cfg.SessionFile, "session-file", cfg.SessionFile, "session file path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeoutSec) * time.Second
}
