// Package config loads server settings from an optional .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/erazemk/trznica/internal/notify"
)

// EnvFileVar names the variable that points at the .env file.
const EnvFileVar = "TRZNICA_ENV_FILE"

// Config holds all server settings.
type Config struct {
	Addr       string `env:"TRZNICA_ADDR,default=:8080"`
	DBPath     string `env:"TRZNICA_DB,default=trznica.sqlite3"`
	LogPath    string `env:"TRZNICA_LOG"`
	AdminName  string `env:"TRZNICA_ADMIN_NAME,default=Admin"`
	AdminEmail string `env:"TRZNICA_ADMIN_EMAIL,default=admin@localhost"`

	// JWTSecret overrides the secret persisted in the database.
	JWTSecret string `env:"TRZNICA_JWT_SECRET"`

	NotifyTimeout time.Duration `env:"TRZNICA_NOTIFY_TIMEOUT,default=5s"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	PushEndpoint  string `env:"PUSH_ENDPOINT"`
	PushServerKey string `env:"PUSH_SERVER_KEY"`
}

// SMTP returns the email transport settings.
func (c *Config) SMTP() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}
}

// Push returns the push gateway settings.
func (c *Config) Push() notify.PushConfig {
	return notify.PushConfig{Endpoint: c.PushEndpoint, ServerKey: c.PushServerKey}
}

// Load builds the configuration. args are the command-line arguments without
// the program name. Usage goes to out; flag.ErrHelp is returned for -h.
func Load(args []string, out io.Writer) (*Config, error) {
	envFile := os.Getenv(EnvFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decoding environment: %w", err)
	}

	if err := cfg.parseFlags(args, out); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parseFlags(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("trznica", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&c.DBPath, "db", c.DBPath, "")
	fs.StringVar(&c.DBPath, "d", c.DBPath, "")

	fs.StringVar(&c.Addr, "addr", c.Addr, "")
	fs.StringVar(&c.Addr, "a", c.Addr, "")

	fs.StringVar(&c.AdminEmail, "email", c.AdminEmail, "")
	fs.StringVar(&c.AdminEmail, "e", c.AdminEmail, "")

	fs.StringVar(&c.LogPath, "log", c.LogPath, "")
	fs.StringVar(&c.LogPath, "l", c.LogPath, "")

	fs.DurationVar(&c.NotifyTimeout, "notify-timeout", c.NotifyTimeout, "")

	fs.Usage = func() {
		fmt.Fprint(out, `Usage: trznica [flags]

Flags:
  -d, -db <path>           SQLite database path (default: trznica.sqlite3)
  -a, -addr <host:port>    listen address (default: :8080)
  -e, -email <address>     admin email on first run (default: admin@localhost)
  -l, -log <path>          log file path (default: no file, stdout/stderr only)
  -notify-timeout <dur>    bound on each email/push delivery (default: 5s)
  -h, -help                show this help and exit

Environment (also read from .env or $TRZNICA_ENV_FILE):
  TRZNICA_ADDR, TRZNICA_DB, TRZNICA_LOG, TRZNICA_ADMIN_NAME, TRZNICA_ADMIN_EMAIL,
  TRZNICA_JWT_SECRET, TRZNICA_NOTIFY_TIMEOUT,
  SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM,
  PUSH_ENDPOINT, PUSH_SERVER_KEY
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return errors.New("database path must not be empty")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify timeout must be positive, got %s", c.NotifyTimeout)
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		return fmt.Errorf("invalid SMTP port %d", c.SMTPPort)
	}
	return nil
}
