package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string
	DBDriver    string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	RedisURL   string
	StatsTTL   time.Duration
	SubmitRate int
	TrustProxy bool

	AdminUser     string
	AdminPassword string
}

// ParseFlags reads the configuration from the process command line.
func ParseFlags() (Config, error) {
	return Parse(os.Args[0], os.Args[1:])
}

// Parse reads the configuration from args. A YAML file named by -config
// supplies values for any flag not given on the command line; its keys are
// the flag names.
func Parse(name string, args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var configFile string
	fs.StringVar(&configFile, "config", "", "path to a YAML file with flag defaults")
	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number")
	fs.StringVar(&cfg.DBDriver, "db-driver", "sqlite3", "database driver: sqlite3 or postgres")
	fs.StringVar(&cfg.DBUrl, "db-url", "survey.sqlite", "path to SQLite3 DB file, or postgres connection URL")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 120*time.Second, "access token TTL")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "redis URL for the statistics cache (disabled when empty)")
	fs.DurationVar(&cfg.StatsTTL, "stats-ttl", 30*time.Second, "how long cached statistics are served")
	fs.IntVar(&cfg.SubmitRate, "submit-rate", 10, "submissions allowed per client address per minute")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "take the client address from X-Forwarded-For / X-Real-IP")
	fs.StringVar(&cfg.AdminUser, "admin-user", "", "operator account created or updated at startup")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "password for -admin-user")

	if err = fs.Parse(args); err != nil {
		return
	}
	if configFile != "" {
		if err = applyFile(fs, configFile); err != nil {
			return
		}
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.DBDriver != "sqlite3" && cfg.DBDriver != "postgres":
		err = fmt.Errorf("unsupported -db-driver %q", cfg.DBDriver)
	case cfg.SubmitRate < 0:
		err = errors.New("-submit-rate must not be negative")
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		err = errors.New("missing parameter -admin-password for -admin-user")
	}
	return
}

func applyFile(fs *flag.FlagSet, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(b, &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	for name, v := range values {
		if fs.Lookup(name) == nil || name == "config" {
			return fmt.Errorf("config file %s: unknown setting %q", path, name)
		}
		if explicit[name] {
			continue
		}
		if err := fs.Set(name, fmt.Sprint(v)); err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, name, err)
		}
	}
	return nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
