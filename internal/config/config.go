package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/law-makers/bizcrawl/internal/ratelimit"
	"github.com/law-makers/bizcrawl/internal/secrets"
	"github.com/law-makers/bizcrawl/internal/utils/headers"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Browser
	NavTimeout  time.Duration
	WaitTimeout time.Duration
	UserAgent   string
	Proxy       string
	Headless    bool
	ChromePath  string
	BrowserURL  string
	Headers     map[string]string

	// Crawl
	SearchURL       string
	MaxPages        int
	Mode            string
	RateLimitRPS    float64
	RateLimitBurst  int
	RateLimitHosts  map[string]float64 // per-host rps overrides
	ResultsSelector string
	LinkSelector    string
	ProfileSelector string

	// Persistence
	Sink          string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SubmitURL     string
	DeleteURL     string
	PhoneRegion   string

	// Model-driven extraction
	AnthropicAPIKey string
	Model           string
	MaxTokens       int64
	ModelTimeout    time.Duration

	// HTTP server
	ListenAddr string
}

// Defaults returns a Config populated with default values only
func Defaults() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		NavTimeout:      DefaultNavTimeout,
		WaitTimeout:     DefaultWaitTimeout,
		UserAgent:       DefaultUserAgent,
		Headless:        DefaultBrowserHeadless,
		Headers:         DefaultHeaders(),
		SearchURL:       DefaultSearchURL,
		MaxPages:        DefaultMaxPages,
		Mode:            DefaultMode,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		ResultsSelector: DefaultResultsSelector,
		LinkSelector:    DefaultLinkSelector,
		ProfileSelector: DefaultProfileSelector,
		Sink:            DefaultSink,
		RedisAddr:       DefaultRedisAddr,
		PhoneRegion:     DefaultPhoneRegion,
		Model:           DefaultModel,
		MaxTokens:       DefaultMaxTokens,
		ModelTimeout:    DefaultModelTimeout,
		ListenAddr:      DefaultListenAddr,
	}
}

// Load builds a Config by combining defaults, a .env file, environment variables,
// keyring secrets and CLI flags, in that order of increasing precedence.
// Pass the executing *cobra.Command so its (and inherited) flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	if err := loadEnvFile(flagString(cmd, "env-file")); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	applySecrets(cfg)
	if err := applyFlags(cfg, cmd); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	cfg.Sink = strings.ToLower(cfg.Sink)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads path, or .env when path is empty. A missing default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strVar := func(dst *string, names ...string) {
		for _, n := range names {
			if v := strings.TrimSpace(os.Getenv(n)); v != "" {
				*dst = v
				return
			}
		}
	}

	strVar(&cfg.LogLevel, "BIZCRAWL_LOG_LEVEL")
	strVar(&cfg.UserAgent, "BIZCRAWL_USER_AGENT")
	strVar(&cfg.Proxy, "BIZCRAWL_PROXY")
	strVar(&cfg.ChromePath, "BIZCRAWL_CHROME_PATH")
	strVar(&cfg.BrowserURL, "BIZCRAWL_BROWSER_URL")
	strVar(&cfg.SearchURL, "BIZCRAWL_SEARCH_URL", "SEARCH_URL")
	strVar(&cfg.Mode, "BIZCRAWL_MODE")
	strVar(&cfg.ResultsSelector, "BIZCRAWL_RESULTS_SELECTOR")
	strVar(&cfg.LinkSelector, "BIZCRAWL_LINK_SELECTOR")
	strVar(&cfg.ProfileSelector, "BIZCRAWL_PROFILE_SELECTOR")
	strVar(&cfg.Sink, "BIZCRAWL_SINK")
	strVar(&cfg.RedisAddr, "BIZCRAWL_REDIS_ADDR", "REDIS_ADDR")
	strVar(&cfg.SubmitURL, "BIZCRAWL_SUBMIT_URL")
	strVar(&cfg.DeleteURL, "BIZCRAWL_DELETE_URL")
	strVar(&cfg.PhoneRegion, "BIZCRAWL_PHONE_REGION")
	strVar(&cfg.Model, "BIZCRAWL_MODEL")
	strVar(&cfg.ListenAddr, "BIZCRAWL_LISTEN_ADDR")

	var errs []error
	parse := func(name string, fn func(string) error) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}

	parse("BIZCRAWL_JSON_LOG", func(v string) (err error) { cfg.JSONLog, err = strconv.ParseBool(v); return })
	parse("BIZCRAWL_HEADLESS", func(v string) (err error) { cfg.Headless, err = strconv.ParseBool(v); return })
	parse("BIZCRAWL_NAV_TIMEOUT", func(v string) (err error) { cfg.NavTimeout, err = time.ParseDuration(v); return })
	parse("BIZCRAWL_WAIT_TIMEOUT", func(v string) (err error) { cfg.WaitTimeout, err = time.ParseDuration(v); return })
	parse("BIZCRAWL_MODEL_TIMEOUT", func(v string) (err error) { cfg.ModelTimeout, err = time.ParseDuration(v); return })
	parse("BIZCRAWL_MAX_PAGES", func(v string) (err error) { cfg.MaxPages, err = strconv.Atoi(v); return })
	parse("BIZCRAWL_REDIS_DB", func(v string) (err error) { cfg.RedisDB, err = strconv.Atoi(v); return })
	parse("BIZCRAWL_RATE_LIMIT_BURST", func(v string) (err error) { cfg.RateLimitBurst, err = strconv.Atoi(v); return })
	parse("BIZCRAWL_RATE_LIMIT_RPS", func(v string) (err error) { cfg.RateLimitRPS, err = strconv.ParseFloat(v, 64); return })
	parse("BIZCRAWL_RATE_LIMIT_HOSTS", func(v string) (err error) { cfg.RateLimitHosts, err = ratelimit.ParseOverrides(v); return })
	parse("BIZCRAWL_MODEL_MAX_TOKENS", func(v string) (err error) { cfg.MaxTokens, err = strconv.ParseInt(v, 10, 64); return })

	return errors.Join(errs...)
}

// applySecrets fills credentials that the environment did not provide from the keyring
func applySecrets(cfg *Config) {
	if cfg.AnthropicAPIKey == "" {
		cfg.AnthropicAPIKey = secrets.Lookup(secrets.AnthropicAPIKey)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = secrets.Lookup(secrets.DatabaseURL)
	}
	if cfg.RedisPassword == "" {
		cfg.RedisPassword = secrets.Lookup(secrets.RedisPassword)
	}
}

func applyFlags(cfg *Config, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if flagBool(cmd, "verbose") {
		cfg.LogLevel = "debug"
	} else if flagBool(cmd, "quiet") {
		cfg.LogLevel = "error"
	}
	if flagBool(cmd, "json") {
		cfg.JSONLog = true
	}
	if flagBool(cmd, "headful") {
		cfg.Headless = false
	}

	setString := func(dst *string, name string) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	setString(&cfg.UserAgent, "user-agent")
	setString(&cfg.Proxy, "proxy")
	setString(&cfg.ChromePath, "chrome-path")
	setString(&cfg.BrowserURL, "browser-url")
	setString(&cfg.Sink, "sink")
	setString(&cfg.Model, "model")
	setString(&cfg.ListenAddr, "listen")

	for name, dst := range map[string]*time.Duration{"timeout": &cfg.NavTimeout, "wait-timeout": &cfg.WaitTimeout} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			d, err := time.ParseDuration(f.Value.String())
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = d
		}
	}

	if f := cmd.Flags().Lookup("max-pages"); f != nil && f.Changed {
		n, err := strconv.Atoi(f.Value.String())
		if err != nil {
			return fmt.Errorf("--max-pages: %w", err)
		}
		cfg.MaxPages = n
	}
	if flagBool(cmd, "llm") {
		cfg.Mode = "model"
	}

	if hs, err := cmd.Flags().GetStringArray("header"); err == nil && len(hs) > 0 {
		cfg.Headers = headers.Merge(cfg.Headers, headers.ParseHeaders(hs))
	}
	return nil
}

func flagBool(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Value.String() == "true"
}

func flagString(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}
