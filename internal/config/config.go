// Package config loads the service configuration once at startup.
//
// Values come from built-in defaults, then an optional YAML file, then the
// environment (including a .env file in the working directory). The result
// is validated and passed by value; nothing reads the environment after
// Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	_ "github.com/joho/godotenv/autoload"
)

// Sentinel errors for config loading.
var (
	ErrConfigRead  = errors.New("failed to read config file")
	ErrConfigParse = errors.New("failed to parse config")
	ErrInvalidEnv  = errors.New("invalid environment value")
	ErrInvalid     = errors.New("invalid configuration")
)

// MaxFileSize limits the YAML config file.
const MaxFileSize = 1 << 20

// Config holds every setting the service reads at startup.
type Config struct {
	Env      string `yaml:"env" validate:"omitempty,oneof=development production test"`
	LogLevel string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`

	// APIKey is only read from the environment.
	APIKey string `yaml:"-"`

	Engine               string        `yaml:"renderEngine" validate:"oneof=chromedp rod"`
	BrowserPath          string        `yaml:"browserPath"`
	BrowserAutoDownload  bool          `yaml:"browserAutoDownload"`
	NoSandbox            bool          `yaml:"noSandbox"`
	RenderTimeout        time.Duration `yaml:"renderTimeout" validate:"gt=0"`
	MaxConcurrentRenders int           `yaml:"maxConcurrentRenders" validate:"min=0"`

	TemplatePath string   `yaml:"templatePath" validate:"required"`
	LogoPath     string   `yaml:"logoPath" validate:"required"`
	AnnexPaths   []string `yaml:"annexPaths" validate:"dive,required"`
	WorkDir      string   `yaml:"workDir" validate:"required"`

	GeneratedBy string `yaml:"generatedBy"`
	Timezone    string `yaml:"timezone" validate:"omitempty,timezone"`

	MaxBodyBytes   int64    `yaml:"maxBodyBytes" validate:"gt=0"`
	RateLimitRPS   float64  `yaml:"rateLimitRPS" validate:"gte=0"`
	RateLimitBurst int      `yaml:"rateLimitBurst" validate:"gte=0"`
	CORSOrigins    []string `yaml:"corsOrigins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env:           "production",
		Port:          3000,
		Engine:        "chromedp",
		NoSandbox:     true,
		RenderTimeout: 60 * time.Second,
		TemplatePath:  "templates/index.1.html",
		LogoPath:      "templates/luminotest-logo.svg",
		AnnexPaths: []string{
			"templates/anexo1.pdf",
			"templates/anexo2.pdf",
			"templates/anexo3.pdf",
		},
		WorkDir:        "tmp",
		GeneratedBy:    "Generado por LUMINOTEST S.A.S.",
		MaxBodyBytes:   15 << 20,
		RateLimitBurst: 5,
		CORSOrigins:    []string{"https://*", "http://*"},
	}
}

// Load builds the configuration from the YAML file at path (skipped when
// empty) and the process environment.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigRead, err)
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrConfigRead, path, len(data), MaxFileSize)
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	env := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	setString := func(dst *string, keys ...string) {
		if v, ok := env(keys...); ok {
			*dst = v
		}
	}
	setString(&c.Env, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.APIKey, "API_KEY")
	setString(&c.Engine, "RENDER_ENGINE")
	setString(&c.BrowserPath, "PUPPETEER_EXECUTABLE_PATH", "BROWSER_PATH")
	setString(&c.TemplatePath, "TEMPLATE_PATH")
	setString(&c.LogoPath, "LOGO_PATH")
	setString(&c.WorkDir, "WORK_DIR")
	setString(&c.GeneratedBy, "GENERATED_BY")
	setString(&c.Timezone, "TIMEZONE")

	if v, ok := env("ANNEX_PATHS"); ok {
		c.AnnexPaths = splitList(v)
	}
	if v, ok := env("CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}

	var errs []error
	parse := func(key string, fn func(string) error) {
		if v, ok := env(key); ok {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, key, v, err))
			}
		}
	}
	parse("PORT", func(v string) (err error) { c.Port, err = strconv.Atoi(v); return })
	parse("RENDER_TIMEOUT", func(v string) (err error) { c.RenderTimeout, err = parseDuration(v); return })
	parse("MAX_CONCURRENT_RENDERS", func(v string) (err error) { c.MaxConcurrentRenders, err = strconv.Atoi(v); return })
	parse("MAX_BODY_BYTES", func(v string) (err error) { c.MaxBodyBytes, err = strconv.ParseInt(v, 10, 64); return })
	parse("RATE_LIMIT_RPS", func(v string) (err error) { c.RateLimitRPS, err = strconv.ParseFloat(v, 64); return })
	parse("RATE_LIMIT_BURST", func(v string) (err error) { c.RateLimitBurst, err = strconv.Atoi(v); return })
	parse("BROWSER_AUTO_DOWNLOAD", func(v string) (err error) { c.BrowserAutoDownload, err = strconv.ParseBool(v); return })
	parse("BROWSER_NO_SANDBOX", func(v string) (err error) { c.NoSandbox, err = strconv.ParseBool(v); return })
	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("90s") and plain seconds ("90").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Location resolves Timezone, defaulting to the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsDevelopment reports whether the service runs in the development
// environment.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
