package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// DefaultFromName is the display name used for outbound mail when
// MAIL_FROM_NAME is not configured.
const DefaultFromName = "KerithCo Luxe Events"

// Mail holds every environment value the mail dispatcher can consume.
// Completeness is deliberately not enforced here; the dispatcher validates
// the active provider mode on every send so misconfiguration surfaces with
// a precise message at the moment of use.
type Mail struct {
	MailjetAPIKey    string
	MailjetSecretKey string
	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPass         string
	FromEmail        string
	FromName         string
	ContactTo        string
}

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string
	Mail               Mail
	ContactRateMax     int
	ContactRateWindow  time.Duration
	VerifyTimeout      time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		Mail: Mail{
			MailjetAPIKey:    strings.TrimSpace(k.String("MAILJET_API_KEY")),
			MailjetSecretKey: strings.TrimSpace(k.String("MAILJET_SECRET_KEY")),
			SMTPHost:         strings.TrimSpace(k.String("SMTP_HOST")),
			SMTPPort:         strings.TrimSpace(k.String("SMTP_PORT")),
			SMTPUser:         strings.TrimSpace(k.String("SMTP_USER")),
			SMTPPass:         k.String("SMTP_PASS"),
			FromEmail:        strings.TrimSpace(k.String("MAIL_FROM_EMAIL")),
			FromName:         valueOrDefault(k.String("MAIL_FROM_NAME"), DefaultFromName),
			ContactTo:        strings.TrimSpace(k.String("CONTACT_TO_EMAIL")),
		},
		ContactRateMax:    parseInt(k.String("CONTACT_RATE_MAX"), 5),
		ContactRateWindow: parseDuration(k.String("CONTACT_RATE_WINDOW"), "1m"),
		VerifyTimeout:     parseDuration(k.String("MAIL_VERIFY_TIMEOUT"), "5s"),
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
