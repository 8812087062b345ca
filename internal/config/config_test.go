package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qwakuacquah/kerithco-events-api/internal/config"
)

// mailKeys clears every mail-related variable so ambient environment never
// leaks into assertions.
func mailKeys(overrides map[string]string) map[string]string {
	env := map[string]string{
		"MAILJET_API_KEY":     "",
		"MAILJET_SECRET_KEY":  "",
		"SMTP_HOST":           "",
		"SMTP_PORT":           "",
		"SMTP_USER":           "",
		"SMTP_PASS":           "",
		"MAIL_FROM_EMAIL":     "",
		"MAIL_FROM_NAME":      "",
		"CONTACT_TO_EMAIL":    "",
		"CONTACT_RATE_MAX":    "",
		"CONTACT_RATE_WINDOW": "",
		"MAIL_VERIFY_TIMEOUT": "",
		"APP_ENV":             "",
		"PORT":                "",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(mailKeys(nil))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, config.DefaultFromName, cfg.Mail.FromName)
	require.Equal(t, 5, cfg.ContactRateMax)
	require.Equal(t, time.Minute, cfg.ContactRateWindow)
	require.Equal(t, 5*time.Second, cfg.VerifyTimeout)
}

func TestLoadMailValues(t *testing.T) {
	cfg, err := config.LoadForTests(mailKeys(map[string]string{
		"MAILJET_API_KEY":    "key",
		"MAILJET_SECRET_KEY": "secret",
		"MAIL_FROM_EMAIL":    "events@kerithco.com",
		"MAIL_FROM_NAME":     "Kerith Events Desk",
		"CONTACT_TO_EMAIL":   "inbox@kerithco.com",
	}))
	require.NoError(t, err)

	require.Equal(t, "key", cfg.Mail.MailjetAPIKey)
	require.Equal(t, "secret", cfg.Mail.MailjetSecretKey)
	require.Equal(t, "events@kerithco.com", cfg.Mail.FromEmail)
	require.Equal(t, "Kerith Events Desk", cfg.Mail.FromName)
	require.Equal(t, "inbox@kerithco.com", cfg.Mail.ContactTo)
}

func TestLoadDoesNotRequireMailCompleteness(t *testing.T) {
	// Missing mail configuration must surface at send time, not load time.
	cfg, err := config.LoadForTests(mailKeys(map[string]string{"SMTP_HOST": "smtp.example.com"}))
	require.NoError(t, err)
	require.Equal(t, "smtp.example.com", cfg.Mail.SMTPHost)
	require.Empty(t, cfg.Mail.FromEmail)
}

func TestHTTPAddrNormalisesPort(t *testing.T) {
	cfg, err := config.LoadForTests(mailKeys(map[string]string{"PORT": "9999"}))
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.HTTPAddr())

	cfg, err = config.LoadForTests(mailKeys(map[string]string{"PORT": ":7777"}))
	require.NoError(t, err)
	require.Equal(t, ":7777", cfg.HTTPAddr())
}

func TestRateSettingsFallBackOnBadInput(t *testing.T) {
	cfg, err := config.LoadForTests(mailKeys(map[string]string{
		"CONTACT_RATE_MAX":    "zero",
		"CONTACT_RATE_WINDOW": "soon",
	}))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.ContactRateMax)
	require.Equal(t, time.Minute, cfg.ContactRateWindow)
}
