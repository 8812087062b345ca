package mailer

import (
	"strconv"
)

const (
	// MailjetHost is the fixed SMTP submission endpoint for the Mailjet relay.
	MailjetHost = "in-v3.mailjet.com"

	defaultPort     = 587
	implicitTLSPort = 465
)

// Mode identifies which configuration path supplies the transport settings.
type Mode int

const (
	// ModeDirect uses generic SMTP_* values as-is.
	ModeDirect Mode = iota
	// ModeMailjet derives host, port and credentials from the Mailjet key pair.
	ModeMailjet
)

func (m Mode) String() string {
	if m == ModeMailjet {
		return "mailjet"
	}
	return "smtp"
}

// Settings carries the raw environment values the resolver consumes.
// The caller maps these from its configuration source; the resolver never
// reads ambient globals.
type Settings struct {
	MailjetAPIKey    string
	MailjetSecretKey string
	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPass         string
	FromEmail        string
	FromName         string
	DefaultTo        string
}

// Provider is the resolved transport configuration. It is computed once at
// startup and shared read-only across all sends.
type Provider struct {
	Mode        Mode
	Host        string
	Port        int
	Username    string
	Password    string
	ImplicitTLS bool
	FromEmail   string
	FromName    string
	DefaultTo   string

	mailjetKeySet    bool
	mailjetSecretSet bool
}

// ResolveProvider picks the active mode and fixes every transport field in
// one place. When both Mailjet credentials are present they override any
// SMTP_* values wholesale; a partial pair falls through to direct mode.
func ResolveProvider(s Settings) Provider {
	p := Provider{
		FromEmail:        s.FromEmail,
		FromName:         s.FromName,
		DefaultTo:        s.DefaultTo,
		mailjetKeySet:    s.MailjetAPIKey != "",
		mailjetSecretSet: s.MailjetSecretKey != "",
	}

	if p.mailjetKeySet && p.mailjetSecretSet {
		p.Mode = ModeMailjet
		p.Host = MailjetHost
		p.Port = defaultPort
		p.Username = s.MailjetAPIKey
		p.Password = s.MailjetSecretKey
		p.ImplicitTLS = false
		return p
	}

	p.Mode = ModeDirect
	p.Host = s.SMTPHost
	p.Port = parsePort(s.SMTPPort)
	p.Username = s.SMTPUser
	p.Password = s.SMTPPass
	p.ImplicitTLS = p.Port == implicitTLSPort
	return p
}

func parsePort(raw string) int {
	if raw == "" {
		return defaultPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 {
		return defaultPort
	}
	return port
}

// DisplayName is the operator-facing name of the active provider, used in
// translated error messages.
func (p Provider) DisplayName() string {
	if p.Mode == ModeMailjet {
		return "Mailjet"
	}
	return "SMTP"
}

func (p Provider) credentialHint() string {
	if p.Mode == ModeMailjet {
		return "MAILJET_API_KEY and MAILJET_SECRET_KEY"
	}
	return "SMTP_USER and SMTP_PASS"
}

// Validation reports whether the provider is complete enough to send mail.
type Validation struct {
	Valid   bool
	Missing []string
}

// Validate checks send-time completeness for the active mode. Mailjet mode
// only needs a from address on top of the already-confirmed key pair; direct
// mode needs host, user, password and from address. User and password
// entries name both configuration paths so the operator knows either one
// would do.
//
// When exactly one Mailjet credential is set the operator probably intended
// relay mode, so the missing list also names the absent half of the pair
// instead of silently demanding direct-mode values only.
func (p Provider) Validate() Validation {
	var missing []string

	if p.Mode == ModeMailjet {
		if p.FromEmail == "" {
			missing = append(missing, "MAIL_FROM_EMAIL")
		}
		return Validation{Valid: len(missing) == 0, Missing: missing}
	}

	if p.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if p.Username == "" {
		missing = append(missing, "SMTP_USER or MAILJET_API_KEY")
	}
	if p.Password == "" {
		missing = append(missing, "SMTP_PASS or MAILJET_SECRET_KEY")
	}
	if p.FromEmail == "" {
		missing = append(missing, "MAIL_FROM_EMAIL")
	}
	if p.mailjetKeySet && !p.mailjetSecretSet {
		missing = append(missing, "MAILJET_SECRET_KEY (MAILJET_API_KEY is set but has no effect without it)")
	}
	if p.mailjetSecretSet && !p.mailjetKeySet {
		missing = append(missing, "MAILJET_API_KEY (MAILJET_SECRET_KEY is set but has no effect without it)")
	}

	return Validation{Valid: len(missing) == 0, Missing: missing}
}

// DefaultRecipient returns the configured default recipient, falling back to
// the from address. Empty when neither is configured.
func (p Provider) DefaultRecipient() string {
	if p.DefaultTo != "" {
		return p.DefaultTo
	}
	return p.FromEmail
}
