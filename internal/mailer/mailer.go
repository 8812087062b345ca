package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	mail "gopkg.in/mail.v2"

	"github.com/qwakuacquah/kerithco-events-api/internal/obs"
)

// Request describes one outbound HTML email.
type Request struct {
	To       string
	Subject  string
	HTMLBody string
	ReplyTo  string
	FromName string
}

// Result carries the identifier assigned to a dispatched message.
type Result struct {
	MessageID string
}

// Dispatcher sends HTML email over a single shared transport. It is safe
// for concurrent use: the dialer is read-only after construction and every
// send opens its own connection.
type Dispatcher struct {
	provider Provider
	dialer   *mail.Dialer
	logger   zerolog.Logger
}

// New builds the dispatcher and its reusable transport. Credentials are
// attached only when both halves are present so an unauthenticated relay
// remains a valid transport; Send still enforces the stricter completeness
// rule before dispatching.
func New(p Provider, logger zerolog.Logger) *Dispatcher {
	d := &mail.Dialer{
		Host:    p.Host,
		Port:    p.Port,
		SSL:     p.ImplicitTLS,
		Timeout: 10 * time.Second,
	}
	if p.Username != "" && p.Password != "" {
		d.Username = p.Username
		d.Password = p.Password
	}
	return &Dispatcher{
		provider: p,
		dialer:   d,
		logger:   logger.With().Str("component", "mailer").Str("provider", p.Mode.String()).Logger(),
	}
}

// Provider returns the resolved transport configuration.
func (d *Dispatcher) Provider() Provider { return d.provider }

// Validate reports send-time configuration completeness.
func (d *Dispatcher) Validate() Validation { return d.provider.Validate() }

// DefaultRecipient returns the configured contact inbox, falling back to the
// from address.
func (d *Dispatcher) DefaultRecipient() string { return d.provider.DefaultRecipient() }

// Verify performs a live handshake against the configured transport and
// reports whether it succeeded. Failures are logged, never returned;
// credentials appear only in redacted form.
func (d *Dispatcher) Verify(ctx context.Context) bool {
	sc, err := d.dial(ctx)
	if err != nil {
		evt := d.logger.Error().Err(err).Str("host", d.provider.Host).Int("port", d.provider.Port)
		if d.provider.Mode == ModeMailjet {
			evt = evt.
				Str("api_key", redactKey(d.provider.Username)).
				Bool("secret_key_present", d.provider.Password != "")
		}
		evt.Msg("mail transport verification failed")
		return false
	}
	if err := sc.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("close verification connection")
	}
	return true
}

// Send validates configuration, composes the message and dispatches exactly
// one email. Transport failures with a known cause come back as *Error; any
// other failure is logged in full and returned unchanged.
func (d *Dispatcher) Send(ctx context.Context, req Request) (Result, error) {
	if v := d.provider.Validate(); !v.Valid {
		err := &Error{
			Kind:    KindConfigIncomplete,
			Missing: v.Missing,
			Message: fmt.Sprintf("mail configuration incomplete: set %s in the environment", strings.Join(v.Missing, ", ")),
		}
		d.observe(err)
		return Result{}, err
	}

	fromName := req.FromName
	if fromName == "" {
		fromName = d.provider.FromName
	}
	if d.provider.FromEmail == "" {
		err := &Error{
			Kind:    KindMissingFrom,
			Missing: []string{"MAIL_FROM_EMAIL"},
			Message: "mail sender address missing: set MAIL_FROM_EMAIL in the environment",
		}
		d.observe(err)
		return Result{}, err
	}

	replyTo := req.ReplyTo
	if replyTo == "" {
		replyTo = d.provider.FromEmail
	}

	m := mail.NewMessage()
	m.SetHeader("From", m.FormatAddress(d.provider.FromEmail, fromName))
	m.SetHeader("To", req.To)
	m.SetHeader("Subject", req.Subject)
	m.SetHeader("Reply-To", replyTo)
	messageID := d.newMessageID()
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", req.HTMLBody)

	start := time.Now()
	sc, err := d.dial(ctx)
	if err != nil {
		return Result{}, d.translate(err)
	}
	defer func() {
		if err := sc.Close(); err != nil {
			d.logger.Warn().Err(err).Msg("close send connection")
		}
	}()

	if err := mail.Send(sc, m); err != nil {
		return Result{}, d.translate(err)
	}

	d.observe(nil)
	if obs.EmailSendLatency != nil {
		obs.EmailSendLatency.WithLabelValues(d.provider.Mode.String()).Observe(obs.DurationMillis(time.Since(start)))
	}
	d.logger.Info().Str("message_id", messageID).Str("to", req.To).Msg("email dispatched")
	return Result{MessageID: messageID}, nil
}

// dial opens a connection on the shared dialer, abandoning the attempt when
// the context ends first. The dialer's own timeout bounds the stray
// goroutine either way.
func (d *Dispatcher) dial(ctx context.Context) (mail.SendCloser, error) {
	type dialed struct {
		sc  mail.SendCloser
		err error
	}
	ch := make(chan dialed, 1)
	go func() {
		sc, err := d.dialer.Dial()
		ch <- dialed{sc: sc, err: err}
	}()
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.sc != nil {
				_ = r.sc.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		return r.sc, r.err
	}
}

// translate maps a transport failure to an actionable *Error, or logs and
// passes it through untouched when the cause is unknown.
func (d *Dispatcher) translate(err error) error {
	kind, ok := classifyKind(err)
	if !ok {
		d.logger.Error().Err(err).Str("host", d.provider.Host).Msg("unclassified mail send failure")
		d.observeKind("unclassified")
		return err
	}

	var message string
	switch kind {
	case KindCredentialsMissing:
		message = fmt.Sprintf("%s credentials missing: set %s", d.provider.DisplayName(), d.provider.credentialHint())
	case KindAuthFailed:
		message = fmt.Sprintf(
			"%s login failed: verify %s and that %s is a verified sender address",
			d.provider.DisplayName(), d.provider.credentialHint(), d.provider.FromEmail,
		)
	case KindConnectionFailed:
		message = fmt.Sprintf("could not reach mail server %s:%d: connection refused or timed out", d.provider.Host, d.provider.Port)
	}

	terr := &Error{Kind: kind, Message: message, cause: err}
	d.observe(terr)
	return terr
}

func (d *Dispatcher) newMessageID() string {
	domain := d.provider.Host
	if at := strings.LastIndex(d.provider.FromEmail, "@"); at >= 0 && at < len(d.provider.FromEmail)-1 {
		domain = d.provider.FromEmail[at+1:]
	}
	if domain == "" {
		domain = "localhost"
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

func (d *Dispatcher) observe(err *Error) {
	if err == nil {
		d.observeKind("sent")
		return
	}
	d.observeKind(err.Kind.String())
}

func (d *Dispatcher) observeKind(result string) {
	if obs.EmailSendTotal != nil {
		obs.EmailSendTotal.WithLabelValues(d.provider.Mode.String(), result).Inc()
	}
}

// redactKey keeps the first 4 characters of a credential for log
// correlation and drops the rest.
func redactKey(key string) string {
	if key == "" {
		return ""
	}
	runes := []rune(key)
	if len(runes) <= 4 {
		return string(runes) + "…"
	}
	return string(runes[:4]) + "…"
}
