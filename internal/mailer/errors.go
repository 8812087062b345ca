package mailer

import (
	"errors"
	"net"
	"net/textproto"
	"strings"
	"syscall"
)

// Kind classifies a dispatch failure into one of the known causes.
type Kind int

const (
	// KindConfigIncomplete means required configuration keys are unset.
	KindConfigIncomplete Kind = iota + 1
	// KindMissingFrom means the sender address is unset.
	KindMissingFrom
	// KindCredentialsMissing means the server demanded authentication the
	// transport was not configured for.
	KindCredentialsMissing
	// KindAuthFailed means the server rejected the configured credentials.
	KindAuthFailed
	// KindConnectionFailed means the server could not be reached.
	KindConnectionFailed
)

func (k Kind) String() string {
	switch k {
	case KindConfigIncomplete:
		return "config_incomplete"
	case KindMissingFrom:
		return "missing_from"
	case KindCredentialsMissing:
		return "credentials_missing"
	case KindAuthFailed:
		return "auth_failed"
	case KindConnectionFailed:
		return "connection_failed"
	default:
		return "unclassified"
	}
}

// Error is a dispatch failure translated into an actionable message.
type Error struct {
	Kind    Kind
	Message string
	Missing []string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// substring fallbacks for transports that do not surface typed errors.
// Typed checks in classifyKind run first.
var classifyTable = []struct {
	substr string
	kind   Kind
}{
	{"Invalid login", KindAuthFailed},
	{"Username and Password not accepted", KindAuthFailed},
	{"authentication failed", KindAuthFailed},
	{"Missing credentials", KindCredentialsMissing},
	{"ECONNREFUSED", KindConnectionFailed},
	{"connection refused", KindConnectionFailed},
	{"ETIMEDOUT", KindConnectionFailed},
	{"i/o timeout", KindConnectionFailed},
}

// classifyKind maps a transport error onto a known failure cause, preferring
// structured SMTP and network errors over message text.
func classifyKind(err error) (Kind, bool) {
	var smtpErr *textproto.Error
	if errors.As(err, &smtpErr) {
		switch smtpErr.Code {
		case 535:
			return KindAuthFailed, true
		case 530:
			return KindCredentialsMissing, true
		}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionFailed, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindConnectionFailed, true
	}

	msg := err.Error()
	for _, entry := range classifyTable {
		if strings.Contains(msg, entry.substr) {
			return entry.kind, true
		}
	}
	return 0, false
}
