package mailer

import (
	"errors"
	"net/textproto"
	"syscall"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestClassifyKindTypedErrors(t *testing.T) {
	kind, ok := classifyKind(&textproto.Error{Code: 535, Msg: "5.7.8 rejected"})
	require.True(t, ok)
	require.Equal(t, KindAuthFailed, kind)

	kind, ok = classifyKind(&textproto.Error{Code: 530, Msg: "5.7.0 Authentication Required"})
	require.True(t, ok)
	require.Equal(t, KindCredentialsMissing, kind)

	kind, ok = classifyKind(syscall.ECONNREFUSED)
	require.True(t, ok)
	require.Equal(t, KindConnectionFailed, kind)
}

func TestClassifyKindSubstringFallback(t *testing.T) {
	cases := []struct {
		msg  string
		kind Kind
	}{
		{"535 5.7.8 Invalid login: check credentials", KindAuthFailed},
		{"Username and Password not accepted", KindAuthFailed},
		{"Missing credentials for PLAIN", KindCredentialsMissing},
		{"connect ECONNREFUSED 10.0.0.5:587", KindConnectionFailed},
		{"connect ETIMEDOUT 10.0.0.5:587", KindConnectionFailed},
		{"read tcp: i/o timeout", KindConnectionFailed},
	}
	for _, tc := range cases {
		kind, ok := classifyKind(errors.New(tc.msg))
		require.True(t, ok, tc.msg)
		require.Equal(t, tc.kind, kind, tc.msg)
	}
}

func TestClassifyKindUnknownErrorPassesThrough(t *testing.T) {
	_, ok := classifyKind(errors.New("552 5.3.4 message size exceeds limit"))
	require.False(t, ok)
}

func TestTranslateNamesMailjetOnAuthFailure(t *testing.T) {
	p := ResolveProvider(Settings{
		MailjetAPIKey:    "abcdef123456",
		MailjetSecretKey: "secret",
		FromEmail:        "events@kerithco.com",
	})
	d := New(p, zerolog.Nop())

	err := d.translate(errors.New("535 5.7.8 Invalid login"))
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindAuthFailed, derr.Kind)
	require.Contains(t, derr.Message, "Mailjet login failed")
	require.Contains(t, derr.Message, "MAILJET_API_KEY")
	require.Contains(t, derr.Message, "events@kerithco.com")
}

func TestTranslateNamesHostOnConnectionFailure(t *testing.T) {
	p := ResolveProvider(Settings{
		SMTPHost:  "mail.internal.example",
		SMTPUser:  "u",
		SMTPPass:  "p",
		FromEmail: "events@kerithco.com",
	})
	d := New(p, zerolog.Nop())

	err := d.translate(errors.New("connect ECONNREFUSED"))
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindConnectionFailed, derr.Kind)
	require.Contains(t, derr.Message, "mail.internal.example")
}

func TestTranslatePassesUnknownErrorsUnchanged(t *testing.T) {
	d := New(ResolveProvider(Settings{SMTPHost: "h", SMTPUser: "u", SMTPPass: "p", FromEmail: "e@x.com"}), zerolog.Nop())

	original := errors.New("552 5.3.4 message size exceeds limit")
	require.Same(t, original, d.translate(original))
}

func TestRedactKey(t *testing.T) {
	require.Equal(t, "", redactKey(""))
	require.Equal(t, "ab…", redactKey("ab"))
	require.Equal(t, "abcd…", redactKey("abcdef123456"))
}
