package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/qwakuacquah/kerithco-events-api/internal/common"
	"github.com/qwakuacquah/kerithco-events-api/internal/mailer"
	"github.com/qwakuacquah/kerithco-events-api/internal/obs"
)

// Sender is the slice of the mail dispatcher the contact handler needs.
type Sender interface {
	Send(ctx context.Context, req mailer.Request) (mailer.Result, error)
	DefaultRecipient() string
}

// Handler receives contact-form submissions and relays them by email.
type Handler struct {
	Mailer   Sender
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Submission is the JSON payload posted by the website's contact form.
type Submission struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
	EventType  string `json:"eventType" validate:"omitempty,max=80"`
	EventDate  string `json:"eventDate" validate:"omitempty,max=40"`
	GuestCount int    `json:"guestCount" validate:"omitempty,min=1,max=100000"`
	Message    string `json:"message" validate:"required,max=4000"`
}

// Submit handles POST /api/v1/contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Mailer == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "contact mailer not configured", nil)
		return
	}

	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.observe("bad_request")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Message = strings.TrimSpace(sub.Message)

	if err := h.validate(sub); err != nil {
		h.observe("invalid")
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid submission", validationDetails(err))
		return
	}

	to := h.Mailer.DefaultRecipient()
	if to == "" {
		h.observe("config_error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "contact inbox not configured", nil)
		return
	}

	res, err := h.Mailer.Send(r.Context(), mailer.Request{
		To:       to,
		Subject:  fmt.Sprintf("New event inquiry from %s", sub.Name),
		HTMLBody: renderBody(sub),
		ReplyTo:  sub.Email,
	})
	if err != nil {
		h.writeSendError(w, err)
		return
	}

	h.observe("sent")
	common.JSONData(w, http.StatusOK, map[string]any{"messageId": res.MessageID})
}

func (h *Handler) validate(sub Submission) error {
	if h.Validate == nil {
		if sub.Name == "" || sub.Email == "" || sub.Message == "" {
			return errors.New("name, email and message are required")
		}
		return nil
	}
	return h.Validate.Struct(sub)
}

// writeSendError translates dispatcher failures into the user-facing shape.
// Configuration problems are ours; transport problems are upstream. Either
// way the submitter gets a retry hint, not internals.
func (h *Handler) writeSendError(w http.ResponseWriter, err error) {
	var derr *mailer.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case mailer.KindConfigIncomplete, mailer.KindMissingFrom:
			h.observe("config_error")
			h.Logger.Error().Err(err).Strs("missing", derr.Missing).Msg("contact form misconfigured")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "the contact form is temporarily unavailable", nil)
			return
		default:
			h.observe("send_error")
			h.Logger.Error().Err(err).Msg("contact email rejected upstream")
			common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "we could not deliver your message, please try again shortly", nil)
			return
		}
	}

	h.observe("send_error")
	h.Logger.Error().Err(err).Msg("contact email failed")
	common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "we could not deliver your message, please try again shortly", nil)
}

func (h *Handler) observe(result string) {
	if obs.ContactSubmissionsTotal != nil {
		obs.ContactSubmissionsTotal.WithLabelValues(result).Inc()
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
	}
	return details
}
