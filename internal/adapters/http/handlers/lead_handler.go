package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/anvkup/avnmusicstudio/internal/adapters/http/middleware"
	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

const (
	maxLeadBodyBytes = 64 << 10

	leadSavedMessage   = "Thank you! Your enquiry has been sent successfully."
	leadInvalidMessage = "Please correct the highlighted fields."
	leadFailedMessage  = "Sorry, something went wrong. Please try again."
	throttledMessage   = "Too many requests. Please try again later."
)

type LeadHandler struct {
	submitter ports.LeadSubmitter
	logger    *slog.Logger
}

func NewLeadHandler(submitter ports.LeadSubmitter, logger *slog.Logger) *LeadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadHandler{submitter: submitter, logger: logger}
}

type leadCreatedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Submit accepts the enquiry form as JSON or as a regular form post.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLeadBodyBytes)

	form, err := decodeLeadForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.submitter.Submit(r.Context(), middleware.ClientIPFrom(r.Context()), form)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, leadCreatedResponse{Message: leadSavedMessage, ID: lead.ID})
}

func (h *LeadHandler) writeSubmitError(w http.ResponseWriter, err error) {
	var throttled *domain.ThrottledError
	var invalid *domain.ValidationError

	switch {
	case errors.As(err, &throttled):
		secs := throttled.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: throttledMessage, RetryAfter: secs})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: leadInvalidMessage, Fields: invalid.Fields})
	case errors.Is(err, domain.ErrInvalidLead):
		writeError(w, http.StatusBadRequest, leadInvalidMessage)
	default:
		if !errors.Is(err, domain.ErrLeadNotSaved) {
			h.logger.Error("unexpected lead submission error", slog.Any("error", err))
		}
		writeError(w, http.StatusInternalServerError, leadFailedMessage)
	}
}

func decodeLeadForm(r *http.Request) (domain.LeadForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxLeadBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return domain.LeadForm{}, err
		}
		return domain.LeadForm{
			Name:        r.PostFormValue("name"),
			Email:       r.PostFormValue("email"),
			Phone:       r.PostFormValue("phone"),
			EnquiryType: r.PostFormValue("enquiry-type"),
			Message:     r.PostFormValue("message"),
		}, nil
	default:
		var form domain.LeadForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return domain.LeadForm{}, err
		}
		return form, nil
	}
}
