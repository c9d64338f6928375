package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

// LeadService accepts contact form submissions. Every submission counts
// against the contact rate limit before it is validated.
type LeadService struct {
	limiter   ports.RateLimiter
	repo      ports.LeadRepository
	publisher ports.EventPublisher
	validate  *validator.Validate
	now       func() time.Time
	logger    *slog.Logger
}

var _ ports.LeadSubmitter = (*LeadService)(nil)

type LeadServiceOption func(*LeadService)

// WithLeadPublisher announces stored leads on the event bus.
func WithLeadPublisher(p ports.EventPublisher) LeadServiceOption {
	return func(s *LeadService) { s.publisher = p }
}

func WithLeadClock(now func() time.Time) LeadServiceOption {
	return func(s *LeadService) { s.now = now }
}

func WithLeadLogger(logger *slog.Logger) LeadServiceOption {
	return func(s *LeadService) { s.logger = logger }
}

// NewLeadService wires the submission flow. repo may be nil when no lead
// storage is configured; submissions then fail with domain.ErrLeadNotSaved.
func NewLeadService(limiter ports.RateLimiter, repo ports.LeadRepository, opts ...LeadServiceOption) (*LeadService, error) {
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if !limiter.Supports(domain.ActionContact) {
		return nil, fmt.Errorf("rate limiter has no policy for %q", domain.ActionContact)
	}

	v, err := newLeadValidator()
	if err != nil {
		return nil, err
	}

	s := &LeadService{
		limiter:  limiter,
		repo:     repo,
		validate: v,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func newLeadValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("enquiry_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.EnquiryTypes, fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register enquiry type validation: %w", err)
	}
	return v, nil
}

// Submit rate limits, validates and stores one lead for identifier.
//
// It returns a *domain.ThrottledError when the caller is over quota, a
// *domain.ValidationError for a bad form and domain.ErrLeadNotSaved when
// storage fails. A broken rate limit store does not block submissions.
func (s *LeadService) Submit(ctx context.Context, identifier string, form domain.LeadForm) (domain.Lead, error) {
	decision, err := s.limiter.Check(ctx, identifier, domain.ActionContact)
	switch {
	case err != nil:
		s.logger.Error("rate limit check failed, admitting lead", slog.Any("error", err))
	case !decision.Allowed:
		s.logger.Warn("lead submission throttled",
			slog.String("identifier", decision.Identifier),
			slog.Int("retry_after", decision.RetryAfterSeconds()))
		return domain.Lead{}, &domain.ThrottledError{Action: domain.ActionContact, RetryAfter: decision.RetryAfter}
	}

	form = normalizeForm(form)
	if err := s.validateForm(form); err != nil {
		return domain.Lead{}, err
	}

	lead := domain.Lead{
		Name:        form.Name,
		Email:       form.Email,
		Phone:       form.Phone,
		EnquiryType: form.EnquiryType,
		Message:     form.Message,
		SubmittedAt: s.now().UTC(),
		Status:      domain.LeadStatusNew,
	}

	if s.repo == nil {
		s.logger.Error("lead storage is not configured")
		return domain.Lead{}, domain.ErrLeadNotSaved
	}
	id, err := s.repo.Insert(ctx, lead)
	if err != nil {
		s.logger.Error("failed to store lead", slog.Any("error", err))
		return domain.Lead{}, domain.ErrLeadNotSaved
	}
	lead.ID = id

	s.logger.Info("lead stored", slog.String("lead_id", id), slog.String("enquiry_type", lead.EnquiryType))
	s.announce(ctx, lead)

	return lead, nil
}

func (s *LeadService) announce(ctx context.Context, lead domain.Lead) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, domain.TopicLeadSubmitted, domain.LeadSubmittedEvent{
		LeadID:      lead.ID,
		Name:        lead.Name,
		Email:       lead.Email,
		Phone:       lead.Phone,
		EnquiryType: lead.EnquiryType,
		Message:     lead.Message,
		SubmittedAt: lead.SubmittedAt,
	})
	if err != nil {
		s.logger.Warn("failed to publish lead event", slog.String("lead_id", lead.ID), slog.Any("error", err))
	}
}

func normalizeForm(form domain.LeadForm) domain.LeadForm {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Phone = strings.Join(strings.Fields(form.Phone), "")
	form.EnquiryType = strings.TrimSpace(form.EnquiryType)
	form.Message = strings.TrimSpace(form.Message)
	return form
}

func (s *LeadService) validateForm(form domain.LeadForm) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidLead, err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a phone number in international format, e.g. +919876543210"
	case "enquiry_type":
		return "must be one of: " + strings.Join(domain.EnquiryTypes, ", ")
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
