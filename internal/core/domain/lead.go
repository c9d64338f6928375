package domain

import "time"

// LeadStatusNew marks a lead nobody has followed up yet.
const LeadStatusNew = "New Lead"

// EnquiryTypes are the options offered by the enquiry form.
var EnquiryTypes = []string{
	"Music Production",
	"Mixing / Mastering",
	"Recording",
	"Jingle / Advertisement",
	"Background Music / Foley",
	"Other",
}

// LeadForm is the payload a visitor submits through the contact form.
type LeadForm struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"required,e164"`
	EnquiryType string `json:"enquiry-type" validate:"required,enquiry_type"`
	Message     string `json:"message" validate:"max=5000"`
}

type Lead struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	EnquiryType string
	Message     string
	SubmittedAt time.Time
	Status      string
}

// LeadSubmittedEvent is published after a lead is stored.
type LeadSubmittedEvent struct {
	LeadID      string    `json:"leadId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	EnquiryType string    `json:"enquiryType"`
	Message     string    `json:"message,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

const TopicLeadSubmitted = "lead.submitted"
