package comms

import (
	"fmt"
	"time"
)

// Kind categorises a mass communication.
type Kind string

const (
	KindNewsletter    Kind = "newsletter"
	KindAnnouncement  Kind = "announcement"
	KindMonthlyReport Kind = "monthly_report"
)

// Audience selects the recipient set.
type Audience string

const (
	AudienceAll    Audience = "all"
	AudienceActive Audience = "active"
)

// Status is the communication lifecycle state.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
)

// ParseKind validates a communication kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNewsletter, KindAnnouncement, KindMonthlyReport:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown communication type %q", s)
	}
}

// ParseAudience validates a recipient selector.
func ParseAudience(s string) (Audience, error) {
	switch Audience(s) {
	case AudienceAll, AudienceActive:
		return Audience(s), nil
	case "":
		return AudienceAll, nil
	default:
		return "", fmt.Errorf("unknown audience %q", s)
	}
}

// Communication is a mass message drafted by an admin and fanned out to
// clients through the job queue.
type Communication struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"type"`
	Subject        string     `json:"subject"`
	Content        string     `json:"content"`
	Audience       Audience   `json:"recipients"`
	Status         Status     `json:"status"`
	RecipientCount int        `json:"recipientCount"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
}
