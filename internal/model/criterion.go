package model

import "fmt"

// Criterion selects which message fields participate in duplicate detection.
type Criterion string

const (
	// CriterionStrict compares Message-ID, Date, From, Subject, and body.
	CriterionStrict Criterion = "strict"

	// CriterionContent compares the message body only.
	CriterionContent Criterion = "content"

	// CriterionHeaders compares Message-ID, Date, From, and Subject.
	CriterionHeaders Criterion = "headers"

	// CriterionSubjectSender compares Subject and From only. This is the
	// broadest criterion and carries the highest false-positive risk.
	CriterionSubjectSender Criterion = "subject-sender"
)

// Criteria lists all supported detection criteria in display order.
var Criteria = []Criterion{
	CriterionStrict,
	CriterionContent,
	CriterionHeaders,
	CriterionSubjectSender,
}

// ParseCriterion converts a string to a Criterion, rejecting unknown values.
func ParseCriterion(s string) (Criterion, error) {
	switch Criterion(s) {
	case CriterionStrict, CriterionContent, CriterionHeaders, CriterionSubjectSender:
		return Criterion(s), nil
	default:
		return "", fmt.Errorf("unknown detection criterion %q", s)
	}
}

// Description returns the human-readable field composition of the criterion.
func (c Criterion) Description() string {
	switch c {
	case CriterionStrict:
		return "Message-ID + Date + From + Subject + Content"
	case CriterionContent:
		return "Message content only"
	case CriterionHeaders:
		return "Message-ID + Date + From + Subject"
	case CriterionSubjectSender:
		return "Subject + From"
	default:
		return string(c)
	}
}

// ParseClientFlavor converts a string to a ClientFlavor, rejecting unknown
// values.
func ParseClientFlavor(s string) (ClientFlavor, error) {
	switch ClientFlavor(s) {
	case FlavorThunderbird, FlavorAppleMail, FlavorOutlook, FlavorGeneric:
		return ClientFlavor(s), nil
	default:
		return "", fmt.Errorf("unknown email client %q", s)
	}
}
