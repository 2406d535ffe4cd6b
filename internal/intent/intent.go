package intent

import "strings"

type Intent string

const (
	DocumentQuestion   Intent = "document_question"
	AppointmentRequest Intent = "appointment_request"
	ContactRequest     Intent = "contact_request"
)

// StartsForm reports whether a message with this intent should open the
// booking form.
func (i Intent) StartsForm() bool {
	return i == AppointmentRequest || i == ContactRequest
}

var labels = map[string]Intent{
	"qa":          DocumentQuestion,
	"appointment": AppointmentRequest,
	"contact":     ContactRequest,
}

// ParseLabel maps a classifier label to an Intent. Surrounding whitespace and
// case are ignored; anything else is unrecognised.
func ParseLabel(label string) (Intent, bool) {
	i, ok := labels[strings.ToLower(strings.TrimSpace(label))]
	return i, ok
}

var fallbackPhrases = []string{
	"book",
	"schedule",
	"appointment",
	"call me",
	"contact me",
	"phone number",
	"email me",
	"reach out",
	"reserve",
	"set up meeting",
	"make appointment",
}

// KeywordFallback classifies without the model: any booking phrase in the
// lower-cased message means an appointment request. It never returns
// ContactRequest.
func KeywordFallback(message string) Intent {
	lower := strings.ToLower(message)
	for _, phrase := range fallbackPhrases {
		if strings.Contains(lower, phrase) {
			return AppointmentRequest
		}
	}
	return DocumentQuestion
}
