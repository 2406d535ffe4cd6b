package form

// Field identifies one slot of the booking form.
type Field string

const (
	FieldName              Field = "name"
	FieldPhone             Field = "phone"
	FieldEmail             Field = "email"
	FieldPreferredDatetime Field = "preferred_datetime"
	FieldNotes             Field = "notes"
)

// RequiredFields are collected strictly in this order.
var RequiredFields = []Field{
	FieldName,
	FieldPhone,
	FieldEmail,
	FieldPreferredDatetime,
}

// AllFields lists every field, required ones first.
var AllFields = append(append([]Field(nil), RequiredFields...), FieldNotes)

func (f Field) Required() bool {
	return f != FieldNotes
}

func (f Field) Valid() bool {
	switch f {
	case FieldName, FieldPhone, FieldEmail, FieldPreferredDatetime, FieldNotes:
		return true
	}
	return false
}

var prompts = map[Field]string{
	FieldName:              "Sure, what is your full name?",
	FieldPhone:             "What's the best phone number to reach you?",
	FieldEmail:             "And your email address?",
	FieldPreferredDatetime: "When would you prefer the appointment?",
	FieldNotes:             "Any additional notes or preferences? (optional)",
}

var acknowledgements = map[Field]string{
	FieldName:              "Thanks!",
	FieldPhone:             "Got it.",
	FieldEmail:             "Thanks.",
	FieldPreferredDatetime: "Noted.",
	FieldNotes:             "Thanks for the details.",
}

// Prompt returns the question asked for f.
func Prompt(f Field) string {
	if p, ok := prompts[f]; ok {
		return p
	}
	return "Could you provide that information?"
}

func acknowledge(f Field) string {
	if a, ok := acknowledgements[f]; ok {
		return a
	}
	return "Thanks."
}
