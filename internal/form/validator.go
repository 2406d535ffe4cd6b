package form

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	msgNameRequired   = "Please provide your full name."
	msgEmailInvalid   = "That doesn't look like a valid email. Could you recheck it?"
	msgPhoneInvalid   = "Please provide a valid phone number with at least 10 digits."
	msgFieldUnhandled = "Sorry, I didn't get that."
)

// ValidationResult is either accepted with a normalised value or rejected
// with a message for the user.
type ValidationResult struct {
	Accepted bool
	Value    string
	Message  string
}

func Accept(value string) ValidationResult {
	return ValidationResult{Accepted: true, Value: value}
}

func Reject(message string) ValidationResult {
	return ValidationResult{Message: message}
}

// Validate checks and normalises a raw answer for a text field. Dates are
// not handled here; the form resolves them with a date extractor.
func Validate(field Field, raw string) ValidationResult {
	switch field {
	case FieldName:
		return ValidateName(raw)
	case FieldEmail:
		return ValidateEmail(raw)
	case FieldPhone:
		return ValidatePhone(raw)
	case FieldNotes:
		return ValidateNotes(raw)
	}
	return Reject(msgFieldUnhandled)
}

// ValidateName capitalises the first letter of every whitespace separated
// token and joins tokens with single spaces.
func ValidateName(raw string) ValidationResult {
	tokens := strings.Fields(raw)
	for i, tok := range tokens {
		r, size := utf8.DecodeRuneInString(tok)
		tokens[i] = string(unicode.ToUpper(r)) + tok[size:]
	}
	name := strings.Join(tokens, " ")
	if utf8.RuneCountInString(name) < 2 {
		return Reject(msgNameRequired)
	}
	return Accept(name)
}

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

func ValidateEmail(raw string) ValidationResult {
	email := strings.TrimSpace(raw)
	if !emailPattern.MatchString(email) {
		return Reject(msgEmailInvalid)
	}
	return Accept(strings.ToLower(email))
}

// ValidatePhone keeps only digits. Ten digits are treated as a North American
// number; anything longer carries its country code before the last ten.
func ValidatePhone(raw string) ValidationResult {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) < 10 {
		return Reject(msgPhoneInvalid)
	}

	country := "1"
	if len(digits) > 10 {
		country = digits[:len(digits)-10]
	}
	local := digits[len(digits)-10:]
	return Accept("+" + country + " " + local[0:3] + "-" + local[3:6] + "-" + local[6:])
}

// ValidateNotes always accepts; an empty value means the user skipped.
func ValidateNotes(raw string) ValidationResult {
	return Accept(strings.TrimSpace(raw))
}
