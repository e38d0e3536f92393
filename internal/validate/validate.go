package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length bounds for task text, counted in runes after normalization
const (
	MinLength = 1
	MaxLength = 200
)

// Warning thresholds
const (
	lengthWarningRatio   = 0.8
	specialWarningRatio  = 0.3
	specialWarningMinLen = 10
)

// Code identifies a single rule violation
type Code string

const (
	Required          Code = "required"
	TooShort          Code = "too_short"
	TooLong           Code = "too_long"
	InvalidCharacters Code = "invalid_characters"
	Duplicate         Code = "duplicate"
)

// Violation is a blocking rule failure
type Violation struct {
	Code    Code
	Message string
}

// Warning is advisory and never affects Result.OK
type Warning struct {
	Message string
}

// Result is the outcome of Validate
type Result struct {
	OK         bool
	Cleaned    string
	Violations []Violation
	Warnings   []Warning
}

// Error carries the violations of a failed validation
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return "invalid task text"
	}
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return strings.Join(messages, "; ")
}

// Has reports whether the error contains a violation with the given code
func (e *Error) Has(code Code) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Err returns the result as an *Error, or nil when the input is valid
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &Error{Violations: r.Violations}
}

var allowedText = regexp.MustCompile(`^[A-Za-z0-9\s.,!?;:'"()\-_@#$%&*+=/\\\[\]{}|~^\x{00C0}-\x{017F}]+$`)

// normalize trims and collapses internal whitespace. Any Unicode space
// counts, so NBSP and vertical tab collapse the same way they trim.
func normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Validate checks raw task text against the text rules. existing holds the
// texts of the tasks the value must not duplicate.
func Validate(raw string, existing []string) Result {
	cleaned := normalize(raw)
	result := Result{Cleaned: cleaned}

	if cleaned == "" {
		result.Violations = append(result.Violations, Violation{
			Code:    Required,
			Message: "Task text is required",
		})
		return result
	}

	length := utf8.RuneCountInString(cleaned)
	if length < MinLength {
		result.Violations = append(result.Violations, Violation{
			Code:    TooShort,
			Message: fmt.Sprintf("Task must be at least %d character", MinLength),
		})
	}
	if length > MaxLength {
		result.Violations = append(result.Violations, Violation{
			Code:    TooLong,
			Message: fmt.Sprintf("Task must be no more than %d characters", MaxLength),
		})
	}

	if !allowedText.MatchString(cleaned) {
		result.Violations = append(result.Violations, Violation{
			Code:    InvalidCharacters,
			Message: "Task contains invalid characters",
		})
	}

	lower := strings.ToLower(cleaned)
	for _, other := range existing {
		if strings.ToLower(normalize(other)) == lower {
			result.Violations = append(result.Violations, Violation{
				Code:    Duplicate,
				Message: "A task with this text already exists",
			})
			break
		}
	}

	if float64(length) > float64(MaxLength)*lengthWarningRatio {
		result.Warnings = append(result.Warnings, Warning{
			Message: fmt.Sprintf("Task is getting long (%d/%d)", length, MaxLength),
		})
	}
	if length > specialWarningMinLen && float64(countSpecial(cleaned)) > float64(length)*specialWarningRatio {
		result.Warnings = append(result.Warnings, Warning{
			Message: "Task contains many special characters",
		})
	}

	result.OK = len(result.Violations) == 0
	return result
}

// countSpecial counts runes that are neither letters, digits nor spaces
func countSpecial(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

// Sanitize normalizes a value about to be stored: angle brackets removed,
// whitespace collapsed and trimmed, length capped at MaxLength runes.
func Sanitize(raw string) string {
	s := strings.NewReplacer("<", "", ">", "").Replace(raw)
	s = normalize(s)
	if utf8.RuneCountInString(s) > MaxLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxLength]))
	}
	return s
}
