package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidAlertJSON matches every *DecodeError via errors.Is.
var ErrInvalidAlertJSON = errors.New("Invalid alert JSON")

// DecodeError reports why a payload could not be decoded into an Alert.
type DecodeError struct {
	// Field is the offending wire field, empty for syntax errors.
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", ErrInvalidAlertJSON, e.Err)
	}
	return fmt.Sprintf("%s: field %q: %v", ErrInvalidAlertJSON, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvalidAlertJSON) true for any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidAlertJSON
}

var (
	errMissing     = errors.New("is required")
	errInvalidUTF8 = errors.New("payload is not valid UTF-8")
	errNUL         = errors.New("contains a NUL character")
)

// Accepted timestamp layouts. Zone-less values are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// wireAlert mirrors the JSON payload with pointer fields so that absent and
// null values can be told apart from zero values.
type wireAlert struct {
	ID        *string `json:"id"`
	ClientID  *string `json:"clientId"`
	AlertType *string `json:"alertType"`
	Message   *string `json:"message"`
	Severity  *string `json:"severity"`
	Source    *string `json:"source"`
	Timestamp *string `json:"timestamp"`
}

// Decode parses a raw JSON payload into an Alert. Unknown fields are ignored.
// It returns a *DecodeError when the payload is not valid UTF-8 JSON, a
// required field is missing or empty, a string field contains NUL, the
// severity is unknown, the timestamp is not an ISO-8601 date-time, or the
// message is too long.
func Decode(raw []byte) (*Alert, error) {
	// encoding/json would silently replace invalid bytes with U+FFFD.
	if !utf8.Valid(raw) {
		return nil, &DecodeError{Err: errInvalidUTF8}
	}

	var w wireAlert
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &DecodeError{Err: err}
	}

	required := []struct {
		name  string
		value *string
	}{
		{"id", w.ID},
		{"clientId", w.ClientID},
		{"alertType", w.AlertType},
		{"message", w.Message},
		{"severity", w.Severity},
		{"timestamp", w.Timestamp},
	}
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return nil, &DecodeError{Field: f.name, Err: errMissing}
		}
		if strings.ContainsRune(*f.value, 0) {
			return nil, &DecodeError{Field: f.name, Err: errNUL}
		}
	}
	if w.Source != nil && strings.ContainsRune(*w.Source, 0) {
		return nil, &DecodeError{Field: "source", Err: errNUL}
	}

	if n := utf8.RuneCountInString(*w.Message); n > MaxMessageLength {
		return nil, &DecodeError{Field: "message", Err: fmt.Errorf("length %d exceeds %d", n, MaxMessageLength)}
	}

	severity, err := ParseSeverity(*w.Severity)
	if err != nil {
		return nil, &DecodeError{Field: "severity", Err: err}
	}

	ts, err := parseTimestamp(*w.Timestamp)
	if err != nil {
		return nil, &DecodeError{Field: "timestamp", Err: err}
	}

	return &Alert{
		ID:        *w.ID,
		ClientID:  *w.ClientID,
		AlertType: *w.AlertType,
		Message:   *w.Message,
		Severity:  severity,
		Source:    w.Source,
		Timestamp: ts,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date-time", s)
}
