// Package record defines the durable outcome of processing one alert message
// and the mapper that builds it.
package record

import (
	"strings"
	"time"

	"github.com/Dyel-L/alert-processor/internal/events"
)

// ProcessingStatus is the terminal status of an AlertRecord.
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "SUCCESS"
	StatusFailure ProcessingStatus = "FAILURE"
)

// String returns the stored representation of the status.
func (s ProcessingStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known status.
func (s ProcessingStatus) Valid() bool {
	return s == StatusSuccess || s == StatusFailure
}

// UnknownAlertType is stored as AlertType when the payload could not be decoded.
const UnknownAlertType = "UNKNOWN"

// AlertRecord is the persisted outcome of one message attempt.
//
// AlertID, ClientID and Severity are nil only for failure records built from
// an undecodable payload; those keep the exact payload bytes in RawPayload.
// Status, ProcessedAt and FailureReason change only through MarkSuccess and
// MarkFailure; FailureReason is non-nil iff Status is StatusFailure.
type AlertRecord struct {
	RecordID   string
	AlertID    *string
	ClientID   *string
	AlertType  string
	Message    string
	Severity   *events.Severity
	Source     *string
	Timestamp  time.Time
	RawPayload []byte

	ProcessedAt   time.Time
	Status        ProcessingStatus
	FailureReason *string
}

// MarkSuccess moves the record to SUCCESS.
func (r *AlertRecord) MarkSuccess(processedAt time.Time) {
	r.ProcessedAt = processedAt
	r.Status = StatusSuccess
	r.FailureReason = nil
}

// MarkFailure moves the record to FAILURE with the given reason.
func (r *AlertRecord) MarkFailure(processedAt time.Time, reason string) {
	r.ProcessedAt = processedAt
	r.Status = StatusFailure
	reason = StorableText(reason)
	r.FailureReason = &reason
}

// StorableText makes s safe for a PostgreSQL text column: invalid UTF-8
// sequences become U+FFFD and NUL characters are escaped as \u0000.
func StorableText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", `\u0000`)
}

// AlertIDValue returns the alert identifier or "" for raw failure records.
func (r *AlertRecord) AlertIDValue() string {
	if r.AlertID == nil {
		return ""
	}
	return *r.AlertID
}

// ClientIDValue returns the client identifier or "" for raw failure records.
func (r *AlertRecord) ClientIDValue() string {
	if r.ClientID == nil {
		return ""
	}
	return *r.ClientID
}

// Alert reconstructs the decoded alert fields. It returns false for raw failure records.
func (r *AlertRecord) Alert() (*events.Alert, bool) {
	if r.AlertID == nil || r.ClientID == nil || r.Severity == nil {
		return nil, false
	}
	return &events.Alert{
		ID:        *r.AlertID,
		ClientID:  *r.ClientID,
		AlertType: r.AlertType,
		Message:   r.Message,
		Severity:  *r.Severity,
		Source:    r.Source,
		Timestamp: r.Timestamp,
	}, true
}
