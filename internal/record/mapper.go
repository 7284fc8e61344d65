package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dyel-L/alert-processor/internal/events"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock uses the system time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// IDGenerator produces record identifiers.
type IDGenerator func() string

// Mapper builds AlertRecords. It performs no I/O.
type Mapper struct {
	clock Clock
	newID IDGenerator
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithClock overrides the clock used for ProcessedAt and raw-record timestamps.
func WithClock(c Clock) MapperOption {
	return func(m *Mapper) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithIDGenerator overrides the record ID generator.
func WithIDGenerator(gen IDGenerator) MapperOption {
	return func(m *Mapper) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// NewMapper creates a Mapper using the system clock and random UUIDs by default.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		clock: SystemClock{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ToSuccessRecord copies the alert and marks it SUCCESS.
func (m *Mapper) ToSuccessRecord(alert *events.Alert) *AlertRecord {
	rec := m.fromAlert(alert)
	rec.MarkSuccess(m.clock.Now())
	return rec
}

// ToFailureRecord copies the alert and marks it FAILURE with reason.
func (m *Mapper) ToFailureRecord(alert *events.Alert, reason string) *AlertRecord {
	rec := m.fromAlert(alert)
	rec.MarkFailure(m.clock.Now(), reason)
	return rec
}

// ToFailureRecordFromRaw builds a FAILURE record for a payload that could not
// be decoded. RawPayload keeps the exact bytes; Message holds them as
// storable text.
func (m *Mapper) ToFailureRecordFromRaw(raw []byte, reason string) *AlertRecord {
	now := m.clock.Now()
	rec := &AlertRecord{
		RecordID:   m.newID(),
		AlertType:  UnknownAlertType,
		Message:    StorableText(string(raw)),
		Timestamp:  now,
		RawPayload: append([]byte(nil), raw...),
	}
	rec.MarkFailure(now, reason)
	return rec
}

func (m *Mapper) fromAlert(alert *events.Alert) *AlertRecord {
	id := alert.ID
	clientID := alert.ClientID
	severity := alert.Severity
	var source *string
	if alert.Source != nil {
		s := *alert.Source
		source = &s
	}
	return &AlertRecord{
		RecordID:  m.newID(),
		AlertID:   &id,
		ClientID:  &clientID,
		AlertType: alert.AlertType,
		Message:   alert.Message,
		Severity:  &severity,
		Source:    source,
		Timestamp: alert.Timestamp,
	}
}
