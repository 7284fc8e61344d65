// Package events defines the alert event consumed from the alerts topic and its decoder.
package events

import "time"

// MaxMessageLength is the maximum number of characters allowed in Alert.Message.
const MaxMessageLength = 1000

// Alert is a decoded alert event. Every field except Source is required.
type Alert struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	AlertType string    `json:"alertType"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Source    *string   `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
