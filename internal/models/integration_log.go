package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IntegrationLog is one append-only audit entry per sync attempt or webhook.
type IntegrationLog struct {
	ID            string         `json:"id" gorm:"type:uuid;primaryKey"`
	Timestamp     time.Time      `json:"timestamp" gorm:"not null;index"`
	Direction     LogDirection   `json:"direction" gorm:"not null"`
	Operation     LogOperation   `json:"operation" gorm:"not null"`
	ReferenceCode string         `json:"reference_code" gorm:"index"`
	Status        LogStatus      `json:"status" gorm:"not null;index"`
	Message       string         `json:"message"`
	ErrorKind     string         `json:"error_kind,omitempty"`
	Trigger       string         `json:"trigger,omitempty"`
	Request       datatypes.JSON `json:"request,omitempty"`
	Response      string         `json:"response,omitempty"`
}

type LogDirection string

const (
	DirectionOutbound LogDirection = "OUTBOUND"
	DirectionInbound  LogDirection = "INBOUND"
)

type LogOperation string

const (
	OperationCreate   LogOperation = "CREATE"
	OperationUpdate   LogOperation = "UPDATE"
	OperationValidate LogOperation = "VALIDATE"
	OperationWebhook  LogOperation = "WEBHOOK"
	OperationDelete   LogOperation = "DELETE"
)

type LogStatus string

const (
	LogStatusSuccess LogStatus = "SUCCESS"
	LogStatusFailure LogStatus = "FAILURE"
)

// MaxSnippetBytes caps the diagnostic response text kept per entry.
const MaxSnippetBytes = 2000

// Snippet truncates s to at most MaxSnippetBytes without splitting a rune.
func Snippet(s string) string {
	return TruncateUTF8(s, MaxSnippetBytes)
}

// TruncateUTF8 cuts s to at most max bytes on a rune boundary.
func TruncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (l *IntegrationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return nil
}
