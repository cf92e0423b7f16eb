// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	LedgerDeriveStarted      EventType = "LEDGER_DERIVE_STARTED"
	LedgerDerived            EventType = "LEDGER_DERIVED"
	AccountsDerived          EventType = "ACCOUNTS_DERIVED"
	JournalEntriesPosted     EventType = "JOURNAL_ENTRIES_POSTED"
	ReconciliationsUpdated   EventType = "RECONCILIATIONS_UPDATED"
	PartitionSkipped         EventType = "PARTITION_SKIPPED"
	CreditScoreComputed      EventType = "CREDIT_SCORE_COMPUTED"
	CreditScoreSnapshotSaved EventType = "CREDIT_SCORE_SNAPSHOT_SAVED"
	ErrorOccurred            EventType = "ERROR_OCCURRED"
)

// AllEventTypes lists every event type the stream endpoint can
// subscribe to
var AllEventTypes = []EventType{
	LedgerDeriveStarted,
	LedgerDerived,
	AccountsDerived,
	JournalEntriesPosted,
	ReconciliationsUpdated,
	PartitionSkipped,
	CreditScoreComputed,
	CreditScoreSnapshotSaved,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Type      EventType              `json:"type"`
	Module    string                 `json:"module"`
}

// EventData is implemented by typed event payloads
type EventData interface {
	EventType() EventType
}

// LedgerDerivedData contains data for LedgerDerived events
type LedgerDerivedData struct {
	RunID               string `json:"run_id"`
	UserID              string `json:"user_id"`
	AccountsCreated     int    `json:"accounts_created"`
	EntriesCreated      int    `json:"entries_created"`
	Reconciliations     int    `json:"reconciliations"`
	PartitionsProcessed int    `json:"partitions_processed"`
	PartitionsSkipped   int    `json:"partitions_skipped"`
}

// EventType returns the event type for LedgerDerivedData
func (d *LedgerDerivedData) EventType() EventType {
	return LedgerDerived
}

// PartitionSkippedData contains data for PartitionSkipped events
type PartitionSkippedData struct {
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`
	Reason    string `json:"reason"`
}

// EventType returns the event type for PartitionSkippedData
func (d *PartitionSkippedData) EventType() EventType {
	return PartitionSkipped
}

// CreditScoreComputedData contains data for CreditScoreComputed events
type CreditScoreComputedData struct {
	UserID string `json:"user_id"`
	Rating string `json:"rating"`
	Score  int    `json:"score"`
}

// EventType returns the event type for CreditScoreComputedData
func (d *CreditScoreComputedData) EventType() EventType {
	return CreditScoreComputed
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Context map[string]interface{} `json:"context,omitempty"`
	Error   string                 `json:"error"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
