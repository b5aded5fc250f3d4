package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// AuditOperation represents the kind of mutation recorded in the audit log.
type AuditOperation string

const (
	// AuditOperationCreate records an event insert.
	AuditOperationCreate AuditOperation = "create"
	// AuditOperationUpdate records an event update, including status changes.
	AuditOperationUpdate AuditOperation = "update"
	// AuditOperationDelete records a soft delete.
	AuditOperationDelete AuditOperation = "delete"
)

// AuditRecord is an audit log entry awaiting or past publication to the audit stream.
type AuditRecord struct {
	ID          int64           `json:"id"`
	EventID     string          `json:"event_id"`
	Operation   AuditOperation  `json:"operation"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at"`
}

// CreateAuditRecordParams represents parameters for appending an audit record.
type CreateAuditRecordParams struct {
	EventID   string
	Operation AuditOperation
	Before    []byte
	After     []byte
}

// NewAuditRecordParams snapshots the event before and after a mutation. Either side may be nil.
func NewAuditRecordParams(op AuditOperation, before, after *Event) (*CreateAuditRecordParams, error) {
	params := &CreateAuditRecordParams{Operation: op}

	for _, snap := range []struct {
		event *Event
		dst   *[]byte
	}{
		{before, &params.Before},
		{after, &params.After},
	} {
		if snap.event == nil {
			continue
		}

		payload, err := json.Marshal(snap.event)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit snapshot: %w", err)
		}

		*snap.dst = payload
		params.EventID = snap.event.ID
	}

	return params, nil
}

// Audit stream message fields.
const (
	AuditFieldID        = "audit_id"
	AuditFieldEventID   = "event_id"
	AuditFieldOperation = "operation"
	AuditFieldBefore    = "before"
	AuditFieldAfter     = "after"
	AuditFieldCreatedAt = "created_at"
)

// StreamFields encodes the record as a flat stream message.
func (r *AuditRecord) StreamFields() map[string]string {
	return map[string]string{
		AuditFieldID:        strconv.FormatInt(r.ID, 10),
		AuditFieldEventID:   r.EventID,
		AuditFieldOperation: string(r.Operation),
		AuditFieldBefore:    string(r.Before),
		AuditFieldAfter:     string(r.After),
		AuditFieldCreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ParseAuditMessage decodes a stream message written by StreamFields.
func ParseAuditMessage(fields map[string]string) (*AuditRecord, error) {
	eventID, ok := fields[AuditFieldEventID]
	if !ok || eventID == "" {
		return nil, errors.New("missing event_id in audit message")
	}

	op := AuditOperation(fields[AuditFieldOperation])
	switch op {
	case AuditOperationCreate, AuditOperationUpdate, AuditOperationDelete:
	default:
		return nil, fmt.Errorf("unknown audit operation %q", op)
	}

	record := &AuditRecord{EventID: eventID, Operation: op}

	if raw := fields[AuditFieldID]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid audit_id: %w", err)
		}
		record.ID = id
	}

	if raw := fields[AuditFieldCreatedAt]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at: %w", err)
		}
		record.CreatedAt = createdAt
	}

	if raw := fields[AuditFieldBefore]; raw != "" {
		record.Before = json.RawMessage(raw)
	}
	if raw := fields[AuditFieldAfter]; raw != "" {
		record.After = json.RawMessage(raw)
	}

	return record, nil
}
