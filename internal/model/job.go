// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobKind describes what was sent to the printer
type JobKind string

const (
	JobKindSale   JobKind = "SALE"
	JobKindReport JobKind = "REPORT"
	JobKindRaw    JobKind = "RAW"
)

// JobStatus is the final outcome of a print job
type JobStatus string

const (
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// PrintJob is the history record of one print request
type PrintJob struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Kind          JobKind       `json:"kind" db:"kind"`
	PrinterID     string        `json:"printer_id" db:"printer_id"`
	TransportKind TransportKind `json:"transport_kind" db:"transport_kind"`
	Bytes         int           `json:"bytes" db:"bytes"`
	Status        JobStatus     `json:"status" db:"status"`
	ErrorMessage  *string       `json:"error_message,omitempty" db:"error_message"`
	DurationMs    int64         `json:"duration_ms" db:"duration_ms"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
