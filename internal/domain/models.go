package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ParseRecord is the persisted result of one parse request.
type ParseRecord struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	SourceFile       string           `db:"source_file" json:"source_file"`
	SourceType       SourceType       `db:"source_type" json:"source_type"`
	DocumentType     DocumentType     `db:"document_type" json:"document_type"`
	Status           ParseStatus      `db:"status" json:"status"`
	Confidence       ConfidenceLevel  `db:"confidence" json:"confidence"`
	ReviewRequired   bool             `db:"review_required" json:"review_required"`
	ValidationStatus ValidationStatus `db:"validation_status" json:"validation_status"`
	CanonicalData    json.RawMessage  `db:"canonical_data" json:"canonical_data"`
	Suggestions      json.RawMessage  `db:"suggestions" json:"suggestions"`
	CorrectionRounds int              `db:"correction_rounds" json:"correction_rounds"`
	ProcessingTimeMS int64            `db:"processing_time_ms" json:"processing_time_ms"`
	ErrorMessage     string           `db:"error_message" json:"error_message,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}
