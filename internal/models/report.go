package models

import "time"

// ReportStepSummary is one step's outcome as recorded in the final report
type ReportStepSummary struct {
	Name        string     `bson:"name" json:"name"`
	Status      StepStatus `bson:"status" json:"status"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
}

// CriminalRecordEntry is one record returned by the criminal-records provider
type CriminalRecordEntry struct {
	Source      string `bson:"source" json:"source"`
	CaseNumber  string `bson:"case_number,omitempty" json:"case_number,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Year        int    `bson:"year,omitempty" json:"year,omitempty"`
}

// Report is the persisted outcome of a completed verification
type Report struct {
	ID              string                `bson:"_id" json:"id"`
	RequestID       string                `bson:"request_id" json:"request_id"`
	UserID          string                `bson:"user_id" json:"user_id"`
	Type            VerificationType      `bson:"type" json:"type"`
	Status          RequestStatus         `bson:"status" json:"status"`
	Steps           []ReportStepSummary   `bson:"steps" json:"steps"`
	CriminalRecords []CriminalRecordEntry `bson:"criminal_records" json:"criminal_records"`
	GeneratedAt     time.Time             `bson:"generated_at" json:"generated_at"`
}
