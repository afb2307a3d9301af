package models

import "time"

// PaymentView is a PaymentRecord annotated with display classification flags.
// The flags are non-exclusive and derived by inspection when the history is
// aggregated; they are never persisted.
type PaymentView struct {
	PaymentRecord
	Status              PaymentStatus `json:"status"`
	IsLateFeeRecord     bool          `json:"is_late_fee_record"`
	IsHistoricalPayment bool          `json:"is_historical_payment"`
	IsAutoGenerated     bool          `json:"is_auto_generated"`
}

// PaymentGroup holds one calendar month of payment records, newest group first
// in a PaymentHistory
type PaymentGroup struct {
	Year    int           `json:"year"`
	Month   time.Month    `json:"month"`
	Records []PaymentView `json:"records"`
}

// HistorySummary aggregates totals across the whole history
type HistorySummary struct {
	TotalPaid          float64 `json:"total_paid"`
	TotalLateFees      float64 `json:"total_late_fees"`
	AutoGeneratedCount int     `json:"auto_generated_count"`
	HistoricalCount    int     `json:"historical_count"`
}

// PaymentHistory is the grouped and summarized payment history for one
// agreement
type PaymentHistory struct {
	Groups  []PaymentGroup `json:"groups"`
	Summary HistorySummary `json:"summary"`
}
