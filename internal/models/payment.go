package models

import "time"

// PaymentType discriminates the payment record union
type PaymentType string

const (
	// PaymentTypeRent is a rent payment for a billing cycle
	PaymentTypeRent PaymentType = "rent_payment"
	// PaymentTypeLateFee is an assessed monthly late fee, unique per
	// (agreement, original due date)
	PaymentTypeLateFee PaymentType = "LATE_PAYMENT_FEE"
)

// PaymentStatus is derived from the balance, never stored
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// AutoGeneratedMarker is the legacy description text that tagged batch-created
// records before the auto_generated column existed. Rows carrying it are
// migrated to the explicit flag when scanned.
const AutoGeneratedMarker = "Auto-generated late payment record"

// HistoricalMarker is the legacy description fragment (matched
// case-insensitively) for imported historical payments.
const HistoricalMarker = "historical payment"

// PaymentRecord represents one row of the payment ledger for an agreement
type PaymentRecord struct {
	ID              int64       `json:"id"`
	AgreementID     int64       `json:"agreement_id"`
	Type            PaymentType `json:"type"`
	AmountDue       float64     `json:"amount_due"`
	AmountPaid      float64     `json:"amount_paid"`
	Balance         float64     `json:"balance"`
	PaymentDate     *time.Time  `json:"payment_date,omitempty"`
	OriginalDueDate *time.Time  `json:"original_due_date,omitempty"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
	Description     string      `json:"description,omitempty"`
	LateFineAmount  float64     `json:"late_fine_amount"`
	DaysOverdue     int         `json:"days_overdue"`
	Historical      bool        `json:"historical"`
	AutoGenerated   bool        `json:"auto_generated"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Status reports whether the record is settled. Overpayment counts as
// completed.
func (p *PaymentRecord) Status() PaymentStatus {
	if p.Balance <= 0 {
		return PaymentStatusCompleted
	}
	return PaymentStatusPending
}

// IsLateFee reports whether the record is a late fee assessment
func (p *PaymentRecord) IsLateFee() bool {
	return p.Type == PaymentTypeLateFee
}
