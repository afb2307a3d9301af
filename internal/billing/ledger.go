package billing

import (
	"fmt"
	"math"
)

// ValidationError rejects a malformed payment submission before any write
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Ledger holds the due/balance figures for one payment submission
type Ledger struct {
	AmountDue float64 `json:"amount_due"`
	Balance   float64 `json:"balance"`
}

// ComputeLedger combines the rent, the resolved late fee and the proposed
// payment into the amount due and the remaining balance. Overpayment is
// permitted and yields a negative balance.
func ComputeLedger(rentAmount, lateFineAmount, amountPaid float64) (Ledger, error) {
	if math.IsNaN(amountPaid) || math.IsInf(amountPaid, 0) {
		return Ledger{}, &ValidationError{Field: "amount_paid", Reason: "must be a finite number"}
	}
	if amountPaid < 0 {
		return Ledger{}, &ValidationError{Field: "amount_paid", Reason: "must not be negative"}
	}
	amountDue := rentAmount + lateFineAmount
	return Ledger{
		AmountDue: amountDue,
		Balance:   amountDue - amountPaid,
	}, nil
}
