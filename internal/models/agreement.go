package models

import "time"

// Agreement represents a vehicle rental agreement
type Agreement struct {
	ID               int64     `json:"id"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	RentAmount       float64   `json:"rent_amount"`
	DailyLateFeeRate *float64  `json:"daily_late_fee_rate,omitempty"`
	MonthlyDueDay    int       `json:"monthly_due_day"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AgreementBilling is the billing projection of an agreement consumed by the
// payment engine: the recurring rent, the per-day late fee override (nil means
// fall back to the configured rate) and the contractual due day of the month.
type AgreementBilling struct {
	RentAmount       float64  `json:"rent_amount"`
	DailyLateFeeRate *float64 `json:"daily_late_fee_rate,omitempty"`
	MonthlyDueDay    int      `json:"monthly_due_day"`
}
