package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khamis1992/rental-solutions-out-sub001/internal/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// PaymentParams carries the full, self-consistent parameter set for one
// atomic payment write. ExistingFeeID references the late fee record being
// consumed when one was already assessed for the anchor month.
type PaymentParams struct {
	AgreementID     int64
	AmountDue       float64
	AmountPaid      float64
	Balance         float64
	PaymentMethod   string
	Description     string
	PaymentDate     *time.Time
	LateFineAmount  float64
	DaysOverdue     int
	OriginalDueDate time.Time
	ExistingFeeID   *int64
	Historical      bool
	AutoGenerated   bool
}

// Store defines the persistence operations the billing engine depends on
type Store interface {
	CreateAgreement(ctx context.Context, agreement *models.Agreement) error
	GetAgreement(ctx context.Context, id int64) (*models.Agreement, error)
	ListAgreements(ctx context.Context) ([]models.Agreement, error)
	GetAgreementBilling(ctx context.Context, agreementID int64) (*models.AgreementBilling, error)

	// FindLateFeeRecord returns the late fee record assessed for the given
	// anchor month, or nil when none exists.
	FindLateFeeRecord(ctx context.Context, agreementID int64, anchor time.Time) (*models.PaymentRecord, error)

	// RecordPaymentWithLateFee persists one payment submission atomically:
	// the late fee record is upserted on its natural key and the payment row
	// inserted in the same transaction.
	RecordPaymentWithLateFee(ctx context.Context, params PaymentParams) (*models.PaymentRecord, error)

	// ListPaymentHistory returns all payment records for the agreement,
	// payment date descending.
	ListPaymentHistory(ctx context.Context, agreementID int64) ([]models.PaymentRecord, error)

	// CountPaymentsForMonth counts records covering the anchor month: a
	// payment dated within the month, or any record keyed to the anchor as
	// its original due date.
	CountPaymentsForMonth(ctx context.Context, agreementID int64, anchor time.Time) (int, error)

	// DeletePaymentRecord removes a payment record, writing an audit log
	// entry in the same transaction before the row disappears.
	DeletePaymentRecord(ctx context.Context, id int64) error
}

// Repository provides Postgres-backed database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// CreateAgreement creates a new rental agreement in the database
func (r *Repository) CreateAgreement(ctx context.Context, agreement *models.Agreement) error {
	query := `
		INSERT INTO rental.agreements (customer_name, customer_email, rent_amount, daily_late_fee_rate, monthly_due_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		agreement.CustomerName, agreement.CustomerEmail, agreement.RentAmount,
		agreement.DailyLateFeeRate, agreement.MonthlyDueDay).
		Scan(&agreement.ID, &agreement.CreatedAt, &agreement.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agreement: %w", err)
	}
	return nil
}

// GetAgreement retrieves an agreement by id
func (r *Repository) GetAgreement(ctx context.Context, id int64) (*models.Agreement, error) {
	agreement := &models.Agreement{}
	query := `
		SELECT id, customer_name, customer_email, rent_amount, daily_late_fee_rate, monthly_due_day, created_at, updated_at
		FROM rental.agreements
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&agreement.ID, &agreement.CustomerName, &agreement.CustomerEmail,
		&agreement.RentAmount, &agreement.DailyLateFeeRate, &agreement.MonthlyDueDay,
		&agreement.CreatedAt, &agreement.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agreement: %w", err)
	}
	return agreement, nil
}

// ListAgreements retrieves all rental agreements
func (r *Repository) ListAgreements(ctx context.Context) ([]models.Agreement, error) {
	query := `
		SELECT id, customer_name, customer_email, rent_amount, daily_late_fee_rate, monthly_due_day, created_at, updated_at
		FROM rental.agreements
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agreements: %w", err)
	}
	defer rows.Close()

	var agreements []models.Agreement
	for rows.Next() {
		var a models.Agreement
		if err := rows.Scan(&a.ID, &a.CustomerName, &a.CustomerEmail,
			&a.RentAmount, &a.DailyLateFeeRate, &a.MonthlyDueDay,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agreement: %w", err)
		}
		agreements = append(agreements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agreements: %w", err)
	}
	return agreements, nil
}

// GetAgreementBilling retrieves the billing terms of an agreement
func (r *Repository) GetAgreementBilling(ctx context.Context, agreementID int64) (*models.AgreementBilling, error) {
	billing := &models.AgreementBilling{}
	query := `
		SELECT rent_amount, daily_late_fee_rate, monthly_due_day
		FROM rental.agreements
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, agreementID).
		Scan(&billing.RentAmount, &billing.DailyLateFeeRate, &billing.MonthlyDueDay)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agreement billing: %w", err)
	}
	return billing, nil
}

const paymentColumns = `id, agreement_id, type, amount_due, amount_paid, balance,
		payment_date, original_due_date, payment_method, description,
		late_fine_amount, days_overdue, historical, auto_generated, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.PaymentRecord, error) {
	rec := &models.PaymentRecord{}
	var method, description sql.NullString
	err := row.Scan(&rec.ID, &rec.AgreementID, &rec.Type, &rec.AmountDue,
		&rec.AmountPaid, &rec.Balance, &rec.PaymentDate, &rec.OriginalDueDate,
		&method, &description, &rec.LateFineAmount, &rec.DaysOverdue,
		&rec.Historical, &rec.AutoGenerated, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.PaymentMethod = method.String
	rec.Description = description.String

	// Migrate legacy description markers into the explicit flags so rows
	// created before the columns existed classify the same way.
	if !rec.AutoGenerated && strings.Contains(rec.Description, models.AutoGeneratedMarker) {
		rec.AutoGenerated = true
	}
	if !rec.Historical && strings.Contains(strings.ToLower(rec.Description), models.HistoricalMarker) {
		rec.Historical = true
	}
	return rec, nil
}

// FindLateFeeRecord looks up the late fee record assessed for the given
// anchor month. Returns (nil, nil) when no fee has been assessed.
func (r *Repository) FindLateFeeRecord(ctx context.Context, agreementID int64, anchor time.Time) (*models.PaymentRecord, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM rental.payments
		WHERE agreement_id = $1 AND type = $2 AND original_due_date = $3
		ORDER BY id
		LIMIT 1`
	rec, err := scanPayment(r.db.QueryRowContext(ctx, query, agreementID, models.PaymentTypeLateFee, anchor))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find late fee record: %w", err)
	}
	return rec, nil
}

// RecordPaymentWithLateFee persists one payment submission in a single
// transaction. When a late fee applies, the fee record is upserted on its
// natural key (agreement_id, original_due_date); on conflict the already
// persisted amount wins and the ledger figures are recomputed from it, so two
// racing submissions for the same month converge on the same fee.
func (r *Repository) RecordPaymentWithLateFee(ctx context.Context, params PaymentParams) (*models.PaymentRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lateFine := params.LateFineAmount
	amountDue := params.AmountDue
	balance := params.Balance

	if lateFine > 0 {
		upsert := `
			INSERT INTO rental.payments (agreement_id, type, amount_due, amount_paid, balance,
				original_due_date, description, late_fine_amount, days_overdue, auto_generated, created_at)
			VALUES ($1, $2, $3, 0, $3, $4, $5, $3, $6, $7, CURRENT_TIMESTAMP)
			ON CONFLICT (agreement_id, original_due_date) WHERE type = 'LATE_PAYMENT_FEE'
			DO UPDATE SET days_overdue = rental.payments.days_overdue
			RETURNING late_fine_amount`
		var persistedFee float64
		err = tx.QueryRowContext(ctx, upsert,
			params.AgreementID, models.PaymentTypeLateFee, lateFine,
			params.OriginalDueDate, params.Description, params.DaysOverdue,
			params.AutoGenerated).
			Scan(&persistedFee)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert late fee record: %w", err)
		}
		if persistedFee != lateFine {
			// A fee was already assessed for this month; it is authoritative.
			amountDue = amountDue - lateFine + persistedFee
			balance = amountDue - params.AmountPaid
			lateFine = persistedFee
		}
	}

	insert := `
		INSERT INTO rental.payments (agreement_id, type, amount_due, amount_paid, balance,
			payment_method, description, payment_date, original_due_date,
			late_fine_amount, days_overdue, historical, auto_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	rec := &models.PaymentRecord{
		AgreementID:     params.AgreementID,
		Type:            models.PaymentTypeRent,
		AmountDue:       amountDue,
		AmountPaid:      params.AmountPaid,
		Balance:         balance,
		PaymentMethod:   params.PaymentMethod,
		Description:     params.Description,
		PaymentDate:     params.PaymentDate,
		LateFineAmount:  lateFine,
		DaysOverdue:     params.DaysOverdue,
		Historical:      params.Historical,
		AutoGenerated:   params.AutoGenerated,
		OriginalDueDate: &params.OriginalDueDate,
	}
	err = tx.QueryRowContext(ctx, insert,
		rec.AgreementID, rec.Type, rec.AmountDue, rec.AmountPaid, rec.Balance,
		rec.PaymentMethod, rec.Description, rec.PaymentDate, rec.OriginalDueDate,
		rec.LateFineAmount, rec.DaysOverdue, rec.Historical, rec.AutoGenerated).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return rec, nil
}

// ListPaymentHistory retrieves all payment records for an agreement, payment
// date descending
func (r *Repository) ListPaymentHistory(ctx context.Context, agreementID int64) ([]models.PaymentRecord, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM rental.payments
		WHERE agreement_id = $1
		ORDER BY payment_date DESC NULLS LAST, id DESC`
	rows, err := r.db.QueryContext(ctx, query, agreementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment history: %w", err)
	}
	defer rows.Close()

	var records []models.PaymentRecord
	for rows.Next() {
		rec, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return records, nil
}

// CountPaymentsForMonth counts payment records covering the given anchor
// month, whether dated inside it or keyed to its anchor
func (r *Repository) CountPaymentsForMonth(ctx context.Context, agreementID int64, anchor time.Time) (int, error) {
	var count int
	next := anchor.AddDate(0, 1, 0)
	query := `
		SELECT COUNT(*)
		FROM rental.payments
		WHERE agreement_id = $1
		  AND ((payment_date >= $2 AND payment_date < $3) OR original_due_date = $2)`
	err := r.db.QueryRowContext(ctx, query, agreementID, anchor, next).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

// DeletePaymentRecord deletes a payment record, appending an audit log entry
// in the same transaction before the row disappears
func (r *Repository) DeletePaymentRecord(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT ` + paymentColumns + `
		FROM rental.payments
		WHERE id = $1`
	rec, err := scanPayment(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load payment for deletion: %w", err)
	}

	changes, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit changes: %w", err)
	}
	entry := models.AuditLog{
		EntityType: "payment",
		EntityID:   id,
		Action:     "delete_payment",
		Changes:    changes,
	}
	audit := `
		INSERT INTO rental.audit_logs (entity_type, entity_id, action, changes, performed_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)`
	if _, err := tx.ExecContext(ctx, audit, entry.EntityType, entry.EntityID, entry.Action, entry.Changes); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rental.payments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deletion: %w", err)
	}
	return nil
}
