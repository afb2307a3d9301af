package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/billing"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/config"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/models"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/repository"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/utils/email"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const billingCacheTTL = 5 * time.Minute

// Service handles business logic
type Service struct {
	store  repository.Store
	cache  repository.CacheRepository
	email  *email.Sender
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service. cache and sender may be nil.
func NewService(store repository.Store, cache repository.CacheRepository, sender *email.Sender, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, cache: cache, email: sender, log: log, config: cfg}
}

// agreementBilling fetches the billing terms of an agreement, going through
// the cache when one is configured. Only the terms are cached; fee lookups
// always hit the store.
func (s *Service) agreementBilling(ctx context.Context, agreementID int64) (*models.AgreementBilling, error) {
	key := fmt.Sprintf("agreement:billing:%d", agreementID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			terms := &models.AgreementBilling{}
			if err := json.Unmarshal([]byte(cached), terms); err == nil {
				return terms, nil
			}
		}
	}

	terms, err := s.store.GetAgreementBilling(ctx, agreementID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(terms); err == nil {
			if err := s.cache.Set(ctx, key, string(encoded), billingCacheTTL); err != nil {
				s.log.Warnf("Failed to cache billing terms for agreement %d: %v", agreementID, err)
			}
		}
	}
	return terms, nil
}

// resolveLateFee decides the late fee for the anchor month. An already
// persisted fee record is authoritative and reused verbatim; the fee is only
// computed fresh when no record exists. A failed lookup is non-fatal and
// falls back to fresh computation.
func (s *Service) resolveLateFee(ctx context.Context, agreementID int64, anchor time.Time, daysOverdue int, dailyRate float64) (lateFine float64, existingFeeID *int64) {
	existing, err := s.store.FindLateFeeRecord(ctx, agreementID, anchor)
	switch {
	case err != nil:
		s.log.Warnf("%v; computing fee fresh", &LookupError{Err: err})
		return billing.LateFee(daysOverdue, dailyRate), nil
	case existing != nil:
		id := existing.ID
		return existing.LateFineAmount, &id
	default:
		return billing.LateFee(daysOverdue, dailyRate), nil
	}
}

// RecordPayment records a rent payment for an agreement: it resolves the
// monthly anchor from the payment date, charges (at most once) the late fee
// for that month, computes the due/balance ledger and issues one atomic
// write. On failure nothing is committed and the caller must re-submit.
func (s *Service) RecordPayment(ctx context.Context, agreementID int64, amountPaid float64, paymentMethod, description string, paymentDate time.Time) (*models.PaymentRecord, error) {
	terms, err := s.agreementBilling(ctx, agreementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load billing terms: %w", err)
	}

	anchor := billing.MonthlyAnchor(paymentDate)
	daysOverdue := billing.DaysOverdue(paymentDate)
	dailyRate := billing.ResolveDailyRate(terms.DailyLateFeeRate, s.config.DefaultDailyLateFee)
	lateFine, existingFeeID := s.resolveLateFee(ctx, agreementID, anchor, daysOverdue, dailyRate)

	ledger, err := billing.ComputeLedger(terms.RentAmount, lateFine, amountPaid)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.RecordPaymentWithLateFee(ctx, repository.PaymentParams{
		AgreementID:     agreementID,
		AmountDue:       ledger.AmountDue,
		AmountPaid:      amountPaid,
		Balance:         ledger.Balance,
		PaymentMethod:   paymentMethod,
		Description:     description,
		PaymentDate:     &paymentDate,
		LateFineAmount:  lateFine,
		DaysOverdue:     daysOverdue,
		OriginalDueDate: anchor,
		ExistingFeeID:   existingFeeID,
	})
	if err != nil {
		return nil, &RecordingError{Err: err}
	}

	s.log.Infof("Payment recorded for agreement %d: paid %.2f of %.2f (late fee %.2f, %d days overdue)",
		agreementID, rec.AmountPaid, rec.AmountDue, rec.LateFineAmount, rec.DaysOverdue)
	s.sendReceipt(ctx, agreementID, rec)
	return rec, nil
}

// sendReceipt emails a best-effort payment confirmation after the write has
// committed. Failures are logged and never affect the recorded payment.
func (s *Service) sendReceipt(ctx context.Context, agreementID int64, rec *models.PaymentRecord) {
	if s.email == nil || s.config.SMTPHost == "" {
		return
	}
	agreement, err := s.store.GetAgreement(ctx, agreementID)
	if err != nil {
		s.log.Warnf("Skipping receipt for agreement %d: %v", agreementID, err)
		return
	}
	if agreement.CustomerEmail == "" {
		return
	}
	if err := s.email.SendPaymentReceipt(agreement.CustomerEmail, agreement.CustomerName,
		agreementID, rec.AmountPaid, rec.Balance); err != nil {
		s.log.Warnf("Failed to send receipt for agreement %d: %v", agreementID, err)
	}
}

// PaymentHistory returns the grouped and summarized payment history of an
// agreement, newest month first
func (s *Service) PaymentHistory(ctx context.Context, agreementID int64) (*models.PaymentHistory, error) {
	records, err := s.store.ListPaymentHistory(ctx, agreementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment history: %w", err)
	}
	history := billing.AggregateHistory(records, time.Now())
	return &history, nil
}

// DeletePayment removes a payment record. The store appends the audit log
// entry before the row disappears.
func (s *Service) DeletePayment(ctx context.Context, id int64) error {
	if err := s.store.DeletePaymentRecord(ctx, id); err != nil {
		return err
	}
	s.log.Infof("Payment %d deleted", id)
	return nil
}

// CreateAgreement creates a new rental agreement
func (s *Service) CreateAgreement(ctx context.Context, agreement *models.Agreement) error {
	if agreement.RentAmount <= 0 {
		return &billing.ValidationError{Field: "rent_amount", Reason: "must be positive"}
	}
	if agreement.MonthlyDueDay < 1 || agreement.MonthlyDueDay > 28 {
		agreement.MonthlyDueDay = 1
	}
	if err := s.store.CreateAgreement(ctx, agreement); err != nil {
		return err
	}
	s.log.Infof("Agreement created: %d (%s)", agreement.ID, agreement.CustomerName)
	return nil
}

// GetAgreement retrieves an agreement by id
func (s *Service) GetAgreement(ctx context.Context, id int64) (*models.Agreement, error) {
	return s.store.GetAgreement(ctx, id)
}

// Login authenticates the operator account and returns a JWT token
func (s *Service) Login(loginEmail, password string) (string, error) {
	if loginEmail != s.config.AdminEmail || s.config.AdminPasswordHash == "" {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   loginEmail,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Operator logged in: %s", loginEmail)
	return tokenString, nil
}

// MaterializeMissedPayments creates placeholder records for agreements with
// no payment in the month that closed before asOf. The placeholder carries
// the accrued late fee and the standard auto-generated marker; re-running the
// job is a no-op for months already covered.
func (s *Service) MaterializeMissedPayments(ctx context.Context, asOf time.Time) (int, error) {
	anchor := billing.MonthlyAnchor(asOf).AddDate(0, -1, 0)

	agreements, err := s.store.ListAgreements(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list agreements: %w", err)
	}

	materialized := 0
	for _, agreement := range agreements {
		count, err := s.store.CountPaymentsForMonth(ctx, agreement.ID, anchor)
		if err != nil {
			s.log.Warnf("Skipping agreement %d: %v", agreement.ID, err)
			continue
		}
		if count > 0 {
			continue
		}

		dailyRate := billing.ResolveDailyRate(agreement.DailyLateFeeRate, s.config.DefaultDailyLateFee)
		daysOverdue := billing.DaysBetween(anchor, asOf)
		lateFine := billing.LateFee(daysOverdue, dailyRate)
		amountDue := agreement.RentAmount + lateFine

		_, err = s.store.RecordPaymentWithLateFee(ctx, repository.PaymentParams{
			AgreementID:     agreement.ID,
			AmountDue:       amountDue,
			AmountPaid:      0,
			Balance:         amountDue,
			Description:     models.AutoGeneratedMarker,
			LateFineAmount:  lateFine,
			DaysOverdue:     daysOverdue,
			OriginalDueDate: anchor,
			Historical:      true,
			AutoGenerated:   true,
		})
		if err != nil {
			s.log.Errorf("Failed to materialize record for agreement %d: %v", agreement.ID, err)
			continue
		}
		materialized++
	}

	if materialized > 0 {
		s.log.Infof("Materialized %d placeholder record(s) for %s", materialized, anchor.Format("2006-01"))
	}
	return materialized, nil
}

// SendOverdueReminders emails every customer whose current month has no
// payment yet. Individual send failures are logged and skipped.
func (s *Service) SendOverdueReminders(ctx context.Context, asOf time.Time) (int, error) {
	if s.email == nil || s.config.SMTPHost == "" {
		return 0, nil
	}
	daysOverdue := billing.DaysOverdue(asOf)
	if daysOverdue == 0 {
		return 0, nil
	}
	anchor := billing.MonthlyAnchor(asOf)

	agreements, err := s.store.ListAgreements(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list agreements: %w", err)
	}

	sent := 0
	for _, agreement := range agreements {
		if agreement.CustomerEmail == "" {
			continue
		}
		count, err := s.store.CountPaymentsForMonth(ctx, agreement.ID, anchor)
		if err != nil {
			s.log.Warnf("Skipping agreement %d: %v", agreement.ID, err)
			continue
		}
		if count > 0 {
			continue
		}

		dailyRate := billing.ResolveDailyRate(agreement.DailyLateFeeRate, s.config.DefaultDailyLateFee)
		lateFine, _ := s.resolveLateFee(ctx, agreement.ID, anchor, daysOverdue, dailyRate)

		if err := s.email.SendOverdueReminder(agreement.CustomerEmail, agreement.CustomerName,
			anchor, agreement.RentAmount, lateFine, daysOverdue); err != nil {
			continue
		}
		sent++
	}
	return sent, nil
}
