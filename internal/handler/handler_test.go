package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/config"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/models"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/repository"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/service"
	"github.com/sirupsen/logrus"
)

type stubStore struct {
	billing   *models.AgreementBilling
	history   []models.PaymentRecord
	deleteErr error
}

func (s *stubStore) CreateAgreement(ctx context.Context, agreement *models.Agreement) error {
	agreement.ID = 1
	return nil
}

func (s *stubStore) GetAgreement(ctx context.Context, id int64) (*models.Agreement, error) {
	return nil, repository.ErrNotFound
}

func (s *stubStore) ListAgreements(ctx context.Context) ([]models.Agreement, error) {
	return nil, nil
}

func (s *stubStore) GetAgreementBilling(ctx context.Context, agreementID int64) (*models.AgreementBilling, error) {
	if s.billing == nil {
		return nil, repository.ErrNotFound
	}
	return s.billing, nil
}

func (s *stubStore) FindLateFeeRecord(ctx context.Context, agreementID int64, anchor time.Time) (*models.PaymentRecord, error) {
	return nil, nil
}

func (s *stubStore) RecordPaymentWithLateFee(ctx context.Context, params repository.PaymentParams) (*models.PaymentRecord, error) {
	return &models.PaymentRecord{
		ID:              1,
		AgreementID:     params.AgreementID,
		Type:            models.PaymentTypeRent,
		AmountDue:       params.AmountDue,
		AmountPaid:      params.AmountPaid,
		Balance:         params.Balance,
		PaymentDate:     params.PaymentDate,
		OriginalDueDate: &params.OriginalDueDate,
		LateFineAmount:  params.LateFineAmount,
		DaysOverdue:     params.DaysOverdue,
		CreatedAt:       time.Now(),
	}, nil
}

func (s *stubStore) ListPaymentHistory(ctx context.Context, agreementID int64) ([]models.PaymentRecord, error) {
	return s.history, nil
}

func (s *stubStore) CountPaymentsForMonth(ctx context.Context, agreementID int64, anchor time.Time) (int, error) {
	return 0, nil
}

func (s *stubStore) DeletePaymentRecord(ctx context.Context, id int64) error {
	return s.deleteErr
}

func newTestRouter(store repository.Store) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{JWTSecret: "test-secret", DefaultDailyLateFee: 120}
	h := NewHandler(service.NewService(store, nil, nil, logger, cfg))

	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/agreements/{id}/payments", h.RecordPayment).Methods("POST")
	r.HandleFunc("/agreements/{id}/payments", h.PaymentHistory).Methods("GET")
	r.HandleFunc("/payments/{id}", h.DeletePayment).Methods("DELETE")
	return r
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubStore{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestRecordPaymentHandler(t *testing.T) {
	router := newTestRouter(&stubStore{billing: &models.AgreementBilling{RentAmount: 3000}})

	body := `{"amount_paid":3600,"payment_method":"cash","payment_date":"2024-03-06"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/agreements/7/payments", strings.NewReader(body)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var view models.PaymentView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.AmountDue != 3600 || view.LateFineAmount != 600 || view.DaysOverdue != 5 {
		t.Errorf("unexpected ledger figures: %+v", view)
	}
	if view.Status != models.PaymentStatusCompleted {
		t.Errorf("expected completed status, got %s", view.Status)
	}
}

func TestRecordPaymentHandler_InvalidBody(t *testing.T) {
	router := newTestRouter(&stubStore{billing: &models.AgreementBilling{RentAmount: 3000}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/agreements/7/payments", strings.NewReader("{not json")))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestRecordPaymentHandler_NegativeAmount(t *testing.T) {
	router := newTestRouter(&stubStore{billing: &models.AgreementBilling{RentAmount: 3000}})

	body := `{"amount_paid":-10,"payment_date":"2024-03-06"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/agreements/7/payments", strings.NewReader(body)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative amount, got %d", rr.Code)
	}
}

func TestRecordPaymentHandler_UnknownAgreement(t *testing.T) {
	router := newTestRouter(&stubStore{})

	body := `{"amount_paid":3000,"payment_date":"2024-03-06"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/agreements/999/payments", strings.NewReader(body)))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown agreement, got %d", rr.Code)
	}
}

func TestPaymentHistoryHandler(t *testing.T) {
	march := time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)
	router := newTestRouter(&stubStore{history: []models.PaymentRecord{
		{ID: 1, AmountPaid: 3600, LateFineAmount: 600, PaymentDate: &march},
	}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/agreements/7/payments", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var history models.PaymentHistory
	if err := json.NewDecoder(rr.Body).Decode(&history); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(history.Groups) != 1 || history.Summary.TotalPaid != 3600 {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestDeletePaymentHandler(t *testing.T) {
	router := newTestRouter(&stubStore{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", "/payments/5", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}

func TestDeletePaymentHandler_NotFound(t *testing.T) {
	router := newTestRouter(&stubStore{deleteErr: repository.ErrNotFound})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", "/payments/5", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
