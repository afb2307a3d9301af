package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/billing"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/models"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/repository"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/service"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	var validationErr *billing.ValidationError
	var recordingErr *service.RecordingError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &recordingErr):
		status = http.StatusBadGateway
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// Health reports service liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the operator and returns a JWT token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateAgreement creates a rental agreement
func (h *Handler) CreateAgreement(w http.ResponseWriter, r *http.Request) {
	var agreement models.Agreement
	if err := json.NewDecoder(r.Body).Decode(&agreement); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.CreateAgreement(r.Context(), &agreement); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, agreement)
}

// GetAgreement returns one agreement
func (h *Handler) GetAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid agreement id", http.StatusBadRequest)
		return
	}

	agreement, err := h.svc.GetAgreement(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, agreement)
}

type recordPaymentRequest struct {
	AmountPaid    float64 `json:"amount_paid"`
	PaymentMethod string  `json:"payment_method"`
	Description   string  `json:"description"`
	PaymentDate   string  `json:"payment_date"` // YYYY-MM-DD, defaults to today
}

// RecordPayment records a rent payment for an agreement
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	agreementID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid agreement id", http.StatusBadRequest)
		return
	}

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != "" {
		paymentDate, err = time.Parse(dateLayout, req.PaymentDate)
		if err != nil {
			http.Error(w, "invalid payment_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	rec, err := h.svc.RecordPayment(r.Context(), agreementID, req.AmountPaid,
		req.PaymentMethod, req.Description, paymentDate)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, billing.Classify(*rec))
}

// PaymentHistory returns the grouped payment history of an agreement
func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	agreementID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid agreement id", http.StatusBadRequest)
		return
	}

	history, err := h.svc.PaymentHistory(r.Context(), agreementID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// DeletePayment removes a payment record after audit logging
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeletePayment(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
