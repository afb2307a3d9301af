package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/config"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendOverdueReminder notifies a customer that the current month's rent is
// overdue and a late fee is accruing
func (s *Sender) SendOverdueReminder(to, customerName string, dueDate time.Time, rentAmount, lateFee float64, daysOverdue int) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Overdue Rent Payment Notification"

	body := fmt.Sprintf(
		"Dear %s,\n\n", customerName,
	)
	body += fmt.Sprintf(
		"Your rent payment of %.2f was due on %s and is now %d day(s) overdue.\n"+
			"A late fee of %.2f has accrued so far and grows daily.\n"+
			"Please make the payment as soon as possible to avoid further charges.\n",
		rentAmount, dueDate.Format("2006-01-02"), daysOverdue, lateFee,
	)
	body += "\nBest regards,\nRental Solutions"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send reminder to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendPaymentReceipt confirms a recorded payment and the remaining balance
func (s *Sender) SendPaymentReceipt(to, customerName string, agreementID int64, amountPaid, balance float64) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Payment Receipt"

	body := fmt.Sprintf(
		"Dear %s,\n\n", customerName,
	)
	body += fmt.Sprintf(
		"We received your payment of %.2f on agreement %d.\n"+
			"Payment time: %s\n",
		amountPaid, agreementID, time.Now().Format("2006-01-02 15:04:05"),
	)
	if balance > 0 {
		body += fmt.Sprintf("Remaining balance for this cycle: %.2f\n", balance)
	} else {
		body += "This cycle is fully settled.\n"
	}
	body += "\nBest regards,\nRental Solutions"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send receipt to %s: %v", to, err)
		return fmt.Errorf("failed to send receipt: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
