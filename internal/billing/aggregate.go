package billing

import (
	"sort"
	"strings"
	"time"

	"github.com/khamis1992/rental-solutions-out-sub001/internal/models"
)

// Classify derives the display flags for a single payment record. Legacy rows
// predate the explicit historical/auto_generated columns, so the description
// markers are still honored alongside them.
func Classify(rec models.PaymentRecord) models.PaymentView {
	return models.PaymentView{
		PaymentRecord:   rec,
		Status:          rec.Status(),
		IsLateFeeRecord: rec.IsLateFee(),
		IsHistoricalPayment: rec.Historical ||
			strings.Contains(strings.ToLower(rec.Description), models.HistoricalMarker),
		IsAutoGenerated: rec.AutoGenerated ||
			strings.Contains(rec.Description, models.AutoGeneratedMarker),
	}
}

// AggregateHistory groups payment records by calendar month and summarizes
// them for display. The grouping month comes from the payment date, falling
// back to the original due date, falling back to now. Groups are ordered
// newest (year, month) first; records keep their input order within a group.
// The input slice is not modified.
func AggregateHistory(records []models.PaymentRecord, now time.Time) models.PaymentHistory {
	type monthKey struct {
		year  int
		month time.Month
	}

	grouped := make(map[monthKey][]models.PaymentView)
	var keys []monthKey
	var summary models.HistorySummary

	for _, rec := range records {
		ref := now
		if rec.PaymentDate != nil {
			ref = *rec.PaymentDate
		} else if rec.OriginalDueDate != nil {
			ref = *rec.OriginalDueDate
		}
		key := monthKey{year: ref.Year(), month: ref.Month()}
		if _, seen := grouped[key]; !seen {
			keys = append(keys, key)
		}

		view := Classify(rec)
		grouped[key] = append(grouped[key], view)

		summary.TotalPaid += rec.AmountPaid
		summary.TotalLateFees += rec.LateFineAmount
		if view.IsAutoGenerated {
			summary.AutoGeneratedCount++
		}
		if view.IsHistoricalPayment {
			summary.HistoricalCount++
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		return keys[i].month > keys[j].month
	})

	groups := make([]models.PaymentGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, models.PaymentGroup{
			Year:    key.year,
			Month:   key.month,
			Records: grouped[key],
		})
	}

	return models.PaymentHistory{Groups: groups, Summary: summary}
}
