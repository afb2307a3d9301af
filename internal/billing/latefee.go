package billing

// DefaultDailyLateFee is the last-resort per-day late fee when neither the
// agreement nor the configuration provides a rate.
const DefaultDailyLateFee = 120.0

// ResolveDailyRate picks the effective per-day late fee with a fixed
// precedence: agreement override, then the configured global rate, then
// DefaultDailyLateFee.
func ResolveDailyRate(agreementRate *float64, configRate float64) float64 {
	if agreementRate != nil && *agreementRate > 0 {
		return *agreementRate
	}
	if configRate > 0 {
		return configRate
	}
	return DefaultDailyLateFee
}

// LateFee computes the fee accrued over the given overdue days at the given
// daily rate. No cap is applied.
func LateFee(daysOverdue int, dailyRate float64) float64 {
	if daysOverdue <= 0 {
		return 0
	}
	return float64(daysOverdue) * dailyRate
}
