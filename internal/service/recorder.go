package service

// Recorder receives business counters. *metrics.MetricsManager implements it.
type Recorder interface {
	OrderPlaced(paymentMethod string)
	PaymentConfirmation(outcome string)
	PasswordResetRequest(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(string)          {}
func (nopRecorder) PaymentConfirmation(string)  {}
func (nopRecorder) PasswordResetRequest(string) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
