package providers

import "strings"

// ErrorType buckets provider failures by what the caller can do about
// them: wait (rate, transient), shrink the request (context), pay
// (quota), or give up (permanent).
type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// Retryable reports whether the same request may succeed if repeated.
func (t ErrorType) Retryable() bool {
	return t == ErrorRate || t == ErrorTransient
}

// errorSignals maps message fragments to classes, checked in order.
// Providers return plain wrapped errors, so classification works on the
// message text.
var errorSignals = []struct {
	class   ErrorType
	needles []string
}{
	{ErrorQuota, []string{"quota", "credit", "billing"}},
	{ErrorRate, []string{"rate", "429"}},
	{ErrorContext, []string{"context", "too long"}},
	{ErrorTransient, []string{"timeout", "temporarily", "unavailable", "connection"}},
}

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range errorSignals {
		for _, needle := range sig.needles {
			if strings.Contains(msg, needle) {
				return sig.class
			}
		}
	}
	return ErrorPermanent
}
