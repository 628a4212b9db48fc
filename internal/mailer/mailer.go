package mailer

// Mailer defines the transactional emails sent by the back office. Sends
// are best-effort: callers must treat a failure as a warning, never as a
// failure of the triggering state transition.
type Mailer interface {
	SendPaymentVerified(toEmail, toName string, passType int) error
	SendPaymentRejected(toEmail, toName, reason string) error
	SendOnspotConfirmation(toEmail, toName, userID string) error
}
