package queue

import "log"

// LogMailer is the default Notifier. It records that a confirmation mail
// would have been sent; a real SMTP or API-backed mailer can replace it
// without touching the consumer.
type LogMailer struct{}

func (LogMailer) NotifyOrderPlaced(ev OrderPlacedEvent) error {
	to := "-"
	if ev.Email != nil && *ev.Email != "" {
		to = *ev.Email
	}
	log.Printf("mailer: order %d confirmation for %q (to=%s, total=%.2f)", ev.OrderID, ev.Name, to, ev.TotalPrice)
	return nil
}
