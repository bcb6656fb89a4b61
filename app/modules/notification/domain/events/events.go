package notificationevents

// Stream names
const (
	NotificationStreamName = "notification"
)

// Notification event subjects
const (
	NotificationEmailSubject = "notification.email.v1"
)

// EmailEvent asks the mail relay to deliver one message. Recipients are
// resolved to addresses before publishing so the relay needs no directory
// access.
type EmailEvent struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	// HTML is the rendered message body.
	HTML string `json:"html"`
}
