package model

// MailMessage is one outbound email queued for the mail worker.
type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
