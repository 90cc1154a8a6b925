package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
)

// EmailNotifier sends plain-text alert mail over SMTP. Delivery is gated by
// EMAIL_ENABLED; when disabled Send is a silent no-op so the mux can always
// include the channel.
type EmailNotifier struct {
	enabled bool
	host    string
	port    string
	user    string
	pass    string
	from    string
	to      string

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// EmailFromEnv reads EMAIL_ENABLED, SMTP_HOST, SMTP_PORT, SMTP_USER,
// SMTP_PASS, NOTIFY_EMAIL_FROM, and NOTIFY_EMAIL_TO.
func EmailFromEnv() *EmailNotifier {
	enabled := os.Getenv("EMAIL_ENABLED")
	n := &EmailNotifier{
		enabled:  enabled == "1" || strings.EqualFold(enabled, "true"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		pass:     os.Getenv("SMTP_PASS"),
		from:     os.Getenv("NOTIFY_EMAIL_FROM"),
		to:       os.Getenv("NOTIFY_EMAIL_TO"),
		sendMail: smtp.SendMail,
	}
	if n.port == "" {
		n.port = "587"
	}
	if n.enabled && (n.host == "" || n.from == "" || n.to == "") {
		logging.Warnf("email enabled but SMTP_HOST/NOTIFY_EMAIL_FROM/NOTIFY_EMAIL_TO incomplete, disabling")
		n.enabled = false
	}
	return n
}

func (n *EmailNotifier) Name() string { return "email" }

// Send builds and delivers the alert mail.
func (n *EmailNotifier) Send(_ context.Context, ev Event) error {
	if !n.enabled {
		logging.Debugf("email disabled (EMAIL_ENABLED not true)")
		return nil
	}

	subject := fmt.Sprintf("Index alert: %s (%.2f)", ev.Decision, ev.Confidence)
	body := fmt.Sprintf("Decision: %s\nConfidence: %.2f\nTop reason: %s\nTimestamp: %s\n",
		ev.Decision, ev.Confidence, ev.TopReason(), ev.TS.Format(time.RFC3339))

	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + n.to,
		"Subject: " + subject,
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.pass, n.host)
	}
	addr := n.host + ":" + n.port
	if err := n.sendMail(addr, auth, n.from, []string{n.to}, []byte(msg)); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}
