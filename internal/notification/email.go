package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/protocol"
	"github.com/agrosense/irrigation-server/pkg/config"
)

// EmailNotifier sends email notifications for irrigation events
type EmailNotifier struct {
	config *config.SMTPConfig
	log    *logrus.Entry
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.SMTPConfig, log *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{config: cfg, log: log.WithField("component", "email-notifier")}
}

// SendEventNotification sends an email for an irrigation event
func (e *EmailNotifier) SendEventNotification(event *protocol.IrrigationEvent) error {
	var subject string
	var body string
	var err error

	switch event.Type {
	case protocol.EventIrrigationStarted:
		subject = fmt.Sprintf("Irrigation STARTED - %s (%s)", event.FieldID, event.Farm)
		body, err = renderTemplate(startedTemplate, event)
	case protocol.EventIrrigationStopped:
		subject = fmt.Sprintf("Irrigation STOPPED - %s (%s)", event.FieldID, event.Farm)
		body, err = renderTemplate(stoppedTemplate, event)
	case protocol.EventLowMoistureAlert:
		subject = fmt.Sprintf("LOW MOISTURE ALERT - %s (%s)", event.FieldID, event.Farm)
		body, err = renderTemplate(alertTemplate, event)
	case protocol.EventAlertCleared:
		subject = fmt.Sprintf("Moisture alert cleared - %s (%s)", event.FieldID, event.Farm)
		body, err = renderTemplate(clearedTemplate, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return e.sendEmail(subject, body)
}

const startedTemplate = `
Irrigation Started
==================

Field: {{.FieldID}} ({{.Farm}})
Soil moisture: sensor1 {{.Moisture1}}%, sensor2 {{.Moisture2}}%
Reason: {{.Reason}}
Started at: {{.At}}
Event ID: {{.EventID}}

The irrigation system has been activated for this field.

---
Irrigation Server Notification System
`

const stoppedTemplate = `
Irrigation Stopped
==================

Field: {{.FieldID}} ({{.Farm}})
Soil moisture: sensor1 {{.Moisture1}}%, sensor2 {{.Moisture2}}%
Stopped at: {{.At}}
Event ID: {{.EventID}}

The irrigation run has finished. The field enters its re-irrigation
cooldown before the system may activate again.

---
Irrigation Server Notification System
`

const alertTemplate = `
Low Moisture Alert
==================

Field: {{.FieldID}} ({{.Farm}})
Soil moisture: sensor1 {{.Moisture1}}%, sensor2 {{.Moisture2}}%
Raised at: {{.At}}

A moisture channel has dropped below its alert threshold. This alert is
informational and independent of irrigation control.

---
Irrigation Server Notification System
`

const clearedTemplate = `
Moisture Alert Cleared
======================

Field: {{.FieldID}} ({{.Farm}})
Soil moisture: sensor1 {{.Moisture1}}%, sensor2 {{.Moisture2}}%
Cleared at: {{.At}}

Moisture has returned above the alert threshold.

---
Irrigation Server Notification System
`

func renderTemplate(tmpl string, event *protocol.IrrigationEvent) (string, error) {
	t, err := template.New("event").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, event); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (e *EmailNotifier) sendEmail(subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		e.log.WithField("subject", subject).Info("SMTP not configured, logging notification only")
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", e.config.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	if err := smtp.SendMail(addr, auth, e.config.From, []string{e.config.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.log.WithField("subject", subject).Info("Email sent")
	return nil
}

// TestConnection tests the SMTP connection
func (e *EmailNotifier) TestConnection() error {
	if e.config.Username == "" {
		return fmt.Errorf("SMTP not configured")
	}

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	return nil
}
