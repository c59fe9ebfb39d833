package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/aftras/crm/internal/config"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/utils"
)

// Notifier delivers a persisted notification through an outside channel.
type Notifier interface {
	Name() string
	Deliver(ctx context.Context, user *models.User, n *models.Notification) error
}

// LeadAcknowledger confirms receipt to whoever submitted a public lead.
type LeadAcknowledger interface {
	AcknowledgeLead(ctx context.Context, lead *models.RemoteProspect) error
}

// NewNotifiers builds the channels enabled by feature flags.
func NewNotifiers(cfg *config.Config) []Notifier {
	var out []Notifier
	if cfg.LDFlag_SendNotificationEmails && cfg.SendGridAPIKey != "" {
		out = append(out, &emailNotifier{
			client:  sendgrid.NewSendClient(cfg.SendGridAPIKey),
			appName: cfg.OrganizationName,
			from:    cfg.LDFlag_SendgridFromEmail,
			sandbox: cfg.LDFlag_SendgridSandboxMode,
		})
	}
	if cfg.LDFlag_SendNotificationSMS && cfg.TwilioAccountSID != "" {
		out = append(out, &smsNotifier{
			client: twilio.NewRestClientWithParams(twilio.ClientParams{
				Username: cfg.TwilioAccountSID,
				Password: cfg.TwilioAuthToken,
			}),
			from: cfg.LDFlag_TwilioFromPhone,
		})
	}
	if len(out) == 0 {
		out = append(out, noopNotifier{})
	}
	return out
}

// NewLeadAcknowledger returns the SendGrid acknowledger when e-mail
// notifications are enabled.
func NewLeadAcknowledger(cfg *config.Config) LeadAcknowledger {
	if cfg.LDFlag_SendNotificationEmails && cfg.SendGridAPIKey != "" {
		return &emailNotifier{
			client:  sendgrid.NewSendClient(cfg.SendGridAPIKey),
			appName: cfg.OrganizationName,
			from:    cfg.LDFlag_SendgridFromEmail,
			sandbox: cfg.LDFlag_SendgridSandboxMode,
		}
	}
	return noopNotifier{}
}

// ---------------------------------------------------------------------
// SendGrid
// ---------------------------------------------------------------------

type emailNotifier struct {
	client  *sendgrid.Client
	appName string
	from    string
	sandbox bool
}

func (e *emailNotifier) Name() string { return "email" }

func (e *emailNotifier) Deliver(_ context.Context, user *models.User, n *models.Notification) error {
	if user.Email == "" {
		return nil
	}
	msg := buildNotificationEmail(e.appName, e.from, user, n, e.sandbox)
	resp, err := e.client.Send(msg)
	if err != nil {
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: sendgrid status %d", utils.ErrExternalServiceFailure, resp.StatusCode)
	}
	return nil
}

func (e *emailNotifier) AcknowledgeLead(_ context.Context, lead *models.RemoteProspect) error {
	if lead.Email == "" {
		return nil
	}
	from := mail.NewEmail(e.appName, e.from)
	to := mail.NewEmail(lead.FullName, lead.Email)
	subject := e.appName + " - Demande reçue"
	plain := fmt.Sprintf("Bonjour %s, nous avons bien reçu votre demande concernant %s.", lead.FullName, lead.ProductOfInterest)
	htmlContent := fmt.Sprintf(leadReceivedEmailHTML,
		html.EscapeString(e.appName), html.EscapeString(lead.FullName), html.EscapeString(lead.ProductOfInterest), time.Now().Year())
	message := mail.NewSingleEmail(from, subject, to, plain, htmlContent)
	if e.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}
	if _, err := e.client.Send(message); err != nil {
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}

func buildNotificationEmail(appName, fromAddr string, user *models.User, n *models.Notification, sandbox bool) *mail.SGMailV3 {
	from := mail.NewEmail(appName, fromAddr)
	to := mail.NewEmail(user.FullName(), user.Email)
	subject := appName + " - " + n.Title
	htmlContent := fmt.Sprintf(notificationEmailHTML,
		html.EscapeString(appName), html.EscapeString(n.Title), html.EscapeString(n.Message), time.Now().Year())
	message := mail.NewSingleEmail(from, subject, to, n.Message, htmlContent)
	if sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}
	return message
}

// ---------------------------------------------------------------------
// Twilio
// ---------------------------------------------------------------------

type smsNotifier struct {
	client *twilio.RestClient
	from   string
}

func (s *smsNotifier) Name() string { return "sms" }

func (s *smsNotifier) Deliver(_ context.Context, user *models.User, n *models.Notification) error {
	if user.Phone == "" {
		return nil
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(user.Phone)
	params.SetFrom(s.from)
	params.SetBody(n.Title + ": " + n.Message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Name() string { return "noop" }

func (noopNotifier) Deliver(context.Context, *models.User, *models.Notification) error { return nil }

func (noopNotifier) AcknowledgeLead(context.Context, *models.RemoteProspect) error { return nil }
