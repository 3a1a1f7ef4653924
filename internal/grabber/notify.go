package grabber

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("eamsgrab/grabber")

// Notifier is told when a submission response announces success.
type Notifier interface {
	NotifySuccess(ctx context.Context, courseId, message string) error
}

type SmtpConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
}

// MailNotifier sends an e-mail per successful course.
type MailNotifier struct {
	Smtp SmtpConfig
	To   []string
}

func (n MailNotifier) NotifySuccess(ctx context.Context, courseId, message string) error {
	_, span := tracer.Start(ctx, "NotifySuccess")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("eamsgrab <%s>", n.Smtp.EmailAddress)
	mail.To = n.To
	mail.Subject = fmt.Sprintf("Course %s elected", courseId)
	mail.Text = []byte(fmt.Sprintf(`The server answered the election of course %s with:

%s`, courseId, message))

	addr := fmt.Sprintf("%s:%d", n.Smtp.Server, n.Smtp.Port)
	err := mail.Send(addr, smtp.PlainAuth("", n.Smtp.EmailAddress, n.Smtp.Password, n.Smtp.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
