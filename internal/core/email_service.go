package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"clockout.service/internal/export"
	"clockout.service/internal/ports/messaging"
	"clockout.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EmailService interface {
	SendSummary(ctx context.Context, to string, event messaging.SummaryEvent) error
	SendExport(ctx context.Context, to, filename string, attachment []byte) error
}

// SESClient is the subset of *ses.Client the email service uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendSummary(ctx context.Context, to string, event messaging.SummaryEvent) error {
	ctx, span := s.startSpan(ctx, "send_summary_email")
	defer span.End()

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Attendance summary " + event.Date),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(SummaryText(event)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

// SendExport mails the spreadsheet as an attachment.
func (s *SESEmailService) SendExport(ctx context.Context, to, filename string, attachment []byte) error {
	ctx, span := s.startSpan(ctx, "send_export_email")
	defer span.End()
	span.SetAttributes(attribute.Int("app.attachment_bytes", len(attachment)))

	raw, err := buildRawMessage(s.sender, to, "Attendance export", "Your attendance records are attached.", filename, attachment)
	if err != nil {
		return fmt.Errorf("failed to build export email: %w", err)
	}

	_, err = s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(s.sender),
		Destinations: []string{to},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	return err
}

func (s *SESEmailService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))

	if date := telemetry.GetDateFromContext(ctx); date != "" {
		span.SetAttributes(attribute.String("app.date", date))
	}
	return ctx, span
}

// SummaryText is the plain-text body of the clock-out summary.
func SummaryText(event messaging.SummaryEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello,\n\nYour clock-out for %s has been recorded.\n\n", event.Date)
	fmt.Fprintf(&b, "Clock-in:  %s\n", event.ClockInTime.Format(time.TimeOnly))
	fmt.Fprintf(&b, "Clock-out: %s\n", event.ClockOutTime.Format(time.TimeOnly))
	if event.MandatedClockOut != nil {
		fmt.Fprintf(&b, "Mandated:  %s\n", event.MandatedClockOut.Format(time.TimeOnly))
	} else {
		b.WriteString("Mandated:  none (late arrival)\n")
	}
	fmt.Fprintf(&b, "Total hours worked: %.2f hours.\n", event.HoursWorked)
	return b.String()
}

func buildRawMessage(from, to, subject, body, filename string, attachment []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n", from, to, subject)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {export.ContentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filename)},
	})
	if err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 76 {
		fmt.Fprintf(part, "%s\r\n", encoded[:76])
		encoded = encoded[76:]
	}
	fmt.Fprintf(part, "%s\r\n", encoded)

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
