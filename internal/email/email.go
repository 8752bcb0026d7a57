package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// Sender is what every provider here implements. SendMail carries account
// messages and only accepts a verified address. Send takes a raw address and
// is reserved for delivering verification codes, which is how an address
// becomes verified in the first place.
type Sender interface {
	domain.MailSender
	Send(ctx context.Context, to, subject, body string) error
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*ResendSender)(nil)
	_ Sender = (*SESSender)(nil)
)

// LogSender logs emails instead of sending them. Used with MAIL_PROVIDER=log.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "mail")}
}

func (s *LogSender) SendMail(ctx context.Context, to domain.VerifiedEmail, message string) (domain.Delivery, error) {
	id := uuid.NewString()
	s.logger.InfoContext(ctx, "email (local dev)", "to", to.Address(), "message_id", id, "body", message)
	return delivery(to, id), nil
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "verification email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	subject string
}

func NewResendSender(apiKey, from, subject string) *ResendSender {
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		subject: subject,
	}
}

func (s *ResendSender) SendMail(ctx context.Context, to domain.VerifiedEmail, message string) (domain.Delivery, error) {
	id, err := s.send(ctx, to.Address(), s.subject, message)
	if err != nil {
		return domain.Delivery{}, err
	}
	return delivery(to, id), nil
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	_, err := s.send(ctx, to, subject, body)
	return err
}

func (s *ResendSender) send(ctx context.Context, to, subject, text string) (string, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody(text),
		Text:    text,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return sent.Id, nil
}

// sesAPI is the subset of *sesv2.Client the sender needs.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails via AWS SES v2.
type SESSender struct {
	client  sesAPI
	from    string
	subject string
}

// NewSESSender uses static credentials when both keys are set and the default
// AWS credential chain otherwise.
func NewSESSender(ctx context.Context, region, accessKey, secretKey, from, subject string) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSESSender(sesv2.NewFromConfig(awsCfg), from, subject), nil
}

func newSESSender(client sesAPI, from, subject string) *SESSender {
	return &SESSender{client: client, from: from, subject: subject}
}

func (s *SESSender) SendMail(ctx context.Context, to domain.VerifiedEmail, message string) (domain.Delivery, error) {
	id, err := s.send(ctx, to.Address(), s.subject, message)
	if err != nil {
		return domain.Delivery{}, err
	}
	return delivery(to, id), nil
}

func (s *SESSender) Send(ctx context.Context, to, subject, body string) error {
	_, err := s.send(ctx, to, subject, body)
	return err
}

func (s *SESSender) send(ctx context.Context, to, subject, text string) (string, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
					Html: &types.Content{Data: aws.String(htmlBody(text)), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// Options selects and configures a sender.
type Options struct {
	Provider     string // log | resend | ses
	From         string
	Subject      string
	ResendAPIKey string
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
}

// NewSender returns the Sender for opts.Provider.
func NewSender(ctx context.Context, opts Options, logger *slog.Logger) (Sender, error) {
	switch opts.Provider {
	case "resend":
		return NewResendSender(opts.ResendAPIKey, opts.From, opts.Subject), nil
	case "ses":
		sender, err := NewSESSender(ctx, opts.AWSRegion, opts.AWSAccessKey, opts.AWSSecretKey, opts.From, opts.Subject)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "log", "":
		return NewLogSender(logger), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", opts.Provider)
}

func delivery(to domain.VerifiedEmail, id string) domain.Delivery {
	return domain.Delivery{
		Channel:   domain.ChannelEmail,
		Recipient: to.Address(),
		MessageID: id,
		SentAt:    time.Now(),
	}
}

func htmlBody(message string) string {
	return "<p>" + html.EscapeString(message) + "</p>"
}
