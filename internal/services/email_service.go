package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rmagsino/iskolar/internal/models"
)

// EmailService defines the outbound notifications the backend sends.
type EmailService interface {
	SendPasswordReset(ctx context.Context, email, firstName, token string) error
	SendApplicationStatus(ctx context.Context, email, firstName, scholarshipTitle, status string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	fromName    string
	baseURL     string
	logger      *slog.Logger
}

func NewAWSSESEmailService(region, fromAddress, fromName, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendPasswordReset sends the password reset link to the student.
func (s *AWSSESEmailService) SendPasswordReset(ctx context.Context, email, firstName, token string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Password Reset Request</h2>
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your scholarship portal account.
		Click the button below to choose a new password:</p>
		<p><a href="%s" style="display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Reset Password</a></p>
		<p>Or copy and paste this link in your browser:<br><code>%s</code></p>
		<p>This link expires in 1 hour. If you did not request a reset, you can safely ignore this email.</p>
		<p style="color: #666; font-size: 12px; margin-top: 24px;">This is an automated message from the Office of Student Affairs and Services. Please do not reply.</p>
	</div>
</body>
</html>`, firstName, resetLink, resetLink)

	textBody := fmt.Sprintf(`Password Reset Request

Hi %s,

We received a request to reset the password for your scholarship portal account. Open the link below to choose a new password:

%s

This link expires in 1 hour. If you did not request a reset, you can safely ignore this email.
`, firstName, resetLink)

	return s.send(ctx, email, "Reset your password", htmlBody, textBody)
}

// SendApplicationStatus notifies the student of a review decision.
func (s *AWSSESEmailService) SendApplicationStatus(ctx context.Context, email, firstName, scholarshipTitle, status string) error {
	var headline, detail string
	switch status {
	case models.ApplicationStatusApproved:
		headline = "Congratulations! Your application has been approved."
		detail = "Please visit the Office of Student Affairs and Services for the next steps."
	case models.ApplicationStatusDeclined:
		headline = "Your application was not approved this time."
		detail = "You may apply again in the next application period, or visit the office for guidance."
	default:
		headline = "Your application status has been updated."
		detail = fmt.Sprintf("Current status: %s.", status)
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Scholarship Application Update</h2>
		<p>Hi %s,</p>
		<p>%s</p>
		<p><strong>Scholarship:</strong> %s</p>
		<p>%s</p>
		<p style="color: #666; font-size: 12px; margin-top: 24px;">This is an automated message from the Office of Student Affairs and Services. Please do not reply.</p>
	</div>
</body>
</html>`, firstName, headline, scholarshipTitle, detail)

	textBody := fmt.Sprintf(`Scholarship Application Update

Hi %s,

%s

Scholarship: %s
%s
`, firstName, headline, scholarshipTitle, detail)

	return s.send(ctx, email, "Scholarship application update", htmlBody, textBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
