package communication

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	dErrors "certguard/pkg/domain-errors"
)

// SESService is the slice of the SES client the dispatcher uses, split out
// for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESDispatcher delivers communications as email through AWS SES.
type SESDispatcher struct {
	client SESService
	sender string
	logger *slog.Logger
}

// NewSES constructs an SES-backed dispatcher using the default AWS
// credential chain.
func NewSES(ctx context.Context, region, sender string, logger *slog.Logger) (*SESDispatcher, error) {
	if sender == "" {
		return nil, fmt.Errorf("sender address is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &SESDispatcher{
		client: ses.NewFromConfig(cfg),
		sender: sender,
		logger: logger,
	}, nil
}

// NewSESWithClient constructs a dispatcher around an existing client.
func NewSESWithClient(client SESService, sender string, logger *slog.Logger) *SESDispatcher {
	return &SESDispatcher{
		client: client,
		sender: sender,
		logger: logger,
	}
}

func (d *SESDispatcher) Dispatch(ctx context.Context, req Request) error {
	if req.Recipient == "" {
		return dErrors.New(dErrors.CodeValidation, "communication recipient is required")
	}

	_, err := d.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{req.Recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(req.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(req.Body)},
			},
		},
		Source: aws.String(d.sender),
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if d.logger != nil {
		d.logger.InfoContext(ctx, "communication dispatched",
			"type", req.Type,
			"recipient", req.Recipient,
		)
	}
	return nil
}
