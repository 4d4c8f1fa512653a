package sns

import (
	"context"
	"fmt"

	"github.com/Donatronix/identity-center-ms-sub001/internal/config"
	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SMSSender dispatches one-time codes to a phone number via AWS SNS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type sender struct {
	client *sns.Client
}

func NewSender(cfg *config.Config) (SMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg)}, nil
}

// SendSMS publishes the message. SNS requires the E.164 "+" prefix, which the
// canonical digits-only form drops, so it is re-added here.
func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	e164 := "+" + to
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &e164,
		Message:     &message,
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %v: %w", to, err, domain.ErrExternalGateway)
	}
	return nil
}
