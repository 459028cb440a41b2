package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// maxSubjectLen is the SNS limit for message subjects.
const maxSubjectLen = 100

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSAlerter publishes alerts to an SNS topic.
type SNSAlerter struct {
	client   snsAPI
	topicARN string
}

// NewSNSAlerter loads the default AWS configuration for region and creates
// an Alerter for topicARN.
func NewSNSAlerter(ctx context.Context, region, topicARN string) (*SNSAlerter, error) {
	if topicARN == "" {
		return nil, errors.New("sns: topic ARN is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("sns: failed to load AWS config: %w", err)
	}
	return &SNSAlerter{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// Alert implements Alerter.
func (a *SNSAlerter) Alert(ctx context.Context, alert Alert) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Message:  aws.String(alert.Message),
	}
	if s := subject(alert.Subject); s != "" {
		input.Subject = aws.String(s)
	}
	if _, err := a.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns: %w", err)
	}
	return nil
}

// subject trims s to a valid SNS subject: ASCII without control characters
// and at most maxSubjectLen long.
func subject(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			if r == '\n' || r == '\t' {
				out = append(out, ' ')
			}
			continue
		}
		out = append(out, byte(r))
		if len(out) == maxSubjectLen {
			break
		}
	}
	return string(out)
}
