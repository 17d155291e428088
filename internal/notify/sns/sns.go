// Package sns delivers escalation notifications to an SNS topic.
package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/linnemanlabs/warden/internal/notify"
)

// Notifier publishes escalations to a fixed SNS topic.
type Notifier struct {
	client   *awssns.Client
	topicARN string
}

// New creates an SNS notifier targeting topicARN.
func New(cfg aws.Config, topicARN string) *Notifier {
	return &Notifier{
		client:   awssns.NewFromConfig(cfg),
		topicARN: topicARN,
	}
}

// Notify publishes the escalation. The severity is folded into the subject so
// email subscribers can filter without parsing the body.
func (n *Notifier) Notify(ctx context.Context, subject, message string, sev notify.Severity) error {
	_, err := n.client.Publish(ctx, &awssns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(buildSubject(subject, sev)),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

func buildSubject(subject string, sev notify.Severity) string {
	s := fmt.Sprintf("[%s] %s", severityTag(sev), subject)
	// SNS rejects subjects over 100 characters.
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

func severityTag(sev notify.Severity) string {
	switch sev {
	case notify.SeverityCritical:
		return "CRITICAL"
	case notify.SeverityHigh:
		return "HIGH"
	case notify.SeverityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
