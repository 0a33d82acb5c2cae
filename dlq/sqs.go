package dlq

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/hugolhafner/avro-enricher/errorhandler"
)

const maxDeduplicationID = 128

// SQSAPI captures the SQS call used by SQSSink.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

func NewSQSClient(cfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(cfg)
}

var _ Sink = (*SQSSink)(nil)

// SQSSink sends one message per failed record to an SQS queue.
type SQSSink struct {
	api      SQSAPI
	queueURL string
	fifo     bool
	cfg      Config
}

func NewSQSSink(api SQSAPI, queueURL string, opts ...Option) *SQSSink {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &SQSSink{
		api:      api,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		cfg:      cfg,
	}
}

func (s *SQSSink) Send(ctx context.Context, ec errorhandler.ErrorContext) error {
	body, err := Body(ec)
	if err != nil {
		return err
	}

	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: messageAttributes(errorAttributes(ec, s.cfg.Now())),
	}

	if s.fifo {
		in.MessageGroupId = aws.String(messageGroupID(ec))
		in.MessageDeduplicationId = aws.String(deduplicationID(ec))
	}

	out, err := s.api.SendMessage(ctx, in)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			s.cfg.Logger.Error(
				"SQS send failed",
				"code", apiErr.ErrorCode(),
				"topic", ec.Record.Topic,
				"partition", ec.Record.Partition,
				"offset", ec.Record.Offset,
			)
		}
		return fmt.Errorf("send to dead-letter queue: %w", err)
	}

	s.cfg.Logger.Debug(
		"Dead-lettered record",
		"message_id", aws.ToString(out.MessageId),
		"topic", ec.Record.Topic,
		"partition", ec.Record.Partition,
		"offset", ec.Record.Offset,
	)
	return nil
}

func (s *SQSSink) Close() {}

func messageAttributes(attrs []attribute) map[string]types.MessageAttributeValue {
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for _, a := range attrs {
		out[a.Key] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(a.Value),
		}
	}
	return out
}

func messageGroupID(ec errorhandler.ErrorContext) string {
	if ec.Record.EventSourceKey != "" {
		return ec.Record.EventSourceKey
	}
	return ec.Record.TopicPartition()
}

// deduplicationID is stable for a given topic, partition and offset. Long topic
// names are hashed to stay within the SQS limit.
func deduplicationID(ec errorhandler.ErrorContext) string {
	id := ec.Record.TopicPartition() + "-" + strconv.FormatInt(ec.Record.Offset, 10)
	if len(id) <= maxDeduplicationID {
		return id
	}

	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
