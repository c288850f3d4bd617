package auditkafka

import (
	"context"
	"time"

	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the part of *kgo.Client the publisher needs
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher writes audit events as JSON records to a Kafka topic, keyed
// by tenant and subject so per-subject ordering holds.
type Publisher struct {
	client  Producer
	topic   string
	timeout time.Duration
}

var _ audit.Publisher = (*Publisher)(nil)

func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, errx.Wrap(err, "failed to create kafka client", errx.TypeExternal)
	}
	return NewWithProducer(client, topic), nil
}

func NewWithProducer(client Producer, topic string) *Publisher {
	return &Publisher{
		client:  client,
		topic:   topic,
		timeout: 5 * time.Second,
	}
}

func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	value, err := event.Marshal()
	if err != nil {
		return errx.Wrap(err, "failed to encode audit event", errx.TypeInternal)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(event.Key()),
		Value:     value,
		Timestamp: event.OccurredAt,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		logx.Errorf("audit: failed to publish %s for %s: %v", event.Type, event.Subject, err)
		return errx.Wrap(err, "failed to publish audit event", errx.TypeExternal).
			WithDetail("event_type", string(event.Type))
	}
	return nil
}

func (p *Publisher) Close() error {
	p.client.Close()
	return nil
}
