package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type Conf struct {
	client  *kgo.Client
	timeout time.Duration
	// onFailure is called for records the brokers never acknowledged
	onFailure func(traceId string, r *kgo.Record, err error)
}

// NewConf connects a producer to the given brokers. An empty broker list yields a nil Conf,
// on which every publish is a no-op.
func NewConf(brokers []string, clientID string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	timeout := 5 * time.Second
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(10*time.Millisecond),
		kgo.RecordDeliveryTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client, timeout: timeout, onFailure: logFailure}, nil
}

func logFailure(traceId string, r *kgo.Record, err error) {
	slog.Error("failed to produce message", slog.String(logkey.TraceID, traceId),
		slog.String("Topic", r.Topic), slog.String("Key", string(r.Key)), slog.String(logkey.ERROR, err.Error()))
}

// ProduceMessage hands the record to the client and returns without waiting for the brokers.
// Delivery failures are logged with the trace id carried by ctx.
func (k *Conf) ProduceMessage(ctx context.Context, topic string, key, value []byte) error {
	if k == nil || k.client == nil {
		return nil
	}
	traceId := ctxmanage.TraceIdFromContext(ctx)
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	// the request context ends with the response; delivery is bounded by RecordDeliveryTimeout
	k.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil && k.onFailure != nil {
			k.onFailure(traceId, r, err)
		}
	})
	return nil
}

// Publish encodes event as JSON and produces it keyed by key.
func (k *Conf) Publish(ctx context.Context, topic, key string, event any) error {
	if k == nil {
		return nil
	}
	value, err := Encode(event)
	if err != nil {
		return err
	}
	return k.ProduceMessage(ctx, topic, []byte(key), value)
}

// Close waits up to the delivery timeout for buffered records, then closes the client.
func (k *Conf) Close() {
	if k == nil || k.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.client.Flush(ctx); err != nil {
		slog.Warn("kafka flush interrupted", slog.String(logkey.ERROR, err.Error()))
	}
	k.client.Close()
}

func Encode(event any) ([]byte, error) {
	if event == nil {
		return nil, errors.New("event is nil")
	}
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}
