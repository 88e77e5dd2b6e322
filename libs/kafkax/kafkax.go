// Package kafkax holds the Kafka helpers the outbox publisher needs.
package kafkax

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

var ErrNoBrokers = errors.New("kafka brokers not configured")

// SplitBrokers parses a comma-separated broker list, dropping blanks.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// EventHeaders builds the headers every published event carries: its id,
// its type and the W3C trace context of ctx.
func EventHeaders(ctx context.Context, eventID, eventType string) []kafka.Header {
	carrier := &headerCarrier{headers: []kafka.Header{
		{Key: HeaderEventID, Value: []byte(eventID)},
		{Key: HeaderEventType, Value: []byte(eventType)},
	}}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// ReadyCheck succeeds when any broker accepts a connection.
func ReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return ErrNoBrokers
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		var errs []error
		for _, broker := range brokers {
			conn, err := dialer.DialContext(ctx, "tcp", broker)
			if err == nil {
				_ = conn.Close()
				return nil
			}
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	return HeaderValue(c.headers, key)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key string, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
