package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// MQTTFeed subscribes to a topic of JSON readings and hands out the most
// recent one per Collect.
type MQTTFeed struct {
	client mqtt.Client
	topic  string

	mu     sync.Mutex
	latest *model.Reading
	fresh  bool
}

// NewMQTTFeed connects to broker and subscribes to topic.
func NewMQTTFeed(broker, topic, clientID string, timeout time.Duration) (*MQTTFeed, error) {
	f := &MQTTFeed{topic: topic}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout).
		SetOnConnectHandler(func(c mqtt.Client) {
			// Resubscribe after reconnects.
			tok := c.Subscribe(topic, 1, f.handle)
			if tok.WaitTimeout(timeout) && tok.Error() != nil {
				slog.Error("mqtt subscribe failed", "topic", topic, "error", tok.Error())
			}
		})
	f.client = mqtt.NewClient(opts)

	tok := f.client.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout after %s", broker, timeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return f, nil
}

func (f *MQTTFeed) handle(_ mqtt.Client, msg mqtt.Message) {
	f.Ingest(msg.Payload(), time.Now())
}

// Ingest decodes one message payload and keeps it as the latest reading.
func (f *MQTTFeed) Ingest(payload []byte, now time.Time) {
	r, err := DecodeReading(payload, now)
	if err != nil {
		slog.Warn("mqtt message dropped", "topic", f.topic, "error", err)
		return
	}
	f.mu.Lock()
	f.latest = r
	f.fresh = true
	f.mu.Unlock()
}

func (f *MQTTFeed) Name() string { return "mqtt" }

func (f *MQTTFeed) Collect(ctx context.Context) (*model.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil || !f.fresh {
		return nil, ErrNoData
	}
	f.fresh = false
	r := *f.latest
	return &r, nil
}

func (f *MQTTFeed) Close() error {
	if f.client != nil {
		f.client.Disconnect(250)
	}
	return nil
}
