// Package nats provides a NATS Core transport for the bridge, used when the
// host runtime lives in another process (remote WebViews, devtools shells).
package nats

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/bananabit-dev/dx-use-js-bridge/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "nats"

// DefaultSubjectPrefix namespaces the subjects deliveries are published on.
const DefaultSubjectPrefix = "jsbridge"

// MetadataKeyMethod carries the Invoke method name on invoke messages.
const MetadataKeyMethod = "jsbridge_method"

// NatsOptions are passed to the underlying connection. Embedders can append
// credentials or TLS settings before the transport is built.
var NatsOptions = []nc.Option{
	nc.RetryOnFailedConnect(true),
	nc.Timeout(nc.DefaultTimeout),
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmnats.NewPublisher(cfg, logger)
}

// Register registers the NATS transport with the default registry. This
// should be called from an init() function in an importing package, or
// explicitly before using the transport.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSCapabilities)
}

// Build creates a new NATS transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	url := cfg.GetNATSURL()
	prefix := cfg.GetNATSSubjectPrefix()
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	publisher, err := PublisherFactory(
		wmnats.PublisherConfig{
			URL:         url,
			NatsOptions: NatsOptions,
			Marshaler:   &wmnats.NATSMarshaler{},
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Transport{publisher: publisher, prefix: prefix}, nil
}

// Transport publishes deliveries to NATS subjects.
type Transport struct {
	publisher message.Publisher
	prefix    string
}

// Evaluate publishes the script to <prefix>.evaluate.
func (t *Transport) Evaluate(ctx context.Context, script string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(script))
	msg.SetContext(ctx)
	return t.publisher.Publish(t.prefix+".evaluate", msg)
}

// Invoke publishes the payload to <prefix>.invoke.<method>.
func (t *Transport) Invoke(ctx context.Context, method string, payload []byte) error {
	if method == "" {
		return fmt.Errorf("nats: invoke method is required")
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataKeyMethod, method)
	return t.publisher.Publish(t.prefix+".invoke."+method, msg)
}

// Close closes the underlying publisher.
func (t *Transport) Close() error {
	return t.publisher.Close()
}

// Capabilities returns the capabilities of this transport.
func (t *Transport) Capabilities() transport.Capabilities {
	return transport.NATSCapabilities
}
