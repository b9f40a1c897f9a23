// Package channel provides an in-memory transport backed by Watermill's
// gochannel Pub/Sub. The host runtime is simulated by subscribing to the
// script and invoke topics, which makes this transport useful for testing and
// local development.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/bananabit-dev/dx-use-js-bridge/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

// Topics the transport publishes on. A test subscribes to these to play the
// host runtime.
const (
	EvaluateTopic = "jsbridge.evaluate"
	InvokeTopic   = "jsbridge.invoke"
)

// MetadataKeyMethod carries the Invoke method name on invoke messages.
const MetadataKeyMethod = "jsbridge_method"

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
}

// Build creates a new Go channel transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	pubSub := Factory(gochannel.Config{}, logger)
	return &Transport{pubSub: pubSub}, nil
}

// Transport publishes deliveries onto in-process topics.
type Transport struct {
	pubSub *gochannel.GoChannel
}

// New wraps an existing gochannel Pub/Sub so tests can subscribe before the
// bridge starts delivering.
func New(pubSub *gochannel.GoChannel) *Transport {
	return &Transport{pubSub: pubSub}
}

// Evaluate publishes the script to the evaluate topic.
func (t *Transport) Evaluate(ctx context.Context, script string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(script))
	msg.SetContext(ctx)
	return t.pubSub.Publish(EvaluateTopic, msg)
}

// Invoke publishes the payload to the invoke topic with the method name in
// metadata.
func (t *Transport) Invoke(ctx context.Context, method string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataKeyMethod, method)
	return t.pubSub.Publish(InvokeTopic, msg)
}

// Subscribe exposes the underlying Pub/Sub so a simulated host can consume
// deliveries.
func (t *Transport) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return t.pubSub.Subscribe(ctx, topic)
}

// Close closes the underlying Pub/Sub.
func (t *Transport) Close() error {
	return t.pubSub.Close()
}

// Capabilities returns the capabilities of this transport.
func (t *Transport) Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}
