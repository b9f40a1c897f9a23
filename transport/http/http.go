// Package http provides an HTTP transport for the bridge. Deliveries are
// POSTed to a host-runtime dev server, which is how hot-reload tooling feeds
// a browser-hosted runtime.
package http

import (
	"context"
	nethttp "net/http"

	"github.com/ThreeDotsLabs/watermill"
	wmhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/bananabit-dev/dx-use-js-bridge/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "http"

// Paths deliveries are POSTed to, relative to the publisher URL.
const (
	EvaluatePath = "/jsbridge/evaluate"
	InvokePath   = "/jsbridge/invoke/"
)

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config wmhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmhttp.NewPublisher(config, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.HTTPCapabilities)
}

// Build creates a new HTTP transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	publisherURL := cfg.GetHTTPPublisherURL()

	publisher, err := PublisherFactory(
		wmhttp.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				url := publisherURL + topic
				return wmhttp.DefaultMarshalMessageFunc(url, msg)
			},
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Transport{publisher: publisher}, nil
}

// Transport POSTs deliveries to the host runtime's dev server.
type Transport struct {
	publisher message.Publisher
}

// Evaluate POSTs the script to the evaluate path.
func (t *Transport) Evaluate(ctx context.Context, script string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(script))
	msg.SetContext(ctx)
	return t.publisher.Publish(EvaluatePath, msg)
}

// Invoke POSTs the payload to the invoke path for the method.
func (t *Transport) Invoke(ctx context.Context, method string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return t.publisher.Publish(InvokePath+method, msg)
}

// Close closes the underlying publisher.
func (t *Transport) Close() error {
	return t.publisher.Close()
}

// Capabilities returns the capabilities of this transport.
func (t *Transport) Capabilities() transport.Capabilities {
	return transport.HTTPCapabilities
}
