package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredefinedCapabilityNames(t *testing.T) {
	assert.Equal(t, "webview", WebViewCapabilities.Name)
	assert.Equal(t, "channel", ChannelCapabilities.Name)
	assert.Equal(t, "nats", NATSCapabilities.Name)
	assert.Equal(t, "http", HTTPCapabilities.Name)
	assert.Equal(t, "io", IOCapabilities.Name)
}

func TestOnlyWebViewRequiresReadiness(t *testing.T) {
	assert.True(t, WebViewCapabilities.RequiresReadiness)
	assert.False(t, ChannelCapabilities.RequiresReadiness)
	assert.False(t, NATSCapabilities.RequiresReadiness)
	assert.False(t, HTTPCapabilities.RequiresReadiness)
	assert.False(t, IOCapabilities.RequiresReadiness)
}

func TestEveryBuiltInSupportsEvaluate(t *testing.T) {
	for _, caps := range []Capabilities{
		WebViewCapabilities,
		ChannelCapabilities,
		NATSCapabilities,
		HTTPCapabilities,
		IOCapabilities,
	} {
		assert.True(t, caps.SupportsEvaluate, "transport %s must support evaluate", caps.Name)
		assert.True(t, caps.SupportsInvoke, "transport %s must support invoke", caps.Name)
	}
}

func TestOrderingGuarantees(t *testing.T) {
	assert.True(t, WebViewCapabilities.SupportsOrdering)
	assert.True(t, ChannelCapabilities.SupportsOrdering)
	assert.True(t, IOCapabilities.SupportsOrdering)
	assert.False(t, NATSCapabilities.SupportsOrdering)
	assert.False(t, HTTPCapabilities.SupportsOrdering)
}

func TestNATSPayloadLimit(t *testing.T) {
	assert.Equal(t, int64(1048576), NATSCapabilities.MaxPayloadSize)
	assert.Zero(t, WebViewCapabilities.MaxPayloadSize)
}
