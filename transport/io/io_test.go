package io

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/jsoncodec"
	"github.com/bananabit-dev/dx-use-js-bridge/transport"
)

type ioConfig struct {
	file string
}

func (c *ioConfig) GetTransportSystem() string   { return TransportName }
func (c *ioConfig) GetNATSURL() string           { return "" }
func (c *ioConfig) GetNATSSubjectPrefix() string { return "" }
func (c *ioConfig) GetHTTPPublisherURL() string  { return "" }
func (c *ioConfig) GetIOFile() string            { return c.file }

func readRecords(t *testing.T, path string) []Record {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, jsoncodec.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	defer func() { transport.DefaultRegistry = original }()
	transport.DefaultRegistry = transport.NewRegistry()

	Register()

	assert.True(t, transport.DefaultRegistry.Has(TransportName))
	assert.Equal(t, transport.IOCapabilities, transport.GetCapabilities(TransportName))
}

func TestEvaluateAppendsRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	tr, err := Build(context.Background(), &ioConfig{file: path}, watermill.NopLogger{})
	require.NoError(t, err)
	defer tr.Close()

	require.NoError(t, tr.Evaluate(context.Background(), "console.log(1);"))
	require.NoError(t, tr.Evaluate(context.Background(), "console.log(2);"))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, KindEvaluate, records[0].Kind)
	assert.Equal(t, "console.log(1);", records[0].Payload)
	assert.Equal(t, "console.log(2);", records[1].Payload)
}

func TestInvokeAppendsRecordWithMethod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	tr, err := Build(context.Background(), &ioConfig{file: path}, watermill.NopLogger{})
	require.NoError(t, err)
	defer tr.Close()

	require.NoError(t, tr.Invoke(context.Background(), "syncState", []byte(`{"n":1}`)))

	records := readRecords(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, KindInvoke, records[0].Kind)
	assert.Equal(t, "syncState", records[0].Method)
	assert.Equal(t, `{"n":1}`, records[0].Payload)
}

func TestBuildDefaultsFilePath(t *testing.T) {
	tr, err := Build(context.Background(), &ioConfig{}, watermill.NopLogger{})
	require.NoError(t, err)
	defer tr.Close()

	assert.Equal(t, DefaultFilePath, tr.(*Transport).filePath)
}

func TestCapabilities(t *testing.T) {
	tr := &Transport{}
	assert.Equal(t, transport.IOCapabilities, tr.Capabilities())
}
