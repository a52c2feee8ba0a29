package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"dataroom/backend/go/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONWithRenamedKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(logrus.DebugLevel, &buf)
	t.Cleanup(func() { Init(logrus.InfoLevel) })

	New("rag-service", "trace-1", "proj-1").Info("indexed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "indexed", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "rag-service", line["service_name"])
	assert.Equal(t, "trace-1", line["trace_id"])
	assert.Equal(t, "proj-1", line["project_id"])
	assert.Contains(t, line, "timestamp")
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(logrus.DebugLevel, &buf)
	t.Cleanup(func() { Init(logrus.InfoLevel) })

	base := New("rag-service", "", "")
	_ = base.WithError(models.ErrorInfo{Message: "boom"})
	base.Info("plain")

	assert.False(t, strings.Contains(buf.String(), "boom"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("not-a-level"))
}
