package log_test

import (
	"testing"

	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/arnavsurve/ideflow/pkg/security"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	events []*log.LogEvent
	closed bool
}

func (m *memorySink) Write(event *log.LogEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestRouterFansOutAndRedacts(t *testing.T) {
	first, second := &memorySink{}, &memorySink{}
	router := log.NewRouter(first)
	router.AddSink(second)
	router.Redactor = security.NewRedactor("hunter2")

	logger := log.NewZerologAdapter(zerolog.New(router).With().Timestamp().Logger())
	logger.Warn().
		Str("system", "http").
		Interface("headers", map[string]any{"Authorization": "Bearer hunter2"}).
		Msg("token hunter2 in use")

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)

	evt := first.events[0]
	assert.Equal(t, types.WarnLevel, evt.Level)
	assert.Equal(t, "token ******** in use", evt.Message)
	assert.Equal(t, "http", evt.Fields["system"])
	assert.Equal(t, map[string]any{"Authorization": "Bearer ********"}, evt.Fields["headers"])
	assert.False(t, evt.Timestamp.IsZero())

	require.NoError(t, router.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestRouterIgnoresGarbage(t *testing.T) {
	sink := &memorySink{}
	router := log.NewRouter(sink)

	n, err := router.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, len("not json"), n)
	assert.Empty(t, sink.events)
}

func TestConvertZerologLevel(t *testing.T) {
	assert.Equal(t, types.DebugLevel, log.ConvertZerologLevel(zerolog.TraceLevel))
	assert.Equal(t, types.ErrorLevel, log.ConvertZerologLevel(zerolog.ErrorLevel))
	assert.Equal(t, "warn", log.LevelString(types.WarnLevel))
}
