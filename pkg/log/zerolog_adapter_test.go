package log_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAdapter(t *testing.T) {
	out := &bytes.Buffer{}
	zl := zerolog.New(out)
	log := log.NewZerologAdapter(zl)

	log.Info().
		Str("unit", "test").
		Int("n", 1).
		Bool("ok", true).
		Msg("hello")

	if !bytes.Contains(out.Bytes(), []byte(`"unit":"test"`)) {
		t.Fatalf("field missing")
	}
	assert.Contains(t, out.String(), `"ok":true`)
}

func TestNewRespectsLevel(t *testing.T) {
	out := &bytes.Buffer{}
	logger := log.New(out, "warn")

	logger.Info().Msg("dropped")
	logger.Warn().Dur("elapsed", 2*time.Second).Msg("kept")

	assert.NotContains(t, out.String(), "dropped")
	assert.Contains(t, out.String(), "kept")
	assert.Contains(t, out.String(), `"time"`)
}

func TestScopedContextCarriesFields(t *testing.T) {
	out := &bytes.Buffer{}
	logger := log.New(out, "debug")

	scoped := logger.With().Int("step_index", 2).Str("system", "ide").Logger()
	scoped.Debug().Msg("dispatching")

	assert.Contains(t, out.String(), `"step_index":2`)
	assert.Contains(t, out.String(), `"system":"ide"`)
}
