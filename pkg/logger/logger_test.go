package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Info("cache atualizado", "user", "gabe", "games", 3)

	out := buf.String()
	assert.Contains(t, out, `"message":"cache atualizado"`)
	assert.Contains(t, out, `"user":"gabe"`)
	assert.Contains(t, out, `"games":3`)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("ignorado")
	log.Debug("ignorado")
	assert.Empty(t, buf.String())

	log.Error(errors.New("falhou"), "error", errors.New("causa"))
	assert.Contains(t, buf.String(), `"message":"falhou"`)
	assert.Contains(t, buf.String(), `"error":"causa"`)
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf).WithField("run_id", "abc")

	log.Info("rodada")
	assert.Contains(t, buf.String(), `"run_id":"abc"`)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("nada", "k", "v")
	})
}
