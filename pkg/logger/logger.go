package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Interface define o contrato de log usado pelos pacotes internos
type Interface interface {
	Debug(message interface{}, args ...interface{})
	Info(message interface{}, args ...interface{})
	Warn(message interface{}, args ...interface{})
	Error(message interface{}, args ...interface{})
	Fatal(message interface{}, args ...interface{})
}

// Logger encapsula um zerolog.Logger
type Logger struct {
	logger *zerolog.Logger
}

var _ Interface = (*Logger)(nil)

// New cria um logger com saída formatada para console no nível informado
func New(level string) *Logger {
	return NewWithWriter(level, zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})
}

// NewWithWriter cria um logger escrevendo em w (usado nos testes)
func NewWithWriter(level string, w io.Writer) *Logger {
	l := parseLevel(level)

	logger := zerolog.New(w).
		Level(l).
		With().
		Timestamp().
		Logger()

	return &Logger{logger: &logger}
}

// Nop retorna um logger que descarta tudo
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{logger: &l}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return zerolog.ErrorLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "debug":
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(message interface{}, args ...interface{}) {
	l.event(l.logger.Debug(), message, args...)
}

func (l *Logger) Info(message interface{}, args ...interface{}) {
	l.event(l.logger.Info(), message, args...)
}

func (l *Logger) Warn(message interface{}, args ...interface{}) {
	l.event(l.logger.Warn(), message, args...)
}

func (l *Logger) Error(message interface{}, args ...interface{}) {
	l.event(l.logger.Error(), message, args...)
}

// Fatal registra a mensagem e encerra o processo
func (l *Logger) Fatal(message interface{}, args ...interface{}) {
	l.event(l.logger.WithLevel(zerolog.FatalLevel), message, args...)
	os.Exit(1)
}

// WithField retorna um logger filho com um campo fixo
func (l *Logger) WithField(key string, value interface{}) *Logger {
	child := l.logger.With().Interface(key, value).Logger()
	return &Logger{logger: &child}
}

// args são pares chave/valor; chaves que não são string são ignoradas
func (l *Logger) event(e *zerolog.Event, message interface{}, args ...interface{}) {
	if e == nil {
		return
	}

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if err, isErr := args[i+1].(error); isErr {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, args[i+1])
	}

	switch msg := message.(type) {
	case error:
		e.Msg(msg.Error())
	case string:
		e.Msg(msg)
	default:
		e.Msg(fmt.Sprintf("%v", message))
	}
}
