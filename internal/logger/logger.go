package logger

import (
	"fmt"
	"io"
	"os"

	"firmata2mqtt/internal/config"
	"github.com/sirupsen/logrus"
)

type Log struct {
	*logrus.Entry
}

// NewLogger конструктор. Пишет в Stdout.
func NewLogger(cfg config.LogConf) (*Log, error) {
	return NewLoggerTo(cfg, os.Stdout)
}

// NewLoggerTo конструктор с произвольным выводом.
func NewLoggerTo(cfg config.LogConf, out io.Writer) (*Log, error) {
	log := logrus.New()

	log.SetOutput(out)

	switch cfg.Format {
	case "json":
		log.Formatter = &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.0000",
		}
	case "", "text":
		log.Formatter = &logrus.TextFormatter{
			TimestampFormat:  "2006-01-02 15:04:05.0000",
			DisableColors:    false,
			ForceColors:      out == os.Stdout,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		}
	default:
		return nil, fmt.Errorf("logger. Error in settings (format: %s)", cfg.Format)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger. Error in settings (level: %s): %w", cfg.Level, err)
	}
	log.SetLevel(level)
	log.Debug("set level: ", level)

	return &Log{Entry: log.WithFields(nil)}, nil
}

// With will add the fields to the formatted log entry.
func (l *Log) With(fields Fields) *Log {
	return &Log{Entry: l.WithFields(logrus.Fields(fields))}
}

// Module is a shorthand for With(Fields{"module": name}).
func (l *Log) Module(name string) *Log {
	return l.With(Fields{"module": name})
}

func (l *Log) GetLevel() string {
	return l.Logger.Level.String()
}

// SetLevel changes the level of the underlying logger, e.g. from the --debug flag.
func (l *Log) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(lvl)
	return nil
}

// Fields are a representation of formatted log fields.
type Fields map[string]interface{}

// Logger интерфейс для регистратора.
type Logger interface {
	// GetLevel возвращает текущий установленный уровень логирования.
	GetLevel() string
	With(fields Fields) *Log
	Module(name string) *Log
}
