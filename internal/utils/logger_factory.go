package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	consoleTimeLayoutConstant            = "15:04:05"
	consoleTimeKeyConstant               = "time"
	consoleLevelKeyConstant              = "level"
	consoleMessageKeyConstant            = "message"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// ParseLogLevel accepts a configured level in any case with surrounding whitespace.
func ParseLogLevel(configuredValue string) (LogLevel, error) {
	logLevel := LogLevel(strings.ToLower(strings.TrimSpace(configuredValue)))
	if _, supported := logLevelMapping[logLevel]; !supported {
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, configuredValue)
	}
	return logLevel, nil
}

// ParseLogFormat accepts a configured format in any case with surrounding whitespace.
func ParseLogFormat(configuredValue string) (LogFormat, error) {
	logFormat := LogFormat(strings.ToLower(strings.TrimSpace(configuredValue)))
	switch logFormat {
	case LogFormatStructured, LogFormatConsole:
		return logFormat, nil
	default:
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, configuredValue)
	}
}

// HumanReadable reports whether the format is meant for a terminal rather than a log pipeline.
func (logFormat LogFormat) HumanReadable() bool {
	return logFormat == LogFormatConsole
}

// LoggerFactory builds herd loggers. Structured loggers emit JSON lines with callers and error stack
// traces; console loggers emit short lines of time, level, message and fields.
type LoggerFactory struct {
	sink io.Writer
}

// NewLoggerFactory constructs a factory whose loggers write to standard error.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// NewLoggerFactoryWithSink constructs a factory whose loggers write to sink.
func NewLoggerFactoryWithSink(sink io.Writer) *LoggerFactory {
	return &LoggerFactory{sink: sink}
}

// CreateLogger produces a logger for the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	var encoder zapcore.Encoder
	var options []zap.Option
	switch requestedLogFormat {
	case LogFormatStructured:
		encoder = zapcore.NewJSONEncoder(structuredEncoderConfig())
		options = append(options, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	case LogFormatConsole:
		encoder = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	core := zapcore.NewCore(encoder, factory.writeSyncer(), zap.NewAtomicLevelAt(zapLogLevel))
	return zap.New(core, options...), nil
}

// writeSyncer resolves os.Stderr when the logger is created so redirected standard error is honoured.
func (factory *LoggerFactory) writeSyncer() zapcore.WriteSyncer {
	if factory.sink == nil {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.Lock(zapcore.AddSync(factory.sink))
}

func structuredEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return encoderConfig
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        consoleTimeKeyConstant,
		LevelKey:       consoleLevelKeyConstant,
		MessageKey:     consoleMessageKeyConstant,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(consoleTimeLayoutConstant),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
