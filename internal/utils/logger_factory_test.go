package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"regexp"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/herd/internal/utils"
)

const (
	testRepositoryLogMessageConstant = "Repository enrolled"
	testDebugLogMessageConstant      = "Fetching candidates"
	testFailureLogMessageConstant    = "Repository failed"
	testRepositoryFieldConstant      = "repository"
	testRepositoryValueConstant      = "acme/api"
)

var consoleLinePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\s+INFO\s+Repository enrolled\s+\{"repository": "acme/api"\}$`)

func TestLoggerFactoryFormats(testInstance *testing.T) {
	testCases := []struct {
		name         string
		format       utils.LogFormat
		verifyOutput func(testInstance *testing.T, output []byte)
	}{
		{
			name:   "structured_emits_json",
			format: utils.LogFormatStructured,
			verifyOutput: func(testInstance *testing.T, output []byte) {
				var entry map[string]any
				require.NoError(testInstance, json.Unmarshal(output, &entry))
				require.Equal(testInstance, testRepositoryLogMessageConstant, entry["msg"])
				require.Equal(testInstance, testRepositoryValueConstant, entry[testRepositoryFieldConstant])
				require.Contains(testInstance, entry, "caller")
				require.Contains(testInstance, entry, "ts")
			},
		},
		{
			name:   "console_emits_short_lines",
			format: utils.LogFormatConsole,
			verifyOutput: func(testInstance *testing.T, output []byte) {
				require.False(testInstance, json.Valid(output))
				require.Regexp(testInstance, consoleLinePattern, string(output))
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			sink := &bytes.Buffer{}
			logger, creationError := utils.NewLoggerFactoryWithSink(sink).CreateLogger(utils.LogLevelInfo, testCase.format)
			require.NoError(testInstance, creationError)

			logger.Debug(testDebugLogMessageConstant)
			logger.Info(testRepositoryLogMessageConstant, zap.String(testRepositoryFieldConstant, testRepositoryValueConstant))

			output := bytes.TrimSpace(sink.Bytes())
			require.NotContains(testInstance, string(output), testDebugLogMessageConstant)
			testCase.verifyOutput(testInstance, output)
		})
	}
}

func TestLoggerFactoryStackTracesOnlyInStructuredErrors(testInstance *testing.T) {
	testCases := []struct {
		name               string
		format             utils.LogFormat
		expectedStackTrace bool
	}{
		{name: "structured", format: utils.LogFormatStructured, expectedStackTrace: true},
		{name: "console", format: utils.LogFormatConsole, expectedStackTrace: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			sink := &bytes.Buffer{}
			logger, creationError := utils.NewLoggerFactoryWithSink(sink).CreateLogger(utils.LogLevelInfo, testCase.format)
			require.NoError(testInstance, creationError)

			logger.Error(testFailureLogMessageConstant)
			require.Equal(testInstance, testCase.expectedStackTrace, bytes.Contains(sink.Bytes(), []byte("TestLoggerFactoryStackTracesOnlyInStructuredErrors")))
		})
	}
}

func TestLoggerFactoryHonoursLevel(testInstance *testing.T) {
	sink := &bytes.Buffer{}
	logger, creationError := utils.NewLoggerFactoryWithSink(sink).CreateLogger(utils.LogLevelWarn, utils.LogFormatStructured)
	require.NoError(testInstance, creationError)

	logger.Info(testRepositoryLogMessageConstant)
	logger.Warn(testFailureLogMessageConstant)

	require.NotContains(testInstance, sink.String(), testRepositoryLogMessageConstant)
	require.Contains(testInstance, sink.String(), testFailureLogMessageConstant)
}

func TestLoggerFactoryWritesToStandardErrorByDefault(testInstance *testing.T) {
	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStandardError := os.Stderr
	os.Stderr = pipeWriter
	logger, creationError := utils.NewLoggerFactory().CreateLogger(utils.LogLevelInfo, utils.LogFormatConsole)
	os.Stderr = originalStandardError
	require.NoError(testInstance, creationError)

	logger.Info(testRepositoryLogMessageConstant, zap.String(testRepositoryFieldConstant, testRepositoryValueConstant))
	if syncError := logger.Sync(); syncError != nil {
		require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
	}
	require.NoError(testInstance, pipeWriter.Close())

	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())
	require.Regexp(testInstance, consoleLinePattern, string(bytes.TrimSpace(capturedOutput)))
}

func TestLoggerFactoryRejectsUnknownSettings(testInstance *testing.T) {
	testCases := []struct {
		name            string
		level           utils.LogLevel
		format          utils.LogFormat
		expectedMessage string
	}{
		{name: "level", level: utils.LogLevel("verbose"), format: utils.LogFormatStructured, expectedMessage: "unsupported log level: verbose"},
		{name: "format", level: utils.LogLevelInfo, format: utils.LogFormat("xml"), expectedMessage: "unsupported log format: xml"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			logger, creationError := utils.NewLoggerFactoryWithSink(&bytes.Buffer{}).CreateLogger(testCase.level, testCase.format)
			require.Nil(testInstance, logger)
			require.EqualError(testInstance, creationError, testCase.expectedMessage)
		})
	}
}

func TestParseLogSettings(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		configuredLevel       string
		configuredFormat      string
		expectedLevel         utils.LogLevel
		expectedFormat        utils.LogFormat
		expectedHumanReadable bool
		expectedError         string
	}{
		{name: "normalized", configuredLevel: " DEBUG ", configuredFormat: "Console", expectedLevel: utils.LogLevelDebug, expectedFormat: utils.LogFormatConsole, expectedHumanReadable: true},
		{name: "structured", configuredLevel: "warn", configuredFormat: "structured", expectedLevel: utils.LogLevelWarn, expectedFormat: utils.LogFormatStructured},
		{name: "unknown_level", configuredLevel: "verbose", configuredFormat: "console", expectedError: "unsupported log level: verbose"},
		{name: "unknown_format", configuredLevel: "info", configuredFormat: "xml", expectedError: "unsupported log format: xml"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			logLevel, levelError := utils.ParseLogLevel(testCase.configuredLevel)
			logFormat, formatError := utils.ParseLogFormat(testCase.configuredFormat)
			if len(testCase.expectedError) > 0 {
				require.EqualError(testInstance, errors.Join(levelError, formatError), testCase.expectedError)
				return
			}
			require.NoError(testInstance, levelError)
			require.NoError(testInstance, formatError)
			require.Equal(testInstance, testCase.expectedLevel, logLevel)
			require.Equal(testInstance, testCase.expectedFormat, logFormat)
			require.Equal(testInstance, testCase.expectedHumanReadable, logFormat.HumanReadable())
		})
	}
}
