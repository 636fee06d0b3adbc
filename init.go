package signalrun

import (
	"os"
	"strconv"

	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/raykavin/signalrun/pkg/logger/zerolog"
)

const (
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "SIGNALRUN_LOG_LEVEL"
	envLogTimeFormat = "SIGNALRUN_LOG_TIME_FORMAT"
	envLogColor      = "SIGNALRUN_LOG_COLOR"
	envLogJSON       = "SIGNALRUN_LOG_JSON"
)

// DefaultLog is the logger used when no WithLogger option is given
var DefaultLog logger.Logger

func init() {
	log, err := NewLogFromEnv()
	if err != nil {
		panic(err)
	}
	DefaultLog = log
}

// NewLogFromEnv builds a console logger configured by the SIGNALRUN_LOG_*
// environment variables
func NewLogFromEnv() (logger.Logger, error) {
	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	log, err := zerolog.New(zerolog.Options{
		Level:      getEnvWithDefault(envLogLevel, defaultLogLevel),
		TimeFormat: getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat),
		Colored:    logColored,
		JSON:       logJSON,
		Writer:     os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	return zerolog.NewAdapter(log), nil
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolEnv(key, defaultValue string) (bool, error) {
	return strconv.ParseBool(getEnvWithDefault(key, defaultValue))
}
