package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"wizdraft/internal/config"
)

const logLevelEnvKey = "WIZDRAFT_LOG_LEVEL"

// levelSetting is one place a log level can come from. name is how the
// source is spelled back to the user in warnings.
type levelSetting struct {
	name  string
	value string
}

// pickLogLevel applies flag > env > config precedence. ok is false when no
// source sets a level.
func pickLogLevel(flagLevel, envLevel, configLevel string) (levelSetting, bool) {
	for _, s := range []levelSetting{
		{name: "--log-level", value: flagLevel},
		{name: logLevelEnvKey, value: envLevel},
		{name: "log_level", value: configLevel},
	} {
		if strings.TrimSpace(s.value) != "" {
			return s, true
		}
	}
	return levelSetting{}, false
}

// configureLoggerForCLI installs the default slog logger. An invalid flag is
// an error; an invalid env or config value falls back to the default level
// and returns a warning for the caller to print.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	setting, ok := pickLogLevel(flagLevel, os.Getenv(logLevelEnvKey), configLevel)
	level, err := parseLogLevel(setting.value)
	if !ok || err == nil {
		slog.SetDefault(newLogger(level))
		return "", nil
	}
	if setting.name == "--log-level" {
		return "", fmt.Errorf("invalid --log-level %q", setting.value)
	}

	fallback, _ := parseLogLevel("")
	slog.SetDefault(newLogger(fallback))
	return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", setting.name, setting.value, config.DefaultLogLevel), nil
}

// parseLogLevel accepts slog level names, "warning" and numeric levels.
// An empty value selects config.DefaultLogLevel.
func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		value = config.DefaultLogLevel
	case "warning":
		value = "warn"
	}

	if n, err := strconv.Atoi(value); err == nil {
		return slog.Level(n), nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
