package main

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]string
		want   log.Level
	}{
		{"unset", nil, log.InfoLevel},
		{"blank", map[string]string{envLogLevel: "  "}, log.InfoLevel},
		{"debug", map[string]string{envLogLevel: "debug"}, log.DebugLevel},
		{"upper case", map[string]string{envLogLevel: " WARN "}, log.WarnLevel},
		{"invalid", map[string]string{envLogLevel: "loud"}, log.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseLogLevel(mapLookup(tc.values)); got != tc.want {
				t.Fatalf("parseLogLevel() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	prev := log.GetLevel()
	defer log.SetLevel(prev)

	setupLogger(mapLookup(map[string]string{envLogLevel: "error"}))
	if log.GetLevel() != log.ErrorLevel {
		t.Fatalf("expected error level, got %s", log.GetLevel())
	}
}
