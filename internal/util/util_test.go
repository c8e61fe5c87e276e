package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{name: "zero", duration: 0, want: "0 seconds"},
		{name: "one second", duration: time.Second, want: "1 second"},
		{name: "minutes and seconds", duration: 2*time.Minute + 5*time.Second, want: "2 minutes, 5 seconds"},
		{name: "whole hour", duration: time.Hour, want: "1 hour"},
		{name: "all units", duration: 3*time.Hour + time.Minute + 2*time.Second, want: "3 hours, 1 minute, 2 seconds"},
		{name: "sub-second", duration: 300 * time.Millisecond, want: "0 seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.duration))
		})
	}
}

func TestFormatTimeUnit(t *testing.T) {
	assert.Equal(t, "1 hour", FormatTimeUnit(1, "hour", "hours", false))
	assert.Equal(t, "4 hours", FormatTimeUnit(4, "hour", "hours", false))
	assert.Empty(t, FormatTimeUnit(0, "hour", "hours", false))
	assert.Equal(t, "0 seconds", FormatTimeUnit(0, "second", "seconds", true))
}

func TestFilterEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FilterEmpty([]string{"", "a", "", "b"}))
	assert.Nil(t, FilterEmpty([]string{"", ""}))
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "make build", CommandLine([]string{"make", "build"}))
	assert.Equal(t, `sh -c "echo hi"`, CommandLine([]string{"sh", "-c", "echo hi"}))
	assert.Equal(t, `echo ""`, CommandLine([]string{"echo", ""}))
	assert.Empty(t, CommandLine(nil))
}
