// Package templates provides functions for use in task report templates.
package templates

import (
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nicholas-fedor/taskhooks/internal/util"
)

// Funcs defines the functions available to task report templates.
var Funcs = template.FuncMap{
	"Verdict":  verdict,
	"Elapsed":  elapsed,
	"LevelTag": levelTag,
	"ToJSON":   toJSON,
}

var titleCase = cases.Title(language.AmericanEnglish)

// verdict renders the failed flag passed to task_stop as "FAILED" or "SUCCEEDED".
func verdict(failed bool) string {
	if failed {
		return "FAILED"
	}

	return "SUCCEEDED"
}

// elapsed renders a session duration in words, e.g. "2 minutes, 5 seconds".
// Sessions shorter than a second report their milliseconds.
func elapsed(d time.Duration) string {
	if d > 0 && d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}

	return util.FormatDuration(d)
}

// levelTag renders a collected log level as a label, e.g. "Warning".
func levelTag(level logrus.Level) string {
	return titleCase.String(level.String())
}

// toJSON renders a report as indented JSON.
// A value that cannot be marshaled renders as an error message.
func toJSON(v any) string {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logrus.WithError(err).WithField("notify", "no").Warn("Failed to render task report as JSON")

		return fmt.Sprintf("failed to render task report as JSON: %v", err)
	}

	return string(bytes)
}
