package notifications

import (
	"time"

	"github.com/sirupsen/logrus"
)

// StaticData is the part of the notification template data model set upon initialization.
type StaticData struct {
	Title string
	Host  string
}

// Data is the notification template data model.
type Data struct {
	StaticData
	Session  string
	Failed   bool
	Duration time.Duration
	Entries  []*logrus.Entry
}

// Status returns "failed" or "succeeded".
func (d Data) Status() string {
	if d.Failed {
		return "failed"
	}

	return "succeeded"
}
