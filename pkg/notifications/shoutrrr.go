package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/sirupsen/logrus"

	shoutrrrTypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/notifications/templates"
)

// LocalLog is a logrus logger that does not send entries as notifications.
// It’s used for internal logging to avoid notification loops.
var LocalLog = logrus.WithField("notify", "no")

// maxSendRetries bounds the retries after a failed send.
const maxSendRetries = 3

// initialEntriesCapacity defines the initial capacity for the collected log entries.
const initialEntriesCapacity = 10

// Errors for notification handling.
var (
	// errSendFailed indicates that a service rejected the message on every attempt.
	errSendFailed = errors.New("failed to send notification")
	// errInitFailed indicates the Shoutrrr sender could not be created.
	errInitFailed = errors.New("failed to initialize shoutrrr notifications")
	// errTemplateFailed indicates the notification template could not be rendered.
	errTemplateFailed = errors.New("failed to execute notification template")
)

// router defines the interface for sending Shoutrrr notifications.
// It abstracts the underlying service implementation.
type router interface {
	Send(message string, params *shoutrrrTypes.Params) []error
}

// Notifier sends one notification per task session.
//
// It is a plugin implementing task_start and task_stop, and a logrus hook that
// collects entries logged while a session runs.
type Notifier struct {
	urls       []string
	router     router
	template   *template.Template
	params     *shoutrrrTypes.Params
	data       StaticData
	logLevel   logrus.Level
	newBackOff func() backoff.BackOff
	clock      func() time.Time

	mu      sync.Mutex
	entries []*logrus.Entry // nil outside a session
	started time.Time
}

// GetScheme extracts the scheme part of a Shoutrrr URL.
// It returns "invalid" if no scheme is found.
func GetScheme(url string) string {
	schemeEnd := strings.Index(url, ":")
	if schemeEnd <= 0 {
		return "invalid"
	}

	return url[:schemeEnd]
}

// NewNotifier creates a Notifier sending to the given Shoutrrr URLs.
//
// Parameters:
//   - urls: Shoutrrr service URLs.
//   - data: Title and host rendered into every message.
//   - tplString: Template text or the name of a built-in template; empty selects the default.
//   - level: Most verbose log level collected into messages.
//
// Returns:
//   - *Notifier: Ready notifier.
//   - error: Non-nil if the template or a URL is invalid.
func NewNotifier(urls []string, data StaticData, tplString string, level logrus.Level) (*Notifier, error) {
	logger := log.New(logrus.StandardLogger().WriterLevel(logrus.TraceLevel), "Shoutrrr: ", 0)

	sender, err := shoutrrr.NewSender(logger, urls...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInitFailed, err)
	}

	return newNotifier(sender, urls, data, tplString, level)
}

// newNotifier creates a Notifier over an existing router.
func newNotifier(r router, urls []string, data StaticData, tplString string, level logrus.Level) (*Notifier, error) {
	tpl, err := getShoutrrrTemplate(tplString)
	if err != nil {
		return nil, err
	}

	params := &shoutrrrTypes.Params{}
	if data.Title != "" {
		params.SetTitle(data.Title)
	}

	return &Notifier{
		urls:     urls,
		router:   r,
		template: tpl,
		params:   params,
		data:     data,
		logLevel: level,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		clock: time.Now,
	}, nil
}

// Name returns the plugin name.
func (n *Notifier) Name() string {
	return "notifications"
}

// GetNames returns a list of notification service names derived from URLs.
func (n *Notifier) GetNames() []string {
	names := make([]string, len(n.urls))
	for i, u := range n.urls {
		names[i] = GetScheme(u)
	}

	return names
}

// TaskStart begins collecting log entries for the session.
func (n *Notifier) TaskStart(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.entries = make([]*logrus.Entry, 0, initialEntriesCapacity)
	n.started = n.clock()

	return nil
}

// TaskStop sends the session's notification.
//
// Parameters:
//   - ctx: Context bounding the retries; it may carry the lifecycle session.
//   - failed: Whether the task failed.
//
// Returns:
//   - error: Non-nil if the message could not be rendered or sent.
func (n *Notifier) TaskStop(ctx context.Context, failed bool) error {
	n.mu.Lock()
	entries := n.entries
	started := n.started
	n.entries = nil
	n.started = time.Time{}
	n.mu.Unlock()

	data := Data{
		StaticData: n.data,
		Failed:     failed,
		Entries:    entries,
	}

	if !started.IsZero() {
		data.Duration = n.clock().Sub(started).Round(time.Millisecond)
	}

	if session, ok := lifecycle.FromContext(ctx); ok {
		data.Session = session.ID.String()
	}

	msg, err := n.buildMessage(data)
	if err != nil {
		return err
	}

	if msg == "" {
		LocalLog.Debug("Skipping notification due to empty message")

		return nil
	}

	return n.send(ctx, msg)
}

// buildMessage renders the notification template.
func (n *Notifier) buildMessage(data Data) (string, error) {
	var body bytes.Buffer

	if err := n.template.Execute(&body, data); err != nil {
		return "", fmt.Errorf("%w: %w", errTemplateFailed, err)
	}

	return body.String(), nil
}

// send delivers msg to every service, retrying while any service fails.
func (n *Notifier) send(ctx context.Context, msg string) error {
	attempt := 0

	operation := func() error {
		attempt++

		var failures []error

		for i, err := range n.router.Send(msg, n.params) {
			if err == nil {
				continue
			}

			scheme := GetScheme(n.urls[i])
			LocalLog.WithFields(logrus.Fields{
				"service": scheme,
				"index":   i,
				"attempt": attempt,
			}).WithError(err).Warn("Failed to send shoutrrr notification")

			failures = append(failures, fmt.Errorf("%s: %w", scheme, err))
		}

		return errors.Join(failures...)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(n.newBackOff(), maxSendRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("%w: %w", errSendFailed, err)
	}

	return nil
}

// Levels returns the log levels collected into notifications.
func (n *Notifier) Levels() []logrus.Level {
	return logrus.AllLevels[:n.logLevel+1]
}

// Fire collects a log entry while a session runs.
func (n *Notifier) Fire(entry *logrus.Entry) error {
	if entry.Data["notify"] == "no" {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.entries != nil {
		n.entries = append(n.entries, entry)
	}

	return nil
}

// getShoutrrrTemplate returns the parsed template for tplString.
// Empty selects the default template; a built-in name selects that template.
func getShoutrrrTemplate(tplString string) (*template.Template, error) {
	tplBase := template.New("").Funcs(templates.Funcs)

	if tplString == "" {
		tplString = `default`
	}

	if builtin, found := commonTemplates[tplString]; found {
		LocalLog.WithField(`template`, tplString).Debug(`Using common template`)
		tplString = builtin
	}

	tpl, err := tplBase.Parse(tplString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification template string: %w", err)
	}

	return tpl, nil
}
