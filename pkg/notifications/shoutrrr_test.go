package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	shoutrrrTypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

var errService = errors.New("service unavailable")

// mockRouter records sent messages and fails the first failures sends.
type mockRouter struct {
	messages []string
	titles   []string
	failures int
}

func (r *mockRouter) Send(message string, params *shoutrrrTypes.Params) []error {
	r.messages = append(r.messages, message)

	if params != nil {
		title, _ := params.Title()
		r.titles = append(r.titles, title)
	}

	if r.failures > 0 {
		r.failures--

		return []error{errService}
	}

	return []error{nil}
}

// newTestNotifier creates a notifier over r with a fixed clock and no retry delay.
func newTestNotifier(r router, tpl string) *Notifier {
	n, err := newNotifier(r, []string{"logger://"}, StaticData{Title: "Task report on host", Host: "host"}, tpl, logrus.InfoLevel)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n.clock = func() time.Time {
		now = now.Add(time.Second)

		return now
	}
	n.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	return n
}

var _ = ginkgo.Describe("the shoutrrr notifier", func() {
	var r *mockRouter

	ginkgo.BeforeEach(func() {
		r = &mockRouter{}
	})

	ginkgo.When("a session succeeds", func() {
		ginkgo.It("should send one message with the session result and title", func() {
			n := newTestNotifier(r, "")

			gomega.Expect(n.TaskStart(context.Background())).To(gomega.Succeed())
			gomega.Expect(n.TaskStop(context.Background(), false)).To(gomega.Succeed())

			gomega.Expect(r.messages).To(gomega.Equal([]string{"Task succeeded after 1 second"}))
			gomega.Expect(r.titles).To(gomega.Equal([]string{"Task report on host"}))
		})
	})

	ginkgo.When("log entries are written during the session", func() {
		ginkgo.It("should include them in the message", func() {
			n := newTestNotifier(r, "")

			gomega.Expect(n.TaskStart(context.Background())).To(gomega.Succeed())
			gomega.Expect(n.Fire(&logrus.Entry{Level: logrus.WarnLevel, Message: "disk almost full"})).To(gomega.Succeed())
			gomega.Expect(n.Fire(&logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "internal",
				Data:    logrus.Fields{"notify": "no"},
			})).To(gomega.Succeed())
			gomega.Expect(n.TaskStop(context.Background(), true)).To(gomega.Succeed())

			gomega.Expect(r.messages).To(gomega.Equal([]string{"Task failed after 1 second\nWarning: disk almost full"}))
		})

		ginkgo.It("should ignore entries outside a session", func() {
			n := newTestNotifier(r, "")

			gomega.Expect(n.Fire(&logrus.Entry{Level: logrus.InfoLevel, Message: "early"})).To(gomega.Succeed())
			gomega.Expect(n.TaskStart(context.Background())).To(gomega.Succeed())
			gomega.Expect(n.TaskStop(context.Background(), false)).To(gomega.Succeed())

			gomega.Expect(r.messages[0]).NotTo(gomega.ContainSubstring("early"))
		})
	})

	ginkgo.When("a service fails", func() {
		ginkgo.It("should retry and succeed when a later attempt is accepted", func() {
			r.failures = 2
			n := newTestNotifier(r, "")

			gomega.Expect(n.TaskStop(context.Background(), false)).To(gomega.Succeed())
			gomega.Expect(r.messages).To(gomega.HaveLen(3))
		})

		ginkgo.It("should return the error after the retries run out", func() {
			r.failures = 10
			n := newTestNotifier(r, "")

			err := n.TaskStop(context.Background(), true)

			gomega.Expect(err).To(gomega.MatchError(errSendFailed))
			gomega.Expect(errors.Is(err, errService)).To(gomega.BeTrue())
			gomega.Expect(r.messages).To(gomega.HaveLen(1 + maxSendRetries))
		})
	})

	ginkgo.When("running inside a lifecycle session", func() {
		ginkgo.It("should render the session ID", func() {
			n := newTestNotifier(r, "summary")
			pm := plugin.New(nil)
			gomega.Expect(pm.RegisterPlugin(n)).To(gomega.Succeed())

			session := lifecycle.NewController(pm, nil).NewSession()
			err := session.Run(context.Background(), func(context.Context) error {
				return lifecycle.Exit(1)
			})

			code, _ := lifecycle.ExitCode(err)
			gomega.Expect(code).To(gomega.Equal(1))
			gomega.Expect(r.messages).To(gomega.Equal([]string{"FAILED " + session.ID.String()}))
		})
	})

	ginkgo.Describe("templates", func() {
		ginkgo.It("should render the JSON template", func() {
			n := newTestNotifier(r, "json.v1")

			gomega.Expect(n.TaskStart(context.Background())).To(gomega.Succeed())
			gomega.Expect(n.TaskStop(context.Background(), true)).To(gomega.Succeed())

			var decoded map[string]any
			gomega.Expect(json.Unmarshal([]byte(r.messages[0]), &decoded)).To(gomega.Succeed())
			gomega.Expect(decoded).To(gomega.HaveKeyWithValue("status", "failed"))
			gomega.Expect(decoded).To(gomega.HaveKeyWithValue("host", "host"))
			gomega.Expect(decoded).To(gomega.HaveKeyWithValue("duration", "1s"))
		})

		ginkgo.It("should reject a template that does not parse", func() {
			_, err := newNotifier(r, nil, StaticData{}, "{{ broken", logrus.InfoLevel)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should skip sending an empty message", func() {
			n := newTestNotifier(r, "{{if false}}x{{end}}")

			gomega.Expect(n.TaskStop(context.Background(), false)).To(gomega.Succeed())
			gomega.Expect(r.messages).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("GetTitle", func() {
		ginkgo.It("should include the tag and hostname when set", func() {
			gomega.Expect(GetTitle("box", "nightly")).To(gomega.Equal("[nightly] Task report on box"))
			gomega.Expect(GetTitle("", "")).To(gomega.Equal("Task report"))
		})
	})

	ginkgo.Describe("Load", func() {
		ginkgo.AfterEach(viper.Reset)

		ginkgo.It("should register nothing without URLs", func() {
			pm := plugin.New(nil)

			gomega.Expect(Load(pm)).To(gomega.Succeed())
			gomega.Expect(pm.Plugins()).To(gomega.BeEmpty())
		})

		ginkgo.It("should fail on an unknown service", func() {
			viper.Set(URLKey, []string{"unknown-service://nothing"})

			gomega.Expect(Load(plugin.New(nil))).NotTo(gomega.Succeed())
		})
	})
})
