package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/pkg/discovery"
	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

var (
	errBlock = errors.New("block failed")
	errStart = errors.New("start failed")
	errStop  = errors.New("stop failed")
)

// tracker records hook and block events in order.
type tracker struct {
	events []string
}

func (t *tracker) add(event string) {
	t.events = append(t.events, event)
}

func (t *tracker) start(name string, err error) plugin.HookImpl {
	return plugin.StartHook(name, func(context.Context) error {
		t.add("start")

		return err
	})
}

func (t *tracker) stop(name string, err error) plugin.HookImpl {
	return plugin.StopHook(name, func(_ context.Context, failed bool) error {
		t.add(fmt.Sprintf("stop(%t)", failed))

		return err
	})
}

func (t *tracker) block(err error) lifecycle.Block {
	return func(context.Context) error {
		t.add("block")

		return err
	}
}

var _ = ginkgo.Describe("the lifecycle controller", func() {
	var (
		pm         *plugin.Manager
		events     *tracker
		controller *lifecycle.Controller
	)

	ginkgo.BeforeEach(func() {
		pm = plugin.New(logrus.NewEntry(logrus.StandardLogger()))
		events = &tracker{}
		controller = lifecycle.NewController(pm, nil)
	})

	register := func(hook string, impl plugin.HookImpl) {
		gomega.Expect(pm.Register(hook, impl)).To(gomega.Succeed())
	}

	ginkgo.When("the block succeeds", func() {
		ginkgo.It("should call start, the block and stop(false) in order", func() {
			register("task_start", events.start("p", nil))
			register("task_stop", events.stop("p", nil))

			session := controller.NewSession()
			err := session.Run(context.Background(), events.block(nil))

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(events.events).To(gomega.Equal([]string{"start", "block", "stop(false)"}))
			gomega.Expect(session.Phase()).To(gomega.Equal(lifecycle.Done))
			gomega.Expect(session.Outcome().Kind).To(gomega.Equal(lifecycle.OutcomeSuccess))
			gomega.Expect(session.Failed()).To(gomega.BeFalse())
		})

		ginkgo.It("should run the block when no hooks are registered", func() {
			err := controller.Run(context.Background(), events.block(nil))

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(events.events).To(gomega.Equal([]string{"block"}))
		})
	})

	ginkgo.When("the block returns an error", func() {
		ginkgo.It("should call stop(true) and return the same error", func() {
			register("task_stop", events.stop("p", nil))

			err := controller.Run(context.Background(), events.block(errBlock))

			gomega.Expect(err).To(gomega.BeIdenticalTo(errBlock))
			gomega.Expect(events.events).To(gomega.Equal([]string{"block", "stop(true)"}))
		})
	})

	ginkgo.When("the block requests an exit", func() {
		ginkgo.It("should treat status 0 as success and return the request", func() {
			register("task_stop", events.stop("p", nil))

			exit := lifecycle.Exit(0)
			err := controller.Run(context.Background(), events.block(exit))

			gomega.Expect(err).To(gomega.BeIdenticalTo(exit))
			gomega.Expect(events.events).To(gomega.Equal([]string{"block", "stop(false)"}))

			code, ok := lifecycle.ExitCode(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(code).To(gomega.Equal(0))
		})

		ginkgo.It("should treat a non-zero status as failure and return the request", func() {
			register("task_stop", events.stop("p", nil))

			session := controller.NewSession()
			err := session.Run(context.Background(), events.block(lifecycle.Exit(2)))

			gomega.Expect(events.events).To(gomega.Equal([]string{"block", "stop(true)"}))

			code, ok := lifecycle.ExitCode(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(code).To(gomega.Equal(2))
			gomega.Expect(session.Outcome().Kind).To(gomega.Equal(lifecycle.OutcomeExit))
			gomega.Expect(session.Outcome().String()).To(gomega.Equal("exit(2)"))
		})

		ginkgo.It("should find a wrapped exit request", func() {
			register("task_stop", events.stop("p", nil))

			wrapped := fmt.Errorf("command: %w", lifecycle.Exit(3))
			err := controller.Run(context.Background(), events.block(wrapped))

			gomega.Expect(err).To(gomega.BeIdenticalTo(wrapped))
			gomega.Expect(events.events).To(gomega.Equal([]string{"block", "stop(true)"}))
		})
	})

	ginkgo.When("a start hook fails", func() {
		ginkgo.It("should skip the block and stop hooks and return the error unchanged", func() {
			register("task_start", events.start("p", errStart))
			register("task_stop", events.stop("p", nil))

			session := controller.NewSession()
			err := session.Run(context.Background(), events.block(nil))

			gomega.Expect(err).To(gomega.BeIdenticalTo(errStart))
			gomega.Expect(events.events).To(gomega.Equal([]string{"start"}))
			gomega.Expect(session.Phase()).To(gomega.Equal(lifecycle.StartFailed))
			gomega.Expect(session.Outcome().Kind).To(gomega.Equal(lifecycle.OutcomeNone))
		})
	})

	ginkgo.When("a start hook registers a stop hook", func() {
		ginkgo.It("should call the new stop hook with the block's failure", func() {
			var failedSeen []bool

			register("task_start", plugin.StartHook("late", func(context.Context) error {
				return pm.Register("task_stop", plugin.StopHook("late", func(_ context.Context, failed bool) error {
					failedSeen = append(failedSeen, failed)

					return nil
				}))
			}))

			err := controller.Run(context.Background(), events.block(errBlock))

			gomega.Expect(err).To(gomega.BeIdenticalTo(errBlock))
			gomega.Expect(failedSeen).To(gomega.Equal([]bool{true}))
		})
	})

	ginkgo.When("a stop hook fails", func() {
		ginkgo.It("should chain the stop error with the block's error", func() {
			register("task_stop", events.stop("p", errStop))

			err := controller.Run(context.Background(), events.block(errBlock))

			var stopErr *lifecycle.StopHookError
			gomega.Expect(errors.As(err, &stopErr)).To(gomega.BeTrue())
			gomega.Expect(stopErr.Err).To(gomega.BeIdenticalTo(errStop))
			gomega.Expect(stopErr.Cause).To(gomega.BeIdenticalTo(errBlock))
			gomega.Expect(errors.Is(err, errStop)).To(gomega.BeTrue())
			gomega.Expect(errors.Is(err, errBlock)).To(gomega.BeTrue())
		})

		ginkgo.It("should report a stop error alone after a success", func() {
			register("task_stop", events.stop("p", errStop))

			err := controller.Run(context.Background(), events.block(nil))

			var stopErr *lifecycle.StopHookError
			gomega.Expect(errors.As(err, &stopErr)).To(gomega.BeTrue())
			gomega.Expect(stopErr.Cause).To(gomega.BeNil())
			gomega.Expect(err.Error()).To(gomega.Equal("task_stop hook failed: stop failed"))
		})

		ginkgo.It("should keep an exit request reachable", func() {
			register("task_stop", events.stop("p", errStop))

			err := controller.Run(context.Background(), events.block(lifecycle.Exit(4)))

			code, ok := lifecycle.ExitCode(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(code).To(gomega.Equal(4))
		})

		ginkgo.It("should classify the session as failed after exit(0)", func() {
			register("task_stop", events.stop("p", errStop))

			err := controller.Run(context.Background(), events.block(lifecycle.Exit(0)))

			outcome := lifecycle.Classify(err)
			gomega.Expect(outcome.Kind).To(gomega.Equal(lifecycle.OutcomeFailure))
			gomega.Expect(outcome.Failed()).To(gomega.BeTrue())
			gomega.Expect(events.events).To(gomega.Equal([]string{"block", "stop(false)"}))
		})
	})

	ginkgo.When("the block panics", func() {
		ginkgo.It("should call stop(true) and re-raise the original value", func() {
			register("task_stop", events.stop("p", nil))

			gomega.Expect(func() {
				_ = controller.Run(context.Background(), func(context.Context) error {
					panic("boom")
				})
			}).To(gomega.PanicWith("boom"))
			gomega.Expect(events.events).To(gomega.Equal([]string{"stop(true)"}))
		})

		ginkgo.It("should panic with a chained error when a stop hook also fails", func() {
			register("task_stop", events.stop("p", errStop))

			var recovered any

			func() {
				defer func() { recovered = recover() }()

				_ = controller.Run(context.Background(), func(context.Context) error {
					panic("boom")
				})
			}()

			stopErr, ok := recovered.(*lifecycle.StopHookError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(stopErr.Err).To(gomega.BeIdenticalTo(errStop))

			var panicErr *lifecycle.PanicError
			gomega.Expect(errors.As(stopErr, &panicErr)).To(gomega.BeTrue())
			gomega.Expect(panicErr.Value).To(gomega.Equal("boom"))
			gomega.Expect(panicErr.Stack).NotTo(gomega.BeEmpty())
		})
	})

	ginkgo.When("the block calls runtime.Goexit", func() {
		ginkgo.It("should call stop(true) before the goroutine exits", func() {
			register("task_stop", events.stop("p", nil))

			var wg sync.WaitGroup

			wg.Add(1)

			go func() {
				defer wg.Done()

				_ = controller.Run(context.Background(), func(context.Context) error {
					runtime.Goexit()

					return nil
				})
			}()

			wg.Wait()
			gomega.Expect(events.events).To(gomega.Equal([]string{"stop(true)"}))
		})
	})

	ginkgo.When("a session is reused", func() {
		ginkgo.It("should refuse to run twice", func() {
			session := controller.NewSession()

			gomega.Expect(session.Run(context.Background(), events.block(nil))).To(gomega.Succeed())

			err := session.Run(context.Background(), events.block(nil))
			gomega.Expect(err).To(gomega.MatchError(lifecycle.ErrSessionUsed))
			gomega.Expect(events.events).To(gomega.Equal([]string{"block"}))
		})
	})

	ginkgo.Describe("discovery", func() {
		var (
			catalog *entrypoint.Catalog
			loads   int
		)

		ginkgo.BeforeEach(func() {
			catalog = entrypoint.NewCatalog()
			loads = 0

			catalog.Provide("example.hooks", func(pm *plugin.Manager) error {
				loads++

				return pm.Register("task_start", events.start("example", nil))
			})
			catalog.MustDeclare(entrypoint.EntryPoint{
				Group:  entrypoint.DefaultHookGroup,
				Name:   "example",
				Module: "example.hooks",
			})
		})

		ginkgo.It("should resolve installed hooks once across sessions", func() {
			scanner := discovery.NewScanner(pm, catalog, entrypoint.HookGroup(catalog, entrypoint.DefaultHookGroup))
			controller = lifecycle.NewController(pm, scanner)

			gomega.Expect(controller.Run(context.Background(), events.block(nil))).To(gomega.Succeed())
			gomega.Expect(controller.Run(context.Background(), events.block(nil))).To(gomega.Succeed())

			gomega.Expect(loads).To(gomega.Equal(1))
			gomega.Expect(events.events).To(gomega.Equal([]string{"start", "block", "start", "block"}))
		})

		ginkgo.It("should fail the start without running stop hooks", func() {
			catalog.MustDeclare(entrypoint.EntryPoint{
				Group:  entrypoint.DefaultHookGroup,
				Name:   "missing",
				Module: "missing.hooks",
			})
			register("task_stop", events.stop("p", nil))

			scanner := discovery.NewScanner(pm, catalog, entrypoint.HookGroup(catalog, entrypoint.DefaultHookGroup))
			session := lifecycle.NewController(pm, scanner).NewSession()

			err := session.Run(context.Background(), events.block(nil))

			var discoveryErr *discovery.Error
			gomega.Expect(errors.As(err, &discoveryErr)).To(gomega.BeTrue())
			gomega.Expect(errors.Is(err, entrypoint.ErrModuleNotFound)).To(gomega.BeTrue())
			gomega.Expect(session.Phase()).To(gomega.Equal(lifecycle.StartFailed))
			gomega.Expect(events.events).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("session context", func() {
		ginkgo.It("should expose the running session to hooks and the block", func() {
			var fromHook, fromBlock *lifecycle.Session

			register("task_start", plugin.StartHook("ctx", func(ctx context.Context) error {
				fromHook, _ = lifecycle.FromContext(ctx)

				return nil
			}))

			session := controller.NewSession()
			err := session.Run(context.Background(), func(ctx context.Context) error {
				fromBlock, _ = lifecycle.FromContext(ctx)

				return nil
			})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(fromHook).To(gomega.BeIdenticalTo(session))
			gomega.Expect(fromBlock).To(gomega.BeIdenticalTo(session))
		})
	})
})

var _ = ginkgo.Describe("phases", func() {
	ginkgo.It("should allow only forward transitions", func() {
		gomega.Expect(lifecycle.NotStarted.CanTransition(lifecycle.Starting)).To(gomega.BeTrue())
		gomega.Expect(lifecycle.Starting.CanTransition(lifecycle.StartFailed)).To(gomega.BeTrue())
		gomega.Expect(lifecycle.Running.CanTransition(lifecycle.Done)).To(gomega.BeFalse())
		gomega.Expect(lifecycle.Done.CanTransition(lifecycle.Starting)).To(gomega.BeFalse())
		gomega.Expect(lifecycle.StartFailed.Terminal()).To(gomega.BeTrue())
		gomega.Expect(lifecycle.Stopping.String()).To(gomega.Equal("stopping"))
	})
})

var _ = ginkgo.Describe("classifying errors", func() {
	ginkgo.It("should map errors to outcomes", func() {
		gomega.Expect(lifecycle.Classify(nil).Kind).To(gomega.Equal(lifecycle.OutcomeSuccess))
		gomega.Expect(lifecycle.Classify(errBlock).Kind).To(gomega.Equal(lifecycle.OutcomeFailure))

		exit := lifecycle.Classify(fmt.Errorf("wrapped: %w", lifecycle.Exit(5)))
		gomega.Expect(exit.Kind).To(gomega.Equal(lifecycle.OutcomeExit))
		gomega.Expect(exit.Code).To(gomega.Equal(5))
	})

	ginkgo.It("should treat a stop hook error as a failure whatever its cause", func() {
		for _, cause := range []error{nil, lifecycle.Exit(0), lifecycle.Exit(2), errBlock} {
			outcome := lifecycle.Classify(&lifecycle.StopHookError{Err: errStop, Cause: cause})
			gomega.Expect(outcome.Kind).To(gomega.Equal(lifecycle.OutcomeFailure))
			gomega.Expect(outcome.Failed()).To(gomega.BeTrue())
		}
	})
})
