package loader_test

import (
	"context"
	"errors"
	"runtime"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ambient/internal/events"
	"github.com/san-kum/ambient/internal/loader"
	"github.com/san-kum/ambient/internal/motion"
)

func exercise(m motion.Module) {
	Expect(m).NotTo(BeNil())
	el := m.Component("section")(motion.Props{"id": "hero", "animate": motion.Props{"opacity": 1}}, "x")
	Expect(el.Props).To(HaveKeyWithValue("id", "hero"))
	Expect(el.Props).NotTo(HaveKey("animate"))
	Expect(m.ScrollProgress()).NotTo(BeNil())
	Expect(m.Spring(m.ScrollProgress(), motion.DefaultSpringOptions())).NotTo(BeNil())
	Expect(m.Transform(m.ScrollProgress(), []float64{0, 1}, []float64{1, 0})).NotTo(BeNil())
	m.Presence(true, el)
}

var _ = Describe("Loader", func() {
	var (
		bus  *events.Bus
		imp  *fakeImport
		l    *loader.Loader
		ctx  context.Context
		stop context.CancelFunc
	)

	BeforeEach(func() {
		bus = events.NewBus()
		imp = newFakeImport()
		ctx, stop = context.WithTimeout(context.Background(), 2*time.Second)
	})

	AfterEach(func() {
		if imp.release != nil {
			select {
			case <-imp.release:
			default:
				close(imp.release)
			}
		}
		if l != nil {
			l.Close()
		}
		stop()
	})

	newLoader := func(eager bool) *loader.Loader {
		var err error
		l, err = loader.New(loader.Config{Eager: eager, Import: imp.Import, Events: bus})
		Expect(err).NotTo(HaveOccurred())
		return l
	}

	It("rejects a config without an import function", func() {
		_, err := loader.New(loader.Config{})
		Expect(err).To(MatchError(loader.ErrNoImport))
	})

	Describe("facade", func() {
		It("is usable in every state", func() {
			imp.fail[1] = errors.New("cdn down")
			imp.blocking()
			newLoader(false)

			Expect(l.Status()).To(Equal(loader.NotLoaded))
			exercise(l.Facade())

			done := l.EnsureLoad()
			Eventually(imp.Calls).Should(Equal(1))
			Expect(l.Status()).To(Equal(loader.Loading))
			exercise(l.Facade())

			close(imp.release)
			Eventually(done).Should(Receive(HaveOccurred()))
			Expect(l.Status()).To(Equal(loader.Failed))
			exercise(l.Facade())

			Expect(l.Load(ctx)).To(Succeed())
			Expect(l.Status()).To(Equal(loader.Loaded))
			exercise(l.Facade())
		})

		It("switches to the real runtime once loaded", func() {
			newLoader(false)
			_, isSprings := l.Facade().(*motion.Springs)
			Expect(isSprings).To(BeFalse())

			Expect(l.Load(ctx)).To(Succeed())
			_, isSprings = l.Facade().(*motion.Springs)
			Expect(isSprings).To(BeTrue())
		})
	})

	Describe("EnsureLoad", func() {
		It("shares one in-flight import between concurrent callers", func() {
			imp.blocking()
			newLoader(false)

			a, b, c := l.EnsureLoad(), l.EnsureLoad(), l.EnsureLoad()
			Eventually(imp.Calls).Should(Equal(1))
			Consistently(imp.Calls, 100*time.Millisecond).Should(Equal(1))

			close(imp.release)
			for _, ch := range []<-chan error{a, b, c} {
				Eventually(ch).Should(Receive(BeNil()))
				Eventually(ch).Should(BeClosed())
			}
			Expect(imp.Calls()).To(Equal(1))
			Expect(l.Attempts()).To(Equal(1))
		})

		It("does not start a goroutine per caller while an import hangs", func() {
			imp.blocking()
			newLoader(false)

			first := l.EnsureLoad()
			Eventually(imp.Calls).Should(Equal(1))
			before := runtime.NumGoroutine()

			chans := make([]<-chan error, 200)
			for i := range chans {
				chans[i] = l.EnsureLoad()
			}
			Expect(runtime.NumGoroutine() - before).To(BeNumerically("<", 20))

			close(imp.release)
			Eventually(first).Should(Receive(BeNil()))
			for _, ch := range chans {
				Eventually(ch).Should(Receive(BeNil()))
			}
			Expect(imp.Calls()).To(Equal(1))
		})

		It("does not import again after a successful load", func() {
			newLoader(false)
			Expect(l.Load(ctx)).To(Succeed())
			Expect(l.Load(ctx)).To(Succeed())
			Eventually(l.EnsureLoad()).Should(Receive(BeNil()))
			Expect(imp.Calls()).To(Equal(1))
		})

		It("retries after a failed import", func() {
			imp.fail[1] = errors.New("network reset")
			newLoader(false)

			err := l.Load(ctx)
			var lerr *loader.LoadError
			Expect(errors.As(err, &lerr)).To(BeTrue())
			Expect(lerr.Attempt).To(Equal(1))
			Expect(l.Err()).To(MatchError(ContainSubstring("network reset")))
			Expect(l.Status()).To(Equal(loader.Failed))

			Expect(l.Load(ctx)).To(Succeed())
			Expect(l.Status()).To(Equal(loader.Loaded))
			Expect(l.Err()).To(BeNil())
			Expect(imp.Calls()).To(Equal(2))
		})

		It("treats a panicking import as a failure", func() {
			var err error
			l, err = loader.New(loader.Config{Import: func(context.Context) (motion.Module, error) {
				panic("boom")
			}})
			Expect(err).NotTo(HaveOccurred())

			Expect(l.Load(ctx)).To(MatchError(ContainSubstring("panicked")))
			Expect(l.Status()).To(Equal(loader.Failed))
			exercise(l.Facade())
		})

		It("treats a nil module as a failure", func() {
			var err error
			l, err = loader.New(loader.Config{Import: func(context.Context) (motion.Module, error) {
				return nil, nil
			}})
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Load(ctx)).To(MatchError(loader.ErrNilModule))
		})

		It("lets a waiting caller give up without cancelling the import", func() {
			imp.blocking()
			newLoader(false)

			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			Expect(l.Load(short)).To(MatchError(context.DeadlineExceeded))
			Expect(l.Status()).To(Equal(loader.Loading))

			close(imp.release)
			Expect(l.Load(ctx)).To(Succeed())
			Expect(imp.Calls()).To(Equal(1))
		})
	})

	Describe("triggers", func() {
		It("registers one listener per default trigger", func() {
			newLoader(false)
			Expect(l.Armed()).To(Equal(len(events.DefaultTriggers())))
			for _, name := range events.DefaultTriggers() {
				Expect(bus.Listeners(name)).To(Equal(1))
			}
		})

		It("loads on the first trigger only", func() {
			imp.blocking()
			newLoader(false)

			Expect(bus.Emit(events.PointerMove)).To(Equal(1))
			Eventually(imp.Calls).Should(Equal(1))
			Expect(l.Armed()).To(Equal(0))

			Expect(bus.Emit(events.KeyDown)).To(Equal(0))
			Consistently(imp.Calls, 100*time.Millisecond).Should(Equal(1))

			close(imp.release)
			Eventually(l.Status).Should(Equal(loader.Loaded))
		})

		It("re-arms after a failed import so the next interaction retries", func() {
			imp.fail[1] = errors.New("offline")
			newLoader(false)

			bus.Emit(events.Scroll)
			Eventually(l.Status).Should(Equal(loader.Failed))
			Eventually(l.Armed).Should(Equal(len(events.DefaultTriggers())))

			bus.Emit(events.TouchStart)
			Eventually(l.Status).Should(Equal(loader.Loaded))
			Expect(imp.Calls()).To(Equal(2))
			Expect(l.Armed()).To(Equal(0))
		})

		It("starts a fresh import when a re-armed trigger fires at once", func() {
			imp.fail[1] = errors.New("offline")
			host := &eagerHost{}
			var err error
			l, err = loader.New(loader.Config{Import: imp.Import, Events: host})
			Expect(err).NotTo(HaveOccurred())

			Eventually(l.Status).Should(Equal(loader.Loaded))
			Expect(imp.Calls()).To(Equal(2))
			Expect(host.Added()).To(BeNumerically(">=", len(events.DefaultTriggers())))
		})

		It("skips triggers the host cannot deliver", func() {
			bus = events.NewBus(events.KeyDown, events.PointerDown)
			newLoader(false)
			Expect(l.Armed()).To(Equal(2))
		})

		It("waits for an explicit load without an event source", func() {
			var err error
			l, err = loader.New(loader.Config{Import: imp.Import})
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Armed()).To(Equal(0))
			Expect(l.Status()).To(Equal(loader.NotLoaded))
		})

		It("loads immediately without listeners when eager", func() {
			newLoader(true)
			Expect(l.Armed()).To(Equal(0))
			for _, name := range events.DefaultTriggers() {
				Expect(bus.Listeners(name)).To(Equal(0))
			}
			Eventually(l.Status).Should(Equal(loader.Loaded))
			Expect(imp.Calls()).To(Equal(1))
		})
	})

	Describe("Close", func() {
		It("is idempotent and removes listeners", func() {
			newLoader(false)
			l.Close()
			l.Close()

			for _, name := range events.DefaultTriggers() {
				Expect(bus.Listeners(name)).To(Equal(0))
			}
			Eventually(l.EnsureLoad()).Should(Receive(MatchError(loader.ErrClosed)))
			Expect(imp.Calls()).To(Equal(0))
			exercise(l.Facade())
		})

		It("cancels an import that is still running", func() {
			imp.blocking()
			newLoader(false)
			done := l.EnsureLoad()
			Eventually(imp.Calls).Should(Equal(1))

			l.Close()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
