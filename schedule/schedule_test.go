package schedule

import (
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ecucore/idgen"
	"github.com/sarchlab/ecucore/instrumentation/hooking"
)

type transitionRecorder struct {
	transitions []Transition
}

func (r *transitionRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosTransition {
		return
	}

	r.transitions = append(r.transitions, ctx.Item.(Transition))
}

var _ = Describe("Schedule", func() {
	var (
		mockCtrl *gomock.Controller
		timer    *MockTimer
		counter  uint16
		starts   int
		ends     int
		s        *Schedule
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timer = NewMockTimer(mockCtrl)
		counter = 100
		starts = 0
		ends = 0

		timer.EXPECT().MaxPeriod().Return(uint32(262140)).AnyTimes()
		timer.EXPECT().Counter().
			DoAndReturn(func() uint16 { return counter }).AnyTimes()
		timer.EXPECT().MicrosToTicks(gomock.Any()).
			DoAndReturn(func(us uint32) uint16 { return uint16(us / 4) }).
			AnyTimes()

		s = NewSchedule("inj1", timer,
			func() { starts++ },
			func() { ends++ })
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	arm := func(timeout, duration uint32) {
		timer.EXPECT().SetCompare(counter + uint16(timeout/4))
		timer.EXPECT().Enable()
		Expect(s.Set(timeout, duration, false)).To(BeTrue())
	}

	It("should start off", func() {
		Expect(s.Status()).To(Equal(Off))
		Expect(s.Name()).To(Equal("inj1"))
	})

	It("should arm from off", func() {
		arm(1000, 3000)

		Expect(s.Status()).To(Equal(Pending))
		Expect(s.Duration()).To(Equal(uint32(3000)))
	})

	It("should reject requests it cannot time", func() {
		Expect(s.Set(0, 3000, true)).To(BeFalse())
		Expect(s.Set(262140, 3000, true)).To(BeFalse())
		Expect(s.Set(300000, 3000, true)).To(BeFalse())
		Expect(s.Set(1000, 0, true)).To(BeFalse())

		Expect(s.Status()).To(Equal(Off))
	})

	It("should clamp a duration longer than the timer range", func() {
		arm(1000, 400000)

		Expect(s.Duration()).To(Equal(uint32(262139)))
	})

	It("should re-arm a pending schedule", func() {
		arm(1000, 3000)
		arm(2000, 1500)

		Expect(s.Status()).To(Equal(Pending))
		Expect(s.Duration()).To(Equal(uint32(1500)))
	})

	It("should open and close the output", func() {
		arm(1000, 3000)

		counter = 350
		timer.EXPECT().SetCompare(uint16(350 + 750))
		s.OnCompareMatch()

		Expect(starts).To(Equal(1))
		Expect(s.Status()).To(Equal(Running))

		counter = 1100
		timer.EXPECT().Disable()
		s.OnCompareMatch()

		Expect(ends).To(Equal(1))
		Expect(s.Status()).To(Equal(Off))
	})

	It("should drop a request while running unless queueing", func() {
		arm(1000, 3000)
		timer.EXPECT().SetCompare(gomock.Any())
		s.OnCompareMatch()

		Expect(s.Set(500, 2000, false)).To(BeFalse())
		Expect(s.Status()).To(Equal(Running))
		Expect(s.Duration()).To(Equal(uint32(3000)))
	})

	It("should queue the next event while running", func() {
		arm(1000, 3000)
		timer.EXPECT().SetCompare(gomock.Any())
		s.OnCompareMatch()

		counter = 600
		Expect(s.Set(2000, 1000, true)).To(BeTrue())
		Expect(s.Status()).To(Equal(RunningWithNext))

		timer.EXPECT().SetCompare(uint16(600 + 500))
		counter = 1100
		s.OnCompareMatch()

		Expect(ends).To(Equal(1))
		Expect(s.Status()).To(Equal(Pending))

		timer.EXPECT().SetCompare(uint16(1100 + 250))
		s.OnCompareMatch()

		Expect(starts).To(Equal(2))
		Expect(s.Status()).To(Equal(Running))
	})

	It("should replace a queued event", func() {
		arm(1000, 3000)
		timer.EXPECT().SetCompare(gomock.Any())
		s.OnCompareMatch()

		Expect(s.Set(2000, 1000, true)).To(BeTrue())
		counter = 700
		Expect(s.Set(4000, 1200, true)).To(BeTrue())
		Expect(s.Status()).To(Equal(RunningWithNext))
		Expect(s.Duration()).To(Equal(uint32(1200)))

		timer.EXPECT().SetCompare(uint16(700 + 1000))
		s.OnCompareMatch()
	})

	It("should disable the timer on a spurious match", func() {
		timer.EXPECT().Disable()

		s.OnCompareMatch()

		Expect(starts).To(Equal(0))
		Expect(ends).To(Equal(0))
		Expect(s.Status()).To(Equal(Off))
	})

	Context("when disabled", func() {
		It("should drop a pending event", func() {
			arm(1000, 3000)
			timer.EXPECT().Disable()

			s.Disable()

			Expect(s.Status()).To(Equal(Off))
			Expect(s.IsDisabled()).To(BeTrue())
		})

		It("should forget a queued event but finish the running one", func() {
			arm(1000, 3000)
			timer.EXPECT().SetCompare(gomock.Any())
			s.OnCompareMatch()
			Expect(s.Set(2000, 1000, true)).To(BeTrue())

			s.Disable()
			Expect(s.Status()).To(Equal(Running))

			timer.EXPECT().Disable()
			s.OnCompareMatch()

			Expect(ends).To(Equal(1))
			Expect(s.Status()).To(Equal(Off))
		})

		It("should leave a running event alone", func() {
			arm(1000, 3000)
			timer.EXPECT().SetCompare(gomock.Any())
			s.OnCompareMatch()

			s.Disable()

			Expect(s.Status()).To(Equal(Running))
		})

		It("should refuse to arm until enabled", func() {
			s.Disable()
			Expect(s.Set(1000, 3000, true)).To(BeFalse())
			Expect(s.Status()).To(Equal(Off))

			s.Enable()
			arm(1000, 3000)
			Expect(s.Status()).To(Equal(Pending))
		})
	})

	It("should apply caller supplied transitions", func() {
		arm(1000, 3000)

		var taken []string
		s.MoveToNextState(
			func(sch *Schedule) {
				taken = append(taken, "open")
				sch.status = Running
			},
			func(*Schedule) { taken = append(taken, "close") },
			func(*Schedule) { taken = append(taken, "next") },
		)

		Expect(taken).To(Equal([]string{"open"}))
		Expect(starts).To(Equal(0))
		Expect(s.Status()).To(Equal(Running))
	})

	It("should only ever take legal transitions", func() {
		legal := map[Status][]Status{
			Off:             {Pending},
			Pending:         {Pending, Running, Off},
			Running:         {Off, RunningWithNext},
			RunningWithNext: {Pending, RunningWithNext, Running},
		}

		rec := &transitionRecorder{}
		s.AcceptHook(rec)

		timer.EXPECT().SetCompare(gomock.Any()).AnyTimes()
		timer.EXPECT().Enable().AnyTimes()
		timer.EXPECT().Disable().AnyTimes()

		for i := 0; i < 200; i++ {
			switch i % 7 {
			case 0, 3:
				s.Set(uint32(400+i*10), uint32(800+i), i%2 == 0)
			case 5:
				s.Disable()
				s.Enable()
			default:
				s.OnCompareMatch()
			}
			counter += 37
		}

		Expect(rec.transitions).NotTo(BeEmpty())
		for _, t := range rec.transitions {
			Expect(legal[t.From]).To(ContainElement(t.To),
				"%s -> %s", t.From, t.To)
		}
	})

	It("should tag transitions with the armed event ID", func() {
		rec := &transitionRecorder{}
		s.AcceptHook(rec)
		s.SetIDGenerator(idgen.New())

		arm(1000, 3000)
		timer.EXPECT().SetCompare(gomock.Any()).Times(2)
		s.OnCompareMatch()
		Expect(s.Set(2000, 1000, true)).To(BeTrue())
		s.OnCompareMatch()

		Expect(rec.transitions).To(HaveLen(4))
		Expect(rec.transitions[0]).To(Equal(Transition{
			Schedule: "inj1", From: Off, To: Pending, ID: 1, Counter: 100,
		}))
		Expect(rec.transitions[1].To).To(Equal(Running))
		Expect(rec.transitions[1].ID).To(Equal(idgen.ID(1)))
		Expect(rec.transitions[2].To).To(Equal(RunningWithNext))
		Expect(rec.transitions[2].ID).To(Equal(idgen.ID(1)))
		Expect(rec.transitions[3].To).To(Equal(Pending))
		Expect(rec.transitions[3].ID).To(Equal(idgen.ID(2)))
	})

	It("should name its states", func() {
		Expect(RunningWithNext.String()).To(Equal("RunningWithNext"))
		Expect(Status(9).String()).To(Equal("Unknown"))
		Expect(Running.IsRunning()).To(BeTrue())
		Expect(Pending.IsRunning()).To(BeFalse())
	})
})
