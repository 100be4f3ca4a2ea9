package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/timing"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
	field5 [2]uint16
}

var _ = Describe("Monitor", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		m        *Monitor
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		m = NewMonitor()
		m.RegisterEngine(engine)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		m.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

		return rec
	}

	It("should reject duplicated object names", func() {
		m.RegisterObject("status", status.New())

		Expect(func() { m.RegisterObject("status", status.New()) }).To(Panic())
	})

	It("should walk int fields", func() {
		s := &sampleStruct{field1: 1}

		elem, err := m.walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		s := &sampleStruct{field2: "abc"}

		elem, err := m.walkFields(s, "field2")

		Expect(err).To(BeNil())
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk recursively", func() {
		s := &sampleStruct{field3: &sampleStruct{field1: 1}}

		elem, err := m.walkFields(s, "field3.field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk slices and arrays", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{field5: [2]uint16{0, 7}}, {}},
		}

		elem, err := m.walkFields(s, "field4.0.field5.1")

		Expect(err).To(BeNil())
		Expect(elem.Uint()).To(Equal(uint64(7)))
	})

	It("should report paths it cannot follow", func() {
		s := &sampleStruct{field4: []sampleStruct{{}}}

		_, err := m.walkFields(s, "field4.3")
		Expect(err).To(HaveOccurred())

		_, err = m.walkFields(s, "missing")
		Expect(err).To(HaveOccurred())

		_, err = m.walkFields(s, "field3.field1")
		Expect(err).To(HaveOccurred())
	})

	It("should serve a status value with the engine paused", func() {
		st := status.New()
		st.RPM = 3200
		st.PW[1] = 4100
		m.RegisterObject("status", st)

		gomock.InOrder(
			engine.EXPECT().IsPaused().Return(false),
			engine.EXPECT().Pause(),
			engine.EXPECT().Continue(),
		)

		rec := get("/api/value/status/RPM")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("3200"))

		engine.EXPECT().IsPaused().Return(true)

		rec = get("/api/value/status/PW.1")
		Expect(rec.Body.String()).To(Equal("4100"))
	})

	It("should answer 404 for unknown objects", func() {
		rec := get("/api/value/tune/Engine")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should list objects in name order", func() {
		m.RegisterObject("tune", struct{}{})
		m.RegisterObject("status", status.New())

		var names []string
		Expect(json.Unmarshal(get("/api/list_objects").Body.Bytes(), &names)).
			To(Succeed())
		Expect(names).To(Equal([]string{"status", "tune"}))
	})

	It("should list schedules", func() {
		inj := NewMockScheduleView(mockCtrl)
		inj.EXPECT().Name().Return("inj1")
		inj.EXPECT().Status().Return(schedule.Running)
		inj.EXPECT().Duration().Return(uint32(3000))
		inj.EXPECT().IsDisabled().Return(false)
		m.RegisterSchedule(inj)

		var rsp []scheduleRsp
		Expect(json.Unmarshal(get("/api/schedules").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp).To(Equal([]scheduleRsp{
			{Name: "inj1", Status: "Running", Duration: 3000},
		}))
	})

	Context("calibration", func() {
		var (
			store *config.Store
		)

		BeforeEach(func() {
			var err error
			store, err = config.NewStore(config.Default())
			Expect(err).NotTo(HaveOccurred())
			store.LockLayout()
			m.RegisterTuneStore(store)
		})

		post := func(body string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			m.router().ServeHTTP(rec, httptest.NewRequest(
				http.MethodPost, "/api/tune", strings.NewReader(body)))

			return rec
		}

		It("should serve the active tune as YAML", func() {
			gomock.InOrder(
				engine.EXPECT().IsPaused().Return(false),
				engine.EXPECT().Pause(),
				engine.EXPECT().Continue(),
			)

			rec := get("/api/tune")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))

			got := config.Default()
			Expect(config.Decode(rec.Body.Bytes(), got)).To(Succeed())
			Expect(got.Fuel.ReqFuel).To(Equal(store.Active().Fuel.ReqFuel))
		})

		It("should commit a calibration write", func() {
			rec := post("fuel:\n  req_fuel: 99\n")

			Expect(rec.Code).To(Equal(http.StatusOK))

			var rsp tuneRsp
			Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
			Expect(rsp.Revision).To(Equal(uint64(1)))
			Expect(store.Active().Fuel.ReqFuel).To(Equal(uint8(99)))
		})

		It("should reject a write that changes the outputs", func() {
			rec := post("engine:\n  cylinders: 6\n")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("layout"))
			Expect(store.Active().Engine.Cylinders).To(Equal(uint8(4)))
			Expect(store.Revision()).To(BeZero())

			Expect(post("fuel:\n  req_fuel: 90\n").Code).To(Equal(http.StatusOK))
			Expect(store.Active().Engine.Cylinders).To(Equal(uint8(4)))
		})

		It("should reject documents it cannot parse", func() {
			rec := post("fuel: [")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(store.Revision()).To(BeZero())
		})
	})

	It("should answer 404 for the tune without a store", func() {
		Expect(get("/api/tune").Code).To(Equal(http.StatusNotFound))
	})

	It("should tell the time in seconds", func() {
		registry := timing.NewFrequencyRegistry()
		_, err := registry.RegisterFrequency(timing.MHz)
		Expect(err).NotTo(HaveOccurred())
		m.RegisterFrequencyRegistry(registry)

		engine.EXPECT().CurrentTime().Return(timing.VTimeInCycle(2500000))
		engine.EXPECT().IsPaused().Return(true)

		var rsp nowRsp
		Expect(json.Unmarshal(get("/api/now").Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Cycles).To(Equal(uint64(2500000)))
		Expect(rsp.Seconds).To(BeNumerically("~", 2.5, 1e-9))
		Expect(rsp.Paused).To(BeTrue())
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("iterations", 4)
		bar.IncrementInProgress(2)
		bar.MoveInProgressToFinished(1)

		Expect(bar.Progress()).To(BeNumerically("~", 0.25))
		Expect(m.progressBars).To(HaveLen(1))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})
})
