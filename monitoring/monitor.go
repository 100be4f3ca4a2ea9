// Package monitoring turns a running ECU simulation into a small web server
// that shows live engine state and lets an operator pause it.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/idgen"
	"github.com/sarchlab/ecucore/monitoring/web"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/timing"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Engine is the part of the event engine the monitor controls.
type Engine interface {
	timing.TimeTeller
	Pause()
	Continue()
	IsPaused() bool
}

// ScheduleView is what the monitor shows of an output schedule.
type ScheduleView interface {
	Name() string
	Status() schedule.Status
	Duration() uint32
	IsDisabled() bool
}

// Monitor serves the state of a simulation over HTTP.
type Monitor struct {
	engine      Engine
	registry    *timing.FrequencyRegistry
	objects     map[string]any
	objectNames []string
	schedules   []ScheduleView
	tunes       *config.Store
	portNumber  int
	openBrowser bool
	ids         idgen.Generator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
	url    string
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		objects: make(map[string]any),
		ids:     idgen.New(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the dashboard in the default browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterEngine registers the engine that drives the simulation.
func (m *Monitor) RegisterEngine(e Engine) {
	m.engine = e
}

// RegisterFrequencyRegistry lets the monitor report time in seconds.
func (m *Monitor) RegisterFrequencyRegistry(r *timing.FrequencyRegistry) {
	m.registry = r
}

// RegisterObject exposes an object, such as the engine status or the tune,
// under a name. Registering a name twice panics.
func (m *Monitor) RegisterObject(name string, obj any) {
	if _, found := m.objects[name]; found {
		panic(fmt.Sprintf("monitoring: object %s already registered", name))
	}

	m.objects[name] = obj
	m.objectNames = append(m.objectNames, name)
}

// RegisterTuneStore serves the active tune and accepts calibration writes
// into the store.
func (m *Monitor) RegisterTuneStore(s *config.Store) {
	m.tunes = s
}

// RegisterSchedule adds an output schedule to the schedule list.
func (m *Monitor) RegisterSchedule(s ScheduleView) {
	m.schedules = append(m.schedules, s)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        strconv.FormatUint(uint64(m.ids.Generate()), 10),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the web page.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_objects", m.listObjects)
	r.HandleFunc("/api/object/{name}", m.objectDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/value/{name}/{path}", m.fieldValue)
	r.HandleFunc("/api/schedules", m.listSchedules)
	r.HandleFunc("/api/tune", m.getTune).Methods(http.MethodGet)
	r.HandleFunc("/api/tune", m.writeTune).Methods(http.MethodPost)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	m.server = &http.Server{
		Handler:     m.router(),
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(m.url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	return m.url
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type nowRsp struct {
	Cycles  uint64  `json:"cycles"`
	Seconds float64 `json:"seconds"`
	Paused  bool    `json:"paused"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()

	rsp := nowRsp{Cycles: uint64(now), Paused: m.engine.IsPaused()}
	if m.registry != nil {
		rsp.Seconds = float64(m.registry.CyclesToSeconds(now))
	}

	writeJSON(w, rsp)
}

// frozen runs f with the engine paused so that the state it reads is not
// being written at the same time.
func (m *Monitor) frozen(f func()) {
	if m.engine == nil || m.engine.IsPaused() {
		f()
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	f()
}

func (m *Monitor) listObjects(w http.ResponseWriter, _ *http.Request) {
	names := append([]string(nil), m.objectNames...)
	sort.Strings(names)
	writeJSON(w, names)
}

func (m *Monitor) objectDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	obj := m.findObjectOr404(w, name)
	if obj == nil {
		return
	}

	m.frozen(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(obj)
		serializer.SetMaxDepth(1)
		err := serializer.Serialize(w)

		dieOnErr(err)
	})
}

func (m *Monitor) getTune(w http.ResponseWriter, r *http.Request) {
	if m.tunes == nil {
		http.NotFound(w, r)
		return
	}

	var (
		data []byte
		err  error
	)

	m.frozen(func() {
		var snap *config.Tune

		snap, err = m.tunes.Snapshot()
		if err == nil {
			data, err = config.Encode(snap)
		}
	})
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/yaml")
	_, err = w.Write(data)
	dieOnErr(err)
}

type tuneRsp struct {
	Revision uint64 `json:"revision"`
}

// writeTune applies a YAML document onto a staged copy of the tune and
// commits it. A rejected document leaves the active tune untouched.
func (m *Monitor) writeTune(w http.ResponseWriter, r *http.Request) {
	if m.tunes == nil {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	staged, err := m.tunes.Stage()
	dieOnErr(err)

	err = config.Decode(body, staged)
	if err == nil {
		err = m.tunes.Commit()
	}

	if err != nil {
		m.tunes.Discard()
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	writeJSON(w, tuneRsp{Revision: m.tunes.Revision()})
}

type fieldReq struct {
	ObjName   string `json:"obj_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	obj := m.findObjectOr404(w, req.ObjName)
	if obj == nil {
		return
	}

	m.frozen(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(obj)
		serializer.SetMaxDepth(1)

		err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		dieOnErr(err)

		err = serializer.Serialize(w)
		dieOnErr(err)
	})
}

// fieldValue prints a single value, addressed by a dotted path, as plain
// text.
func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	obj := m.findObjectOr404(w, vars["name"])
	if obj == nil {
		return
	}

	var (
		text string
		err  error
	)

	m.frozen(func() {
		var elem reflect.Value

		elem, err = m.walkFields(obj, vars["path"])
		if err == nil {
			text = fmt.Sprint(elem)
		}
	})

	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	_, err = w.Write([]byte(text))
	dieOnErr(err)
}

type scheduleRsp struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration uint32 `json:"duration"`
	Disabled bool   `json:"disabled"`
}

func (m *Monitor) listSchedules(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]scheduleRsp, 0, len(m.schedules))
	for _, s := range m.schedules {
		rsp = append(rsp, scheduleRsp{
			Name:     s.Name(),
			Status:   s.Status().String(),
			Duration: s.Duration(),
			Disabled: s.IsDisabled(),
		})
	}

	writeJSON(w, rsp)
}

type fieldFormatError struct {
	field string
}

func (e fieldFormatError) Error() string {
	return "cannot walk into " + e.field
}

func (m *Monitor) walkFields(
	obj any,
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(obj)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			if elem.IsNil() {
				return elem, fieldFormatError{field: fieldNames[0]}
			}

			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			if !elem.IsValid() {
				return elem, fieldFormatError{field: fieldNames[0]}
			}

			fieldNames = fieldNames[1:]
		case reflect.Slice, reflect.Array:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{field: fieldNames[0]}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fieldFormatError{field: fieldNames[0]}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) findObjectOr404(
	w http.ResponseWriter,
	name string,
) any {
	obj, found := m.objects[name]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Object not found"))
		dieOnErr(err)

		return nil
	}

	return obj
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
