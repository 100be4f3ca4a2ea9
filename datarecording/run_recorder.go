package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// RunTableName is the table that describes the run.
const RunTableName = "run_info"

// RunRecorder records how and when a simulation run was started and when it
// ended.
type RunRecorder struct {
	recorder DataRecorder
	now      func() time.Time
	entries  []RunInfo
}

// NewRunRecorder creates the run table on recorder.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	recorder.CreateTable(RunTableName, RunInfo{})

	return &RunRecorder{
		recorder: recorder,
		now:      time.Now,
	}
}

// Start records the start time, the command line and where the binary lives.
func (r *RunRecorder) Start() {
	r.Set("Start Time", r.now().Format(timeLayout))
	r.Set("Command", strings.Join(os.Args, " "))

	if ex, err := os.Executable(); err == nil {
		r.Set("Path", filepath.Dir(ex))
	}
}

// Set records a property of the run, such as the run ID or the tune file.
func (r *RunRecorder) Set(property, value string) {
	r.entries = append(r.entries, RunInfo{Property: property, Value: value})
}

// End records the end time and writes every property.
func (r *RunRecorder) End() {
	r.Set("End Time", r.now().Format(timeLayout))

	for _, e := range r.entries {
		r.recorder.InsertData(RunTableName, e)
	}

	r.entries = nil
	r.recorder.Flush()
}
