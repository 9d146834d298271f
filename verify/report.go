package verify

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"
)

// Scenario is one verified run of the benchmark.
type Scenario struct {
	Mode    string
	Pipes   int
	Packets int
	Flavor  string

	Setup   time.Duration
	Exec    time.Duration
	SimTime float64

	// Samples holds the execution time of every iteration. When empty, Exec
	// is reported alone.
	Samples []time.Duration

	Expected uint32
	Actual   uint32
	Err      error
}

// Passed tells if the scenario ran and verified.
func (s Scenario) Passed() bool {
	return s.Err == nil && s.Expected == s.Actual
}

// ExecStats returns the mean and standard deviation of the execution time in
// milliseconds.
func (s Scenario) ExecStats() (mean, stddev float64) {
	if len(s.Samples) == 0 {
		return millis(s.Exec), 0
	}

	xs := make([]float64, len(s.Samples))
	for i, d := range s.Samples {
		xs[i] = millis(d)
	}

	if len(xs) == 1 {
		return xs[0], 0
	}

	return stat.MeanStdDev(xs, nil)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Report collects scenarios for printing.
type Report struct {
	Title     string
	Scenarios []Scenario
}

// NewReport creates an empty report.
func NewReport(title string) *Report {
	return &Report{Title: title}
}

// Add appends a scenario.
func (r *Report) Add(s Scenario) {
	r.Scenarios = append(r.Scenarios, s)
}

// Passed is true if the report holds at least one scenario and every
// scenario verified.
func (r *Report) Passed() bool {
	if len(r.Scenarios) == 0 {
		return false
	}

	for _, s := range r.Scenarios {
		if !s.Passed() {
			return false
		}
	}

	return true
}

// WriteReport renders the scenarios as a table followed by a summary line.
func (r *Report) WriteReport(w io.Writer) {
	t := table.NewWriter()
	t.SetTitle(r.Title)
	t.AppendHeader(table.Row{
		"Mode", "Pipes", "Packets", "Flavor",
		"Setup (ms)", "Exec (ms)", "Sim (us)", "Expected", "Actual", "Result",
	})

	passed := 0

	for _, s := range r.Scenarios {
		mean, stddev := s.ExecStats()

		exec := fmt.Sprintf("%.3f", mean)
		if len(s.Samples) > 1 {
			exec = fmt.Sprintf("%.3f ± %.3f", mean, stddev)
		}

		result := "PASS"
		if s.Passed() {
			passed++
		} else {
			result = "FAIL"
		}

		t.AppendRow(table.Row{
			s.Mode, s.Pipes, s.Packets, s.Flavor,
			fmt.Sprintf("%.3f", millis(s.Setup)),
			exec,
			fmt.Sprintf("%.3f", s.SimTime*1e6),
			s.Expected, s.Actual, result,
		})
	}

	fmt.Fprintln(w, t.Render())

	for _, s := range r.Scenarios {
		if s.Err != nil {
			fmt.Fprintln(w, s.Err)
		}
	}

	fmt.Fprintf(w, "%d of %d scenarios verified\n", passed, len(r.Scenarios))
}
