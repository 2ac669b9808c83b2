package harness

import (
	"fmt"
	"io"
	"time"
)

// Result is the outcome of one scenario.
type Result struct {
	Name    string
	Err     error
	Elapsed time.Duration
}

// Passed reports whether the scenario succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// Report collects the results of a run.
type Report struct {
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Failed returns the failing results.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool { return len(r.Failed()) == 0 }

// Write prints one line per scenario and a summary.
func (r *Report) Write(w io.Writer) error {
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		line := fmt.Sprintf("%-4s  %-20s %8s", status, res.Name, res.Elapsed.Round(time.Millisecond))
		if res.Err != nil {
			line += "  " + res.Err.Error()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d/%d passed in %s\n",
		len(r.Results)-len(r.Failed()), len(r.Results), r.Finished.Sub(r.Started).Round(time.Millisecond))
	return err
}
