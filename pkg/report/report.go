// Package report summarizes a publishing run.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/agentstation/utc"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/slink-ws/asciidoc2confluence/pkg/result"
	"github.com/slink-ws/asciidoc2confluence/pkg/tracker"
)

// Report is the outcome of one run.
type Report struct {
	RunID      string              `json:"run_id" yaml:"run_id"`
	Started    utc.Time            `json:"started" yaml:"started"`
	CleanedUp  utc.Time            `json:"cleaned_up" yaml:"cleaned_up"`
	Finished   utc.Time            `json:"finished" yaml:"finished"`
	Result     result.Result       `json:"result" yaml:"result"`
	Duplicates []tracker.Duplicate `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Cleaned    map[string]int      `json:"cleaned,omitempty" yaml:"cleaned,omitempty"`
	Preview    bool                `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// New starts a report for runID at the current time.
func New(runID string) *Report {
	now := utc.Now()
	return &Report{RunID: runID, Started: now, CleanedUp: now}
}

// MarkCleaned records the end of the clean-up phase.
func (r *Report) MarkCleaned() {
	r.CleanedUp = utc.Now()
}

// Finish records the end of the run.
func (r *Report) Finish(res result.Result, duplicates []tracker.Duplicate) {
	r.Finished = utc.Now()
	r.Result = res
	r.Duplicates = duplicates
}

// TotalTime is the wall time of the whole run.
func (r *Report) TotalTime() time.Duration {
	return span(r.Started, r.Finished)
}

// CleanupTime is the time spent deleting spaces before publishing.
func (r *Report) CleanupTime() time.Duration {
	return span(r.Started, r.CleanedUp)
}

// PublishTime is the time spent publishing and sweeping.
func (r *Report) PublishTime() time.Duration {
	return span(r.CleanedUp, r.Finished)
}

func span(from, to utc.Time) time.Duration {
	if from.Time.IsZero() || to.Time.IsZero() || to.Time.Before(from.Time) {
		return 0
	}
	return to.Time.Sub(from.Time)
}

// FormatDuration renders d as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

// Rows returns the summary table body: published, updated, removed,
// skipped hidden and unreadable, each with success and failure counts.
func (r *Report) Rows() [][]string {
	n := func(k result.Kind) string { return strconv.Itoa(r.Result.Count(k)) }
	unreadable := r.Result.Count(result.ReadFailure) + r.Result.Count(result.DirFailure)
	return [][]string{
		{"published", n(result.PublishSuccess), n(result.PublishFailure)},
		{"updated", n(result.UpdateSuccess), n(result.UpdateFailure)},
		{"removed", n(result.DeleteSuccess), n(result.DeleteFailure)},
		{"skipped hidden", n(result.SkipHidden), "-"},
		{"unreadable", "-", strconv.Itoa(unreadable)},
	}
}

// stickyWriter remembers the first write error and drops later writes.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.err = err
	return n, err
}

func (s *stickyWriter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s, format, args...)
}

// Render writes the human-readable summary. All three phase times are
// always printed; the clean-up time is zero when nothing was cleaned.
func (r *Report) Render(w io.Writer) error {
	out := &stickyWriter{w: w}
	out.printf("run %s\n", r.RunID)
	out.printf("%-16s %s\n", "total time:", FormatDuration(r.TotalTime()))
	out.printf("%-16s %s\n", "clean-up time:", FormatDuration(r.CleanupTime()))
	out.printf("%-16s %s\n", "publish time:", FormatDuration(r.PublishTime()))
	spaces := make([]string, 0, len(r.Cleaned))
	for space := range r.Cleaned {
		spaces = append(spaces, space)
	}
	sort.Strings(spaces)
	for _, space := range spaces {
		out.printf("%-16s %s x %d\n", "cleaned:", space, r.Cleaned[space])
	}
	out.printf("\n")
	if out.err != nil {
		return out.err
	}

	cfg := tablewriter.Config{}
	cfg.Header.Alignment = tw.CellAlignment{PerColumn: []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight}}
	cfg.Row.Alignment = tw.CellAlignment{PerColumn: []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight}}
	table := tablewriter.NewTable(out, tablewriter.WithConfig(cfg))
	table.Header("", "SUCCESS", "FAILURE")
	for _, row := range r.Rows() {
		if err := table.Append(row[0], row[1], row[2]); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if out.err != nil {
		return out.err
	}

	if len(r.Duplicates) > 0 {
		out.printf("\nduplicate titles:\n")
		for _, d := range r.Duplicates {
			out.printf("  %s x %d\n", d.Title, d.Count)
		}
	}
	return out.err
}
