// Package cucumber reads Cucumber JSON reports into scenario results.
package cucumber

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/roach88/testsync/internal/ir"
)

type feature struct {
	URI      string    `json:"uri"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Elements []element `json:"elements"`
}

type element struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Tags   []tag  `json:"tags"`
	Before []step `json:"before"`
	Steps  []step `json:"steps"`
	After  []step `json:"after"`
}

type tag struct {
	Name string `json:"name"`
}

type step struct {
	Name   string `json:"name"`
	Result result `json:"result"`
}

type result struct {
	Status   string `json:"status"`
	Duration int64  `json:"duration"` // nanoseconds
}

// Parse decodes one report. Background elements are skipped; every other
// element becomes one result, in report order.
func Parse(r io.Reader) ([]ir.ScenarioResult, error) {
	var features []feature
	if err := json.NewDecoder(r).Decode(&features); err != nil {
		return nil, fmt.Errorf("decode cucumber report: %w", err)
	}

	var out []ir.ScenarioResult
	for _, f := range features {
		uri := f.URI
		if uri == "" {
			uri = f.ID
		}
		for _, el := range f.Elements {
			if el.Type == "background" {
				continue
			}
			out = append(out, scenarioResult(uri, el))
		}
	}
	return out, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string) ([]ir.ScenarioResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

func scenarioResult(uri string, el element) ir.ScenarioResult {
	tags := make([]string, 0, len(el.Tags))
	for _, t := range el.Tags {
		tags = append(tags, t.Name)
	}

	var total time.Duration
	var statuses []ir.Status
	for _, group := range [][]step{el.Before, el.Steps, el.After} {
		for _, s := range group {
			total += time.Duration(s.Result.Duration)
			statuses = append(statuses, ir.ParseStatus(s.Result.Status))
		}
	}

	if el.Line > 0 {
		uri = fmt.Sprintf("%s:%d", uri, el.Line)
	}
	return ir.ScenarioResult{
		Name:     el.Name,
		Tags:     tags,
		Status:   scenarioStatus(statuses),
		URI:      uri,
		Duration: total,
	}
}

// scenarioStatus folds step statuses: any failure fails the scenario, all
// passed (or no steps) passes it, otherwise the first non-passed status wins.
func scenarioStatus(statuses []ir.Status) ir.Status {
	first := ir.StatusPassed
	for _, s := range statuses {
		if s == ir.StatusFailed {
			return ir.StatusFailed
		}
		if s != ir.StatusPassed && first == ir.StatusPassed {
			first = s
		}
	}
	return first
}
