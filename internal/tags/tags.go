// Package tags extracts test case identifiers from scenario tags.
package tags

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/testsync/internal/ir"
)

// testCaseTag matches tags that start with TC-<id> or TC_<id>, with or without
// the leading "@" that Cucumber puts in front of tag names. The id runs to the
// next separator or the end of the tag.
var testCaseTag = regexp.MustCompile(`^@?TC[-_](\d+)(?:[-_]|$)`)

// ExtractTestCaseIDs returns the test case ids found in tags as a comma-terminated
// list, in tag order. Tags that do not match are ignored. Duplicates are kept.
//
//	ExtractTestCaseIDs([]string{"TC-101", "TC_202", "smoke"}) == "101,202,"
func ExtractTestCaseIDs(tags []string) string {
	var b strings.Builder
	for _, tag := range tags {
		m := testCaseTag.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		b.WriteString(m[1])
		b.WriteByte(',')
	}
	return b.String()
}

// FeatureName returns the feature file stem for a scenario URI or id.
// A trailing ":<line>" is dropped, so "classpath:features/auth/Login.feature:12"
// becomes "Login".
func FeatureName(uri string) string {
	if uri == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(uri, "\\", "/"))
	if i := strings.IndexByte(base, ':'); i >= 0 && i > strings.LastIndexByte(base, '.') {
		base = base[:i]
	}
	if i := strings.LastIndexByte(base, ':'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// Row converts a finished scenario into the row persisted in the store.
// The duration is truncated to whole seconds.
func Row(res ir.ScenarioResult) ir.ScenarioRow {
	secs := int64(res.Duration / time.Second)
	if secs < 0 {
		secs = 0
	}
	return ir.ScenarioRow{
		Description:     res.Name,
		Outcome:         res.Status.Outcome(),
		TestCaseIDs:     ExtractTestCaseIDs(res.Tags),
		FeatureName:     FeatureName(res.URI),
		DurationSeconds: secs,
	}
}
