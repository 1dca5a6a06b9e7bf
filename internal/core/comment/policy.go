package comment

import "fmt"

// OpenViewPolicy decides when a newly commented thread surfaces the
// comments panel.
type OpenViewPolicy string

const (
	OpenViewFile                OpenViewPolicy = "file"
	OpenViewFirstFile           OpenViewPolicy = "firstFile"
	OpenViewFirstFileUnresolved OpenViewPolicy = "firstFileUnresolved"
	OpenViewNever               OpenViewPolicy = "never"
)

// IsValid reports whether p is a known policy.
func (p OpenViewPolicy) IsValid() bool {
	switch p {
	case OpenViewFile, OpenViewFirstFile, OpenViewFirstFileUnresolved, OpenViewNever:
		return true
	default:
		return false
	}
}

// ParseOpenViewPolicy validates a configured policy string.
func ParseOpenViewPolicy(s string) (OpenViewPolicy, error) {
	p := OpenViewPolicy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid open view policy %q", s)
	}
	return p, nil
}

// ShouldOpen reports whether the panel should open for t. panelRendered is
// whether the panel has been shown before.
func (p OpenViewPolicy) ShouldOpen(t *Thread, panelRendered bool) bool {
	if t == nil || !t.HasMeaningfulComments() {
		return false
	}
	switch p {
	case OpenViewFile:
		return true
	case OpenViewFirstFile:
		return !panelRendered
	case OpenViewFirstFileUnresolved:
		return t.State == Unresolved && !panelRendered
	default:
		return false
	}
}
