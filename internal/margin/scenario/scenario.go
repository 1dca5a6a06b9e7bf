// Package scenario loads scripted comment sessions: one document, the
// providers commenting on it and an ordered list of editor and provider
// steps. Scenario files are YAML, TOML or JSON, chosen by extension.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/colonyops/margin/pkg/iojson"
)

// ErrInvalid is returned for a scenario that fails validation.
var ErrInvalid = errors.New("invalid scenario")

// FileRange is the range text of a file-level thread or comment.
const FileRange = "file"

// Scenario is a scripted comment session.
type Scenario struct {
	Name       string       `json:"name,omitempty" yaml:"name" toml:"name"`
	Document   Document     `json:"document" yaml:"document" toml:"document"`
	Cursor     string       `json:"cursor,omitempty" yaml:"cursor" toml:"cursor"`
	Selection  string       `json:"selection,omitempty" yaml:"selection" toml:"selection"`
	Providers  []Provider   `json:"providers" yaml:"providers" toml:"providers"`
	ContinueOn []ContinueOn `json:"continue_on,omitempty" yaml:"continue_on" toml:"continue_on"`
	Steps      []Step       `json:"steps,omitempty" yaml:"steps" toml:"steps"`
}

// Document is the text under comment.
type Document struct {
	URI  string `json:"uri" yaml:"uri" toml:"uri"`
	Text string `json:"text" yaml:"text" toml:"text"`
}

// Provider is one comment owner.
type Provider struct {
	Owner        string   `json:"owner" yaml:"owner" toml:"owner"`
	Label        string   `json:"label,omitempty" yaml:"label" toml:"label"`
	Extension    string   `json:"extension,omitempty" yaml:"extension" toml:"extension"`
	Ranges       []string `json:"ranges,omitempty" yaml:"ranges" toml:"ranges"`
	FileComments bool     `json:"file_comments,omitempty" yaml:"file_comments" toml:"file_comments"`
	Threads      []Thread `json:"threads,omitempty" yaml:"threads" toml:"threads"`
}

// Thread is a provider thread. An empty or "file" range is file-level.
type Thread struct {
	ID       string            `json:"id" yaml:"id" toml:"id"`
	Range    string            `json:"range,omitempty" yaml:"range" toml:"range"`
	Resolved bool              `json:"resolved,omitempty" yaml:"resolved" toml:"resolved"`
	Expanded bool              `json:"expanded,omitempty" yaml:"expanded" toml:"expanded"`
	Comments []comment.Comment `json:"comments,omitempty" yaml:"comments" toml:"comments"`
	// Handle is the provider's integer handle. Unset or -1 lets the
	// provider assign one.
	Handle *int `json:"handle,omitempty" yaml:"handle,omitempty" toml:"handle,omitempty"`
}

// ContinueOn is a draft left behind by an earlier session.
type ContinueOn struct {
	Owner string `json:"owner" yaml:"owner" toml:"owner"`
	Range string `json:"range,omitempty" yaml:"range" toml:"range"`
	Body  string `json:"body" yaml:"body" toml:"body"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	Cursor         string       `json:"cursor,omitempty" yaml:"cursor,omitempty" toml:"cursor,omitempty"`
	Select         string       `json:"select,omitempty" yaml:"select,omitempty" toml:"select,omitempty"`
	Hover          *int         `json:"hover,omitempty" yaml:"hover,omitempty" toml:"hover,omitempty"`
	Edit           *EditStep    `json:"edit,omitempty" yaml:"edit,omitempty" toml:"edit,omitempty"`
	Add            string       `json:"add,omitempty" yaml:"add,omitempty" toml:"add,omitempty"`
	Draft          *DraftStep   `json:"draft,omitempty" yaml:"draft,omitempty" toml:"draft,omitempty"`
	Submit         *ThreadRef   `json:"submit,omitempty" yaml:"submit,omitempty" toml:"submit,omitempty"`
	Reload         bool         `json:"reload,omitempty" yaml:"reload,omitempty" toml:"reload,omitempty"`
	ThreadAdd      *ThreadStep  `json:"thread.add,omitempty" yaml:"thread.add,omitempty" toml:"thread.add,omitempty"`
	ThreadRemove   *ThreadRef   `json:"thread.remove,omitempty" yaml:"thread.remove,omitempty" toml:"thread.remove,omitempty"`
	ThreadChange   *ThreadStep  `json:"thread.change,omitempty" yaml:"thread.change,omitempty" toml:"thread.change,omitempty"`
	Pending        *PendingStep `json:"pending,omitempty" yaml:"pending,omitempty" toml:"pending,omitempty"`
	RemoveProvider string       `json:"remove-provider,omitempty" yaml:"remove-provider,omitempty" toml:"remove-provider,omitempty"`
	Enabled        *bool        `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Next           string       `json:"next,omitempty" yaml:"next,omitempty" toml:"next,omitempty"`
	Expand         string       `json:"expand,omitempty" yaml:"expand,omitempty" toml:"expand,omitempty"`
}

// EditStep replaces Range with Text.
type EditStep struct {
	Range string `json:"range" yaml:"range" toml:"range"`
	Text  string `json:"text" yaml:"text" toml:"text"`
}

// DraftStep types unsent text into the widget of a thread.
type DraftStep struct {
	ThreadRef `yaml:",inline"`
	Text      string `json:"text" yaml:"text" toml:"text"`
}

// ThreadRef points at a displayed thread by owner and id, or by the line of
// its glyph.
type ThreadRef struct {
	Owner  string `json:"owner,omitempty" yaml:"owner" toml:"owner"`
	Thread string `json:"thread,omitempty" yaml:"thread" toml:"thread"`
	Line   int    `json:"line,omitempty" yaml:"line" toml:"line"`
}

// ThreadStep adds or changes a provider thread.
type ThreadStep struct {
	Owner  string `json:"owner" yaml:"owner" toml:"owner"`
	Thread Thread `json:"thread" yaml:"thread" toml:"thread"`
}

// PendingStep asks the provider to reopen a draft.
type PendingStep struct {
	Owner string `json:"owner" yaml:"owner" toml:"owner"`
	Range string `json:"range,omitempty" yaml:"range" toml:"range"`
	Body  string `json:"body" yaml:"body" toml:"body"`
	Reply bool   `json:"reply,omitempty" yaml:"reply" toml:"reply"`
}

// Navigation targets accepted by Step.Next.
const (
	NextThread       = "thread"
	PrevThread       = "prev-thread"
	NextRange        = "range"
	PrevRange        = "prev-range"
	ExpandAll        = "all"
	ExpandNone       = "none"
	ExpandUnresolved = "unresolved"
)

// Load reads a scenario file, decoding by extension.
func Load(path string) (*Scenario, error) {
	var sc Scenario
	if err := iojson.DecodeFile(path, &sc); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario is well formed.
func (sc *Scenario) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if sc.Document.URI == "" {
		add("document.uri is required")
	}
	if sc.Cursor != "" {
		if _, err := textrange.ParsePosition(sc.Cursor); err != nil {
			add("cursor: %w", err)
		}
	}
	if sc.Selection != "" {
		if _, err := textrange.Parse(sc.Selection); err != nil {
			add("selection: %w", err)
		}
	}

	owners := make(map[string]bool, len(sc.Providers))
	for i, p := range sc.Providers {
		if p.Owner == "" {
			add("providers[%d].owner is required", i)
		}
		if owners[p.Owner] {
			add("providers[%d]: duplicate owner %q", i, p.Owner)
		}
		owners[p.Owner] = true
		for j, r := range p.Ranges {
			if _, err := textrange.Parse(r); err != nil {
				add("providers[%d].ranges[%d]: %w", i, j, err)
			}
		}
		for j, t := range p.Threads {
			if err := t.validate(); err != nil {
				add("providers[%d].threads[%d]: %w", i, j, err)
			}
		}
	}

	for i, c := range sc.ContinueOn {
		if !owners[c.Owner] {
			add("continue_on[%d]: unknown owner %q", i, c.Owner)
		}
		if _, err := ParseRange(c.Range); err != nil {
			add("continue_on[%d]: %w", i, err)
		}
	}

	for i, s := range sc.Steps {
		if err := s.validate(owners); err != nil {
			add("steps[%d]: %w", i, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (t Thread) validate() error {
	if t.ID == "" {
		return errors.New("id is required")
	}
	_, err := ParseRange(t.Range)
	return err
}

// Kind returns the name of the action the step performs.
func (s Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) kinds() []string {
	var kinds []string
	set := func(ok bool, name string) {
		if ok {
			kinds = append(kinds, name)
		}
	}
	set(s.Cursor != "", "cursor")
	set(s.Select != "", "select")
	set(s.Hover != nil, "hover")
	set(s.Edit != nil, "edit")
	set(s.Add != "", "add")
	set(s.Draft != nil, "draft")
	set(s.Submit != nil, "submit")
	set(s.Reload, "reload")
	set(s.ThreadAdd != nil, "thread.add")
	set(s.ThreadRemove != nil, "thread.remove")
	set(s.ThreadChange != nil, "thread.change")
	set(s.Pending != nil, "pending")
	set(s.RemoveProvider != "", "remove-provider")
	set(s.Enabled != nil, "enabled")
	set(s.Next != "", "next")
	set(s.Expand != "", "expand")
	return kinds
}

func (s Step) validate(owners map[string]bool) error {
	kinds := s.kinds()
	switch len(kinds) {
	case 0:
		return errors.New("empty step")
	case 1:
	default:
		return fmt.Errorf("step sets %s; want exactly one action", strings.Join(kinds, ", "))
	}

	owner := func(o string) error {
		if !owners[o] {
			return fmt.Errorf("unknown owner %q", o)
		}
		return nil
	}

	switch kinds[0] {
	case "cursor":
		_, err := textrange.ParsePosition(s.Cursor)
		return err
	case "select":
		_, err := textrange.Parse(s.Select)
		return err
	case "edit":
		_, err := textrange.Parse(s.Edit.Range)
		return err
	case "add":
		_, err := ParseRange(s.Add)
		return err
	case "draft":
		return s.Draft.validate()
	case "submit":
		return s.Submit.validate()
	case "thread.remove":
		if s.ThreadRemove.Thread == "" {
			return errors.New("thread.remove needs a thread id")
		}
		return owner(s.ThreadRemove.Owner)
	case "thread.add", "thread.change":
		ts := s.ThreadAdd
		if ts == nil {
			ts = s.ThreadChange
		}
		if err := owner(ts.Owner); err != nil {
			return err
		}
		return ts.Thread.validate()
	case "pending":
		if err := owner(s.Pending.Owner); err != nil {
			return err
		}
		_, err := ParseRange(s.Pending.Range)
		return err
	case "remove-provider":
		if s.RemoveProvider == "*" {
			return nil
		}
		return owner(s.RemoveProvider)
	case "next":
		switch s.Next {
		case NextThread, PrevThread, NextRange, PrevRange:
			return nil
		}
		return fmt.Errorf("unknown navigation target %q", s.Next)
	case "expand":
		switch s.Expand {
		case ExpandAll, ExpandNone, ExpandUnresolved:
			return nil
		}
		return fmt.Errorf("unknown expand mode %q", s.Expand)
	}
	return nil
}

func (r *ThreadRef) validate() error {
	if r.Thread == "" && r.Line == 0 {
		return errors.New("thread reference needs a thread id or a line")
	}
	return nil
}

// ParseRange parses a thread or comment range; "" and "file" are nil.
func ParseRange(s string) (*textrange.Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == FileRange {
		return nil, nil
	}
	r, err := textrange.Parse(s)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ToThread converts the scenario thread for the document at uri.
func (t Thread) ToThread(uri string) *comment.Thread {
	rng, _ := ParseRange(t.Range)
	th := &comment.Thread{
		ThreadID: t.ID,
		Resource: uri,
		Range:    rng,
		Comments: append([]comment.Comment(nil), t.Comments...),
		CanReply: true,
	}
	if t.Handle != nil {
		th.Handle = comment.HandleFromWire(*t.Handle)
	}
	if t.Resolved {
		th.State = comment.Resolved
	}
	if t.Expanded {
		th.Collapsible = comment.Expanded
	}
	return th
}
