package tools

import (
	"fmt"

	"github.com/atlanticdynamic/toolgate/internal/fancy"
)

// Failure records one plugin that did not register.
type Failure struct {
	PluginID string
	Err      error
}

// Result summarizes a load.
type Result struct {
	Registered int
	Failures   []Failure
}

func (r *Result) record(id string, err error) {
	if err != nil {
		r.Failures = append(r.Failures, Failure{PluginID: id, Err: err})
		return
	}
	r.Registered++
}

// Merge adds other's counts and failures to r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Registered += other.Registered
	r.Failures = append(r.Failures, other.Failures...)
}

// String renders the result as a tree.
func (r *Result) String() string {
	t := fancy.Tree().Root(fancy.RootStyle.Render("Plugin Load"))
	t.Child(fancy.OKStyle.Render(fmt.Sprintf("Registered: %d", r.Registered)))

	if len(r.Failures) > 0 {
		failures := fancy.BranchNode("Failures", fmt.Sprintf("(%d)", len(r.Failures)))
		for _, f := range r.Failures {
			failures.Child(fancy.ErrorStyle.Render(f.PluginID) + ": " + fancy.TruncateString(f.Err.Error(), 200))
		}
		t.Child(failures)
	}
	return t.String()
}
