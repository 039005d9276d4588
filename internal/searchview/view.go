// Package searchview drives the storefront search flow: it validates the
// query, calls the catalog name lookup and renders the outcome as cards or
// as a message the user can act on.
package searchview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type State int

const (
	Idle State = iota
	Loading
	Results
	Empty
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Results:
		return "results"
	case Empty:
		return "empty"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	MsgMissingQuery = "Search query is missing."
	MsgNotFound     = "No products found."
	MsgFailed       = "Failed to fetch products."
	MsgTransport    = "An error occurred while fetching the products."

	PlaceholderImage = "https://via.placeholder.com/150"
)

type Finder interface {
	FindByNames(ctx context.Context, names []string) ([]Result, error)
}

// View is not safe for concurrent use; one view backs one prompt.
type View struct {
	Finder Finder

	// OnChange, if set, observes every state transition.
	OnChange func(State)

	state   State
	results []Result
	message string
}

func NewView(f Finder) *View {
	return &View{Finder: f}
}

// Submit runs one search. It can be called again from any state.
func (v *View) Submit(ctx context.Context, query string) State {
	v.results = nil
	v.message = ""

	query = strings.TrimSpace(query)
	if query == "" {
		v.message = MsgMissingQuery
		return v.set(Error)
	}

	v.set(Loading)

	results, err := v.Finder.FindByNames(ctx, []string{query})
	switch {
	case err == nil && len(results) > 0:
		v.results = results
		return v.set(Results)
	case err == nil, errors.Is(err, ErrNoMatches):
		v.message = MsgNotFound
		return v.set(Empty)
	case errors.Is(err, ErrBadStatus):
		v.message = MsgFailed
		return v.set(Error)
	default:
		v.message = MsgTransport
		return v.set(Error)
	}
}

func (v *View) set(s State) State {
	v.state = s
	if v.OnChange != nil {
		v.OnChange(s)
	}
	return s
}

func (v *View) State() State      { return v.state }
func (v *View) Message() string   { return v.message }
func (v *View) Results() []Result { return v.results }

// First returns the top hit, for jumping straight to its detail view.
func (v *View) First() (Result, bool) {
	if v.state != Results || len(v.results) == 0 {
		return Result{}, false
	}
	return v.results[0], true
}

func (v *View) Render(w io.Writer) error {
	if v.state != Results {
		if v.message == "" {
			return nil
		}
		_, err := fmt.Fprintln(w, v.message)
		return err
	}

	for i, r := range v.results {
		image := r.Image
		if image == "" {
			image = PlaceholderImage
		}
		if _, err := fmt.Fprintf(w, "[%d] %s\n    image: %s\n    view details: %s\n", i+1, r.Name, image, r.URL); err != nil {
			return err
		}
	}
	return nil
}
