package database

import "fmt"

// StateKind is the lifecycle stage of a Store
type StateKind int

const (
	// Uninitialized means no initialization attempt was made yet
	Uninitialized StateKind = iota
	// Ready means the schema is in place and the store accepts queries
	Ready
	// Failed means initialization failed; the store stays degraded
	Failed
)

func (k StateKind) String() string {
	switch k {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// State describes the health of a Store.
// Reason is set only when Kind is Failed.
type State struct {
	Kind   StateKind
	Reason error
}

func (s State) String() string {
	if s.Kind == Failed && s.Reason != nil {
		return fmt.Sprintf("%s: %v", s.Kind, s.Reason)
	}
	return s.Kind.String()
}
