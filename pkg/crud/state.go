package crud

import (
	"errors"
	"fmt"

	"github.com/clinicdesk/admin-console/pkg/common/models"
)

var (
	// ErrBusy is returned while a load, save or delete is still in flight.
	ErrBusy = errors.New("another action is still pending")
	// ErrInvalidTransition is returned for actions the current mode does not allow,
	// e.g. opening the editor while a delete confirmation is open.
	ErrInvalidTransition = errors.New("action not allowed in current mode")
	ErrNotSupported      = errors.New("action not supported for this resource")
	ErrRowNotFound       = errors.New("row not in collection")
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidValue      = errors.New("invalid field value")
)

type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeEditing    Mode = "editing"
	ModeConfirming Mode = "confirming"
)

// State is the complete workflow state of one controller. Reducers below take
// a state and return the next one; they never call the backend.
type State[T any] struct {
	Collection []T                   `json:"collection"`
	Mode       Mode                  `json:"mode"`
	Draft      *T                    `json:"draft,omitempty"`
	Target     *T                    `json:"target,omitempty"`
	Options    map[string][]string   `json:"options,omitempty"`
	Flash      []models.Notification `json:"flash,omitempty"`

	// Loading and Pending describe an in-flight call and are never persisted.
	Loading bool `json:"-"`
	Pending bool `json:"-"`
}

func initialState[T any]() State[T] {
	return State[T]{Mode: ModeIdle}
}

func transitionError(from Mode, action string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, from)
}

// beginLoad is a mount: any dialog left open is discarded before the
// collection is fetched.
func beginLoad[T any](s State[T]) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	s.Mode = ModeIdle
	s.Draft = nil
	s.Target = nil
	s.Pending = true
	s.Loading = true
	return s, nil
}

// loadSucceeded replaces the snapshot wholesale.
func loadSucceeded[T any](s State[T], items []T) State[T] {
	s.Collection = items
	s.Loading = false
	s.Pending = false
	return s
}

func loadFailed[T any](s State[T]) State[T] {
	s.Loading = false
	s.Pending = false
	return s
}

func withOptions[T any](s State[T], field string, values []string) State[T] {
	next := make(map[string][]string, len(s.Options)+1)
	for k, v := range s.Options {
		next[k] = v
	}
	next[field] = values
	s.Options = next
	return s
}

func openEditor[T any](s State[T], draft T) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	if s.Mode != ModeIdle {
		return s, transitionError(s.Mode, "open editor")
	}
	s.Mode = ModeEditing
	s.Draft = &draft
	return s, nil
}

// editDraft applies change to a copy of the draft; the previous draft value is
// left untouched when change fails.
func editDraft[T any](s State[T], change func(*T) error) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	if s.Mode != ModeEditing || s.Draft == nil {
		return s, transitionError(s.Mode, "edit field")
	}
	draft := *s.Draft
	if err := change(&draft); err != nil {
		return s, err
	}
	s.Draft = &draft
	return s, nil
}

func closeEditor[T any](s State[T]) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	if s.Mode != ModeEditing {
		return s, transitionError(s.Mode, "cancel editor")
	}
	s.Mode = ModeIdle
	s.Draft = nil
	return s, nil
}

func beginSave[T any](s State[T]) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	if s.Mode != ModeEditing || s.Draft == nil {
		return s, transitionError(s.Mode, "save")
	}
	s.Pending = true
	return s, nil
}

// saveSucceeded closes the editor and moves straight into loading, so the
// pending flag stays set until the refreshed collection arrives.
func saveSucceeded[T any](s State[T]) State[T] {
	s.Mode = ModeIdle
	s.Draft = nil
	s.Loading = true
	return s
}

// saveFailed keeps the editor open with the draft exactly as submitted.
func saveFailed[T any](s State[T]) State[T] {
	s.Pending = false
	return s
}

func openConfirm[T any](s State[T], target T) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	if s.Mode != ModeIdle {
		return s, transitionError(s.Mode, "request delete")
	}
	s.Mode = ModeConfirming
	s.Target = &target
	return s, nil
}

func closeConfirm[T any](s State[T]) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	if s.Mode != ModeConfirming {
		return s, transitionError(s.Mode, "cancel delete")
	}
	s.Mode = ModeIdle
	s.Target = nil
	return s, nil
}

func beginRemove[T any](s State[T]) (State[T], error) {
	if s.Pending {
		return s, ErrBusy
	}
	if s.Mode != ModeConfirming || s.Target == nil {
		return s, transitionError(s.Mode, "confirm delete")
	}
	s.Pending = true
	return s, nil
}

func removeSucceeded[T any](s State[T]) State[T] {
	s.Mode = ModeIdle
	s.Target = nil
	s.Loading = true
	return s
}

// removeFailed keeps the dialog open on the same target.
func removeFailed[T any](s State[T]) State[T] {
	s.Pending = false
	return s
}

func notify[T any](s State[T], n models.Notification) State[T] {
	flash := make([]models.Notification, 0, len(s.Flash)+1)
	flash = append(flash, s.Flash...)
	s.Flash = append(flash, n)
	return s
}

func drainFlash[T any](s State[T]) (State[T], []models.Notification) {
	out := s.Flash
	s.Flash = nil
	return s, out
}
