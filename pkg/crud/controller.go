package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/clinicdesk/admin-console/pkg/clinicapi"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/observability/metrics"
)

// Backend is the slice of the clinic API a controller needs.
// *clinicapi.Resource[T] satisfies it.
type Backend[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, key string, record T) (T, error)
	Remove(ctx context.Context, key string) error
}

// Auditor receives one event per successful mutation.
type Auditor interface {
	Publish(ctx context.Context, eventType, resource, key string, record interface{}) error
}

// Translator renders a catalog key with optional fmt arguments.
type Translator func(key string, args ...interface{}) string

type options struct {
	translate Translator
	auditor   Auditor
}

type Option func(*options)

func WithTranslator(t Translator) Option {
	return func(o *options) { o.translate = t }
}

func WithAuditor(a Auditor) Option {
	return func(o *options) { o.auditor = a }
}

func keyOnly(key string, args ...interface{}) string {
	parts := []string{key}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}

// Controller holds the workflow state of one user for one resource. Backend
// calls run without the lock held; the pending flag keeps any other action
// out until the call has finished.
type Controller[T any] struct {
	desc      Descriptor[T]
	backend   Backend[T]
	translate Translator
	auditor   Auditor

	mu    sync.Mutex
	state State[T]
}

func NewController[T any](desc Descriptor[T], backend Backend[T], opts ...Option) *Controller[T] {
	o := options{translate: keyOnly}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[T]{
		desc:      desc,
		backend:   backend,
		translate: o.translate,
		auditor:   o.auditor,
		state:     initialState[T](),
	}
}

func (c *Controller[T]) Resource() string {
	return c.desc.Resource
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// transition applies a reducer under the lock and counts the action.
func (c *Controller[T]) transition(action string, reduce func(State[T]) (State[T], error)) error {
	c.mu.Lock()
	next, err := reduce(c.state)
	if err == nil {
		c.state = next
	}
	c.mu.Unlock()

	metrics.ObserveAction(err != nil)
	if err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"resource": c.desc.Resource,
			"action":   action,
		}).WithError(err).Debug("action rejected")
	}
	return err
}

// Load refreshes the collection snapshot from the backend. A failed load keeps
// the previous snapshot and leaves an error notification.
func (c *Controller[T]) Load(ctx context.Context) error {
	if err := c.transition("load", beginLoad[T]); err != nil {
		return err
	}
	c.reload(ctx, true)
	return nil
}

// reload expects the state to be in the loading phase already. Field choices
// are fetched on mount only; a refresh after a mutation re-lists the
// collection alone.
func (c *Controller[T]) reload(ctx context.Context, withChoices bool) {
	items, err := c.backend.List(ctx)
	var choices map[string][]string
	if withChoices {
		choices = c.loadOptions(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for field, values := range choices {
		c.state = withOptions(c.state, field, values)
	}
	if err != nil {
		c.state = loadFailed(c.state)
		c.fail("notify.load_failed", err)
		return
	}
	if items == nil {
		items = []T{}
	}
	c.state = loadSucceeded(c.state, items)
}

func (c *Controller[T]) loadOptions(ctx context.Context) map[string][]string {
	out := make(map[string][]string)
	for _, f := range c.desc.Fields {
		if f.Options == nil {
			continue
		}
		values, err := f.Options(ctx)
		if err != nil {
			c.mu.Lock()
			c.fail("notify.options_failed", err)
			c.mu.Unlock()
			continue
		}
		out[f.Name] = values
	}
	return out
}

// New opens the editor on an empty record.
func (c *Controller[T]) New() error {
	var zero T
	return c.transition("new", func(s State[T]) (State[T], error) {
		return openEditor(s, zero)
	})
}

// Edit opens the editor on a copy of the row stored under key.
func (c *Controller[T]) Edit(key string) error {
	return c.transition("edit", func(s State[T]) (State[T], error) {
		row, ok := c.find(s, key)
		if !ok {
			return s, fmt.Errorf("%w: %s/%s", ErrRowNotFound, c.desc.Resource, key)
		}
		return openEditor(s, row)
	})
}

func (c *Controller[T]) find(s State[T], key string) (T, bool) {
	for _, row := range s.Collection {
		if k, ok := c.desc.Key(row); ok && k == key {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// SetField replaces one editable field of the draft.
func (c *Controller[T]) SetField(name, value string) error {
	return c.SetFields(map[string]string{name: value})
}

// SetFields replaces several draft fields at once. Either all values apply or
// the draft stays as it was.
func (c *Controller[T]) SetFields(values map[string]string) error {
	fields := make([]Field[T], 0, len(values))
	for name := range values {
		f, ok := c.desc.Field(name)
		if !ok || !f.Edit {
			metrics.ObserveAction(true)
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, c.desc.Resource, name)
		}
		fields = append(fields, f)
	}
	return c.transition("set_field", func(s State[T]) (State[T], error) {
		return editDraft(s, func(draft *T) error {
			for _, f := range fields {
				if err := f.Set(draft, values[f.Name]); err != nil {
					return fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Name, err)
				}
			}
			return nil
		})
	})
}

// ApplyFields copies every acceptable value into the draft and leaves the
// rest of the draft untouched. Each rejected value queues an error
// notification; the names of the rejected fields are returned.
func (c *Controller[T]) ApplyFields(values map[string]string) ([]string, error) {
	fields := make([]Field[T], 0, len(values))
	for name := range values {
		f, ok := c.desc.Field(name)
		if !ok || !f.Edit {
			metrics.ObserveAction(true)
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.desc.Resource, name)
		}
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	var rejected []string
	err := c.transition("set_field", func(s State[T]) (State[T], error) {
		rejected = rejected[:0]
		next, err := editDraft(s, func(draft *T) error {
			for _, f := range fields {
				if err := f.Set(draft, values[f.Name]); err != nil {
					rejected = append(rejected, f.Name)
				}
			}
			return nil
		})
		if err != nil {
			return s, err
		}
		for _, name := range rejected {
			f, _ := c.desc.Field(name)
			metrics.ObserveErrorNotification()
			next = notify(next, models.Notification{
				Severity: models.SeverityError,
				Summary:  c.translate("notify.error"),
				Detail:   c.translate("notify.invalid_field", c.translate(f.Label), values[name]),
				Life:     models.NotificationLife,
			})
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// Cancel discards the draft without contacting the backend.
func (c *Controller[T]) Cancel() error {
	return c.transition("cancel", closeEditor[T])
}

// Save persists the draft: records with a key are updated, records without
// one are created. On success the collection is reloaded; on failure the
// editor stays open with the draft unchanged.
func (c *Controller[T]) Save(ctx context.Context) error {
	var draft T
	err := c.transition("save", func(s State[T]) (State[T], error) {
		next, err := beginSave(s)
		if err == nil {
			draft = *next.Draft
		}
		return next, err
	})
	if err != nil {
		return err
	}

	key, persisted := c.desc.Key(draft)
	var (
		saved     T
		eventType string
		message   string
	)
	if persisted {
		saved, err = c.backend.Update(ctx, key, draft)
		eventType, message = models.EventRecordUpdated, "notify.updated"
	} else {
		saved, err = c.backend.Create(ctx, draft)
		eventType, message = models.EventRecordCreated, "notify.created"
	}

	c.mu.Lock()
	if err != nil {
		c.state = saveFailed(c.state)
		c.fail("notify.save_failed", err)
		c.mu.Unlock()
		return nil
	}
	c.state = saveSucceeded(c.state)
	c.succeed(message)
	c.mu.Unlock()

	if savedKey, ok := c.desc.Key(saved); ok {
		key = savedKey
	}
	c.publish(ctx, eventType, key, saved)
	c.reload(ctx, false)
	return nil
}

// RequestDelete opens the confirmation dialog for the row stored under key.
func (c *Controller[T]) RequestDelete(key string) error {
	if !c.desc.Deletable {
		metrics.ObserveAction(true)
		return fmt.Errorf("%w: delete %s", ErrNotSupported, c.desc.Resource)
	}
	return c.transition("request_delete", func(s State[T]) (State[T], error) {
		row, ok := c.find(s, key)
		if !ok {
			return s, fmt.Errorf("%w: %s/%s", ErrRowNotFound, c.desc.Resource, key)
		}
		return openConfirm(s, row)
	})
}

// CancelDelete closes the dialog without contacting the backend.
func (c *Controller[T]) CancelDelete() error {
	return c.transition("cancel_delete", closeConfirm[T])
}

// ConfirmDelete removes the target. A failure keeps the dialog open on the
// same target.
func (c *Controller[T]) ConfirmDelete(ctx context.Context) error {
	var target T
	err := c.transition("confirm_delete", func(s State[T]) (State[T], error) {
		next, err := beginRemove(s)
		if err == nil {
			target = *next.Target
		}
		return next, err
	})
	if err != nil {
		return err
	}

	key, ok := c.desc.Key(target)
	if !ok {
		err = fmt.Errorf("%w: delete target has no key", ErrInvalidTransition)
	} else {
		err = c.backend.Remove(ctx, key)
	}

	c.mu.Lock()
	if err != nil {
		c.state = removeFailed(c.state)
		c.fail("notify.delete_failed", err)
		c.mu.Unlock()
		return nil
	}
	c.state = removeSucceeded(c.state)
	c.succeed("notify.deleted")
	c.mu.Unlock()

	c.publish(ctx, models.EventRecordDeleted, key, target)
	c.reload(ctx, false)
	return nil
}

// TakeNotifications returns and clears the queued notifications.
func (c *Controller[T]) TakeNotifications() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Notification
	c.state, out = drainFlash(c.state)
	return out
}

// succeed and fail must be called with c.mu held.
func (c *Controller[T]) succeed(message string) {
	c.state = notify(c.state, models.Notification{
		Severity: models.SeveritySuccess,
		Summary:  c.translate("notify.success"),
		Detail:   c.translate(message, c.translate(c.desc.Noun)),
		Life:     models.NotificationLife,
	})
}

func (c *Controller[T]) fail(message string, err error) {
	class := clinicapi.Class(err)
	logger.Log.WithFields(map[string]interface{}{
		"resource": c.desc.Resource,
		"class":    class,
	}).WithError(err).Warn(message)
	metrics.ObserveErrorNotification()

	c.state = notify(c.state, models.Notification{
		Severity: models.SeverityError,
		Summary:  c.translate("notify.error"),
		Detail:   c.translate(message, c.translate(c.desc.Noun), c.translate("error."+class)),
		Life:     models.NotificationLife,
	})
}

func (c *Controller[T]) publish(ctx context.Context, eventType, key string, record T) {
	if c.auditor == nil {
		return
	}
	if err := c.auditor.Publish(ctx, eventType, c.desc.Resource, key, record); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"resource":   c.desc.Resource,
			"key":        key,
			"event_type": eventType,
		}).WithError(err).Warn("audit publish failed")
	}
}

// MarshalState encodes the persistent part of the state for a session store.
func (c *Controller[T]) MarshalState() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.Marshal(c.state)
}

// UnmarshalState restores a state produced by MarshalState.
func (c *Controller[T]) UnmarshalState(data []byte) error {
	var s State[T]
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode %s state: %w", c.desc.Resource, err)
	}
	switch {
	case s.Mode == "":
		s.Mode = ModeIdle
	case s.Mode == ModeEditing && s.Draft == nil:
		return errors.New("editing state without a draft")
	case s.Mode == ModeConfirming && s.Target == nil:
		return errors.New("confirming state without a target")
	case s.Mode != ModeIdle && s.Mode != ModeEditing && s.Mode != ModeConfirming:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Pending {
		return ErrBusy
	}
	c.state = s
	return nil
}
