// Package crud drives the list, edit and delete workflow for one backend
// collection. A Descriptor says what the records look like; a Controller holds
// the workflow state for one user and performs the backend calls.
package crud

import (
	"context"
	"errors"
	"fmt"
)

type FieldKind string

const (
	KindText   FieldKind = "text"
	KindEmail  FieldKind = "email"
	KindDate   FieldKind = "date"
	KindSelect FieldKind = "select"
)

// Field binds one wire field of T to its rendering and editing behaviour.
type Field[T any] struct {
	Name  string // wire name, as in the record's json tag
	Label string // catalog key
	Kind  FieldKind
	List  bool // shown as a table column
	Edit  bool // shown in the editor form

	Get func(T) string
	Set func(*T, string) error

	// Options loads the choices of a KindSelect field when the workflow mounts.
	Options func(ctx context.Context) ([]string, error)
}

// Descriptor is the record shape a Controller works over.
type Descriptor[T any] struct {
	Resource string // backend path segment
	Title    string // catalog key of the page title
	Noun     string // catalog key used in notifications, e.g. "noun.doctor"
	KeyField string

	// Key returns the persisted key of a record; ok is false for new records.
	Key func(T) (key string, ok bool)
	// Describe names a record in confirmation prompts.
	Describe func(T) string

	Fields     []Field[T]
	Deletable  bool
	PageSize   int
	RowActions []string
}

func (d Descriptor[T]) Field(name string) (Field[T], bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

func (d Descriptor[T]) ListFields() []Field[T] {
	var out []Field[T]
	for _, f := range d.Fields {
		if f.List {
			out = append(out, f)
		}
	}
	return out
}

func (d Descriptor[T]) EditFields() []Field[T] {
	var out []Field[T]
	for _, f := range d.Fields {
		if f.Edit {
			out = append(out, f)
		}
	}
	return out
}

// Validate reports descriptor mistakes that would otherwise surface as panics
// deep inside a request.
func (d Descriptor[T]) Validate() error {
	var errs []error
	if d.Resource == "" {
		errs = append(errs, errors.New("resource is empty"))
	}
	if d.KeyField == "" {
		errs = append(errs, errors.New("key field is empty"))
	}
	if d.Key == nil {
		errs = append(errs, errors.New("key func is nil"))
	}
	if d.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size %d is not positive", d.PageSize))
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("field %q declared twice", f.Name))
		}
		seen[f.Name] = true
		if f.Get == nil {
			errs = append(errs, fmt.Errorf("field %q has no getter", f.Name))
		}
		if f.Edit && f.Set == nil {
			errs = append(errs, fmt.Errorf("editable field %q has no setter", f.Name))
		}
		if f.Edit && f.Name == d.KeyField {
			errs = append(errs, fmt.Errorf("key field %q must not be editable", f.Name))
		}
		if f.Kind == KindSelect && f.Options == nil {
			errs = append(errs, fmt.Errorf("select field %q has no options loader", f.Name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("descriptor %s: %w", d.Resource, err)
	}
	return nil
}
