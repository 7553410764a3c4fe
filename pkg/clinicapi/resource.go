package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var (
	errEmptyBody       = errors.New("empty body")
	errMissingEnvelope = errors.New(`collection envelope has no "` + EnvelopeKey + `" array`)
	errUnexpectedShape = errors.New("collection is neither an array nor an envelope object")
)

// Resource is a typed handle on one backend collection.
type Resource[T any] struct {
	client *Client
	name   string
}

func NewResource[T any](client *Client, name string) *Resource[T] {
	return &Resource[T]{client: client, name: name}
}

func (r *Resource[T]) Name() string {
	return r.name
}

func (r *Resource[T]) malformed(op, key string, status int, cause error) error {
	return &Error{Op: op, Resource: r.name, Key: key, Status: status, Kind: ErrMalformedResponse, Cause: cause}
}

// List fetches the whole collection.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	data, status, err := r.client.do(ctx, call{op: "list", method: http.MethodGet, resource: r.name})
	if err != nil {
		return nil, err
	}
	items, err := decodeCollection[T](data)
	if err != nil {
		return nil, r.malformed("list", "", status, err)
	}
	return items, nil
}

// Get fetches one record by key.
func (r *Resource[T]) Get(ctx context.Context, key string) (T, error) {
	var out T
	data, status, err := r.client.do(ctx, call{op: "get", method: http.MethodGet, resource: r.name, key: key})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, r.malformed("get", key, status, err)
	}
	return out, nil
}

// Create posts a new record and returns the stored copy, key included.
// An empty reply body yields the submitted record.
func (r *Resource[T]) Create(ctx context.Context, record T) (T, error) {
	data, status, err := r.client.do(ctx, call{op: "create", method: http.MethodPost, resource: r.name, body: record})
	if err != nil {
		return record, err
	}
	return r.decodeRecord("create", "", status, data, record)
}

// Update replaces the record stored under key with the full record.
func (r *Resource[T]) Update(ctx context.Context, key string, record T) (T, error) {
	data, status, err := r.client.do(ctx, call{op: "update", method: http.MethodPut, resource: r.name, key: key, body: record})
	if err != nil {
		return record, err
	}
	return r.decodeRecord("update", key, status, data, record)
}

// Remove deletes the record stored under key.
func (r *Resource[T]) Remove(ctx context.Context, key string) error {
	_, _, err := r.client.do(ctx, call{op: "remove", method: http.MethodDelete, resource: r.name, key: key})
	return err
}

func (r *Resource[T]) decodeRecord(op, key string, status int, data []byte, fallback T) (T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return fallback, nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return fallback, r.malformed(op, key, status, err)
	}
	return out, nil
}
