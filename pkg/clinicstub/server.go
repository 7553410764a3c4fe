// Package clinicstub is an in-memory stand-in for the clinic REST backend. It
// serves the same surface the console consumes, wraps collections in the
// "$values" envelope the real backend uses, and records every request it sees.
package clinicstub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/gorilla/mux"
)

// KeyFields maps each served resource to the name of its key field.
var KeyFields = map[string]string{
	"doctors":            "doctorID",
	"patients":           "patientID",
	"medicalSpecialties": "specialtyID",
	"examinations":       "examinationID",
}

// Request is one request recorded by the stub.
type Request struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

type fault struct {
	method   string
	resource string
	status   int
}

type collection struct {
	keyField string
	nextID   int
	rows     map[int]map[string]interface{}
}

type Server struct {
	mu          sync.Mutex
	collections map[string]*collection
	requests    []Request
	faults      []fault
	bareArrays  bool
}

func New() *Server {
	s := &Server{collections: make(map[string]*collection)}
	for name, key := range KeyFields {
		s.collections[name] = &collection{keyField: key, nextID: 1, rows: make(map[int]map[string]interface{})}
	}
	return s
}

// UseBareArrays switches collection replies from the envelope to plain JSON arrays.
func (s *Server) UseBareArrays(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bareArrays = on
}

// Put stores row under its key field, allocating a key when it has none.
// It returns the key.
func (s *Server) Put(resource string, row map[string]interface{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.collections[resource], row)
}

func (s *Server) put(c *collection, row map[string]interface{}) int {
	stored := make(map[string]interface{}, len(row)+1)
	for k, v := range row {
		stored[k] = v
	}
	id, ok := intValue(stored[c.keyField])
	if !ok {
		id = c.nextID
	}
	if id >= c.nextID {
		c.nextID = id + 1
	}
	stored[c.keyField] = id
	c.rows[id] = stored
	return id
}

// Row returns a copy of a stored row.
func (s *Server) Row(resource string, id int) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.collections[resource].rows[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, true
}

// Count returns the number of rows stored for resource.
func (s *Server) Count(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[resource].rows)
}

// FailNext makes the next request with method against resource fail with status.
func (s *Server) FailNext(method, resource string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, resource: resource, status: status})
}

// Requests returns the recorded requests in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Handler serves the stub under prefix, e.g. "/api".
func (s *Server) Handler(prefix string) http.Handler {
	router := mux.NewRouter()
	s.Register(router.PathPrefix(prefix).Subrouter())
	return router
}

func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/{resource}", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/{resource}", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/{resource}/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/{resource}/{id}", s.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/{resource}/{id}", s.handleDelete).Methods(http.MethodDelete)
}

// begin records the request and resolves the target collection. It writes the
// error reply itself and returns ok=false when the request should stop.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, withBody bool) (c *collection, body map[string]interface{}, ok bool) {
	resource := mux.Vars(r)["resource"]
	if withBody {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return nil, nil, false
		}
	}

	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})

	for i, f := range s.faults {
		if f.method == r.Method && f.resource == resource {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			http.Error(w, fmt.Sprintf("injected failure for %s %s", f.method, f.resource), f.status)
			return nil, nil, false
		}
	}

	c, found := s.collections[resource]
	if !found {
		http.Error(w, "unknown resource", http.StatusNotFound)
		return nil, nil, false
	}
	return c, body, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _, ok := s.begin(w, r, false)
	if !ok {
		return
	}

	ids := make([]int, 0, len(c.rows))
	for id := range c.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	rows := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, c.rows[id])
	}

	if s.bareArrays {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"$id": "1", "$values": rows})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _, ok := s.begin(w, r, false)
	if !ok {
		return
	}
	row, found := lookup(c, mux.Vars(r)["id"])
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, body, ok := s.begin(w, r, true)
	if !ok {
		return
	}
	if _, has := body[c.keyField]; has {
		http.Error(w, c.keyField+" must not be set on create", http.StatusBadRequest)
		return
	}
	id := s.put(c, body)
	writeJSON(w, http.StatusCreated, c.rows[id])
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, body, ok := s.begin(w, r, true)
	if !ok {
		return
	}
	existing, found := lookup(c, mux.Vars(r)["id"])
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if bodyID, has := intValue(body[c.keyField]); has && bodyID != existing[c.keyField] {
		http.Error(w, "key mismatch", http.StatusBadRequest)
		return
	}
	body[c.keyField] = existing[c.keyField]
	s.put(c, body)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _, ok := s.begin(w, r, false)
	if !ok {
		return
	}
	row, found := lookup(c, mux.Vars(r)["id"])
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	delete(c.rows, row[c.keyField].(int))
	w.WriteHeader(http.StatusNoContent)
}

func lookup(c *collection, raw string) (map[string]interface{}, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	row, ok := c.rows[id]
	return row, ok
}

// intValue reads a key that may have arrived as a JSON number or a Go int.
func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Warn("stub failed to encode reply")
	}
}
