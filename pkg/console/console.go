// Package console serves the clinic admin pages. Each browser session gets
// its own workflow state per resource, kept in a session store between
// requests.
package console

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/clinicdesk/admin-console/pkg/catalog"
	"github.com/clinicdesk/admin-console/pkg/clinic"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/crud"
	"github.com/clinicdesk/admin-console/pkg/enrichment"
	"github.com/clinicdesk/admin-console/pkg/session"
	"github.com/google/uuid"
)

const (
	SessionCookie = "clinic_console_sid"

	resourcePattern = "{resource:doctors|patients|medicalSpecialties}"
)

// Check reports whether a dependency is ready to serve traffic.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type Deps struct {
	Registry     *clinic.Registry
	Examinations *enrichment.Service
	Store        session.Store
	Locker       session.Locker
	Catalog      *catalog.Catalog
	SessionTTL   time.Duration
	SecureCookie bool
	ReadyChecks  []Check
}

type Handler struct {
	registry     *clinic.Registry
	examinations *enrichment.Service
	store        session.Store
	locker       session.Locker
	catalog      *catalog.Catalog
	sessionTTL   time.Duration
	secureCookie bool
	readyChecks  []Check
	pages        *template.Template
}

func New(deps Deps) (*Handler, error) {
	if deps.Registry == nil || deps.Examinations == nil || deps.Store == nil || deps.Locker == nil || deps.Catalog == nil {
		return nil, errors.New("console: registry, examinations, store, locker and catalog are required")
	}
	pages, err := parseTemplates(deps.Catalog)
	if err != nil {
		return nil, err
	}
	return &Handler{
		registry:     deps.Registry,
		examinations: deps.Examinations,
		store:        deps.Store,
		locker:       deps.Locker,
		catalog:      deps.Catalog,
		sessionTTL:   deps.SessionTTL,
		secureCookie: deps.SecureCookie,
		readyChecks:  deps.ReadyChecks,
		pages:        pages,
	}, nil
}

// sessionID returns the caller's session, issuing a new cookie when absent.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.New().String()
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if h.sessionTTL > 0 {
		cookie.MaxAge = int(h.sessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}

// withWorkflow restores the session's workflow for resource, runs fn on it
// under the session lock and stores the resulting state. restored tells fn
// whether a stored state was found. State is only written back when fn
// succeeds.
func (h *Handler) withWorkflow(ctx context.Context, sid, resource string, fn func(ctx context.Context, wf crud.Workflow, restored bool) error) error {
	return h.locker.WithLock(ctx, sid, resource, func(ctx context.Context) error {
		wf, err := h.registry.Workflow(resource)
		if err != nil {
			return err
		}

		data, found, err := h.store.Load(ctx, sid, resource)
		if err != nil {
			return err
		}
		if found {
			if err := wf.UnmarshalState(data); err != nil {
				logger.Log.WithError(err).WithField("resource", resource).Warn("discarding unreadable session state")
				found = false
			}
		}

		if err := fn(ctx, wf, found); err != nil {
			return err
		}

		encoded, err := wf.MarshalState()
		if err != nil {
			return err
		}
		return h.store.Save(ctx, sid, resource, encoded)
	})
}
