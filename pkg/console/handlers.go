package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/clinicdesk/admin-console/pkg/clinicapi"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/crud"
	"github.com/clinicdesk/admin-console/pkg/observability/metrics"
	"github.com/clinicdesk/admin-console/pkg/session"
	"github.com/gorilla/mux"
)

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", h.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+clinicapi.Doctors, http.StatusFound)
	}).Methods(http.MethodGet)

	r.HandleFunc("/patients/{key}/examinations", h.handleExaminations).Methods(http.MethodGet)

	base := "/" + resourcePattern
	r.HandleFunc(base, h.handlePage).Methods(http.MethodGet)
	r.HandleFunc(base+"/new", h.action(func(ctx context.Context, wf crud.Workflow, r *http.Request) error {
		return wf.New()
	})).Methods(http.MethodPost)
	r.HandleFunc(base+"/draft", h.action(h.applyDraft)).Methods(http.MethodPost)
	r.HandleFunc(base+"/cancel", h.action(func(ctx context.Context, wf crud.Workflow, r *http.Request) error {
		return wf.Cancel()
	})).Methods(http.MethodPost)
	r.HandleFunc(base+"/delete/confirm", h.action(func(ctx context.Context, wf crud.Workflow, r *http.Request) error {
		return wf.ConfirmDelete(ctx)
	})).Methods(http.MethodPost)
	r.HandleFunc(base+"/delete/cancel", h.action(func(ctx context.Context, wf crud.Workflow, r *http.Request) error {
		return wf.CancelDelete()
	})).Methods(http.MethodPost)
	r.HandleFunc(base+"/{key}/edit", h.action(func(ctx context.Context, wf crud.Workflow, r *http.Request) error {
		return wf.Edit(mux.Vars(r)["key"])
	})).Methods(http.MethodPost)
	r.HandleFunc(base+"/{key}/delete", h.action(func(ctx context.Context, wf crud.Workflow, r *http.Request) error {
		return wf.RequestDelete(mux.Vars(r)["key"])
	})).Methods(http.MethodPost)
}

func pageParam(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// handlePage mounts the resource: the collection is reloaded unless the
// request is the redirect that follows an action, which already reloaded
// whatever it changed.
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	sid := h.sessionID(w, r)
	query := r.URL.Query()
	stay := query.Get("stay") == "1"

	var (
		view  crud.View
		notes []models.Notification
	)
	err := h.withWorkflow(r.Context(), sid, resource, func(ctx context.Context, wf crud.Workflow, restored bool) error {
		if !stay || !restored {
			if err := wf.Load(ctx); err != nil {
				return err
			}
		}
		view = wf.View(pageParam(query.Get("page")))
		notes = wf.TakeNotifications()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, http.StatusOK, pageData{Resource: resource, View: view, Notifications: notes})
}

// action wraps one state transition: it runs under the session lock and
// redirects back to the resource page on success.
func (h *Handler) action(do func(ctx context.Context, wf crud.Workflow, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource := mux.Vars(r)["resource"]
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		sid := h.sessionID(w, r)

		err := h.withWorkflow(r.Context(), sid, resource, func(ctx context.Context, wf crud.Workflow, restored bool) error {
			return do(ctx, wf, r)
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		target := url.URL{Path: "/" + resource, RawQuery: url.Values{
			"page": {strconv.Itoa(pageParam(r.PostForm.Get("page")))},
			"stay": {"1"},
		}.Encode()}
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	}
}

// applyDraft copies the editor form into the draft and saves it when the
// save button was used and every value was accepted.
func (h *Handler) applyDraft(ctx context.Context, wf crud.Workflow, r *http.Request) error {
	editor := wf.View(1).Editor
	if editor == nil {
		return fmt.Errorf("%w: no editor open", crud.ErrInvalidTransition)
	}
	values := make(map[string]string, len(editor.Fields))
	for _, f := range editor.Fields {
		if vs, ok := r.PostForm[f.Name]; ok && len(vs) > 0 {
			values[f.Name] = vs[0]
		}
	}
	var rejected []string
	if len(values) > 0 {
		var err error
		if rejected, err = wf.ApplyFields(values); err != nil {
			return err
		}
	}
	// A rejected value keeps the editor open so it can be corrected.
	if r.PostForm.Get("action") == "save" && len(rejected) == 0 {
		return wf.Save(ctx)
	}
	return nil
}

func (h *Handler) handleExaminations(w http.ResponseWriter, r *http.Request) {
	resource := clinicapi.Patients
	key := mux.Vars(r)["key"]
	sid := h.sessionID(w, r)
	page := pageParam(r.URL.Query().Get("page"))

	var (
		view  crud.View
		notes []models.Notification
	)
	err := h.withWorkflow(r.Context(), sid, resource, func(ctx context.Context, wf crud.Workflow, restored bool) error {
		if !restored {
			if err := wf.Load(ctx); err != nil {
				return err
			}
		}
		view = wf.View(page)
		notes = wf.TakeNotifications()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dialog := &examinationsDialog{Title: h.catalog.T("examinations.title", h.patientLabel(view, key)), Page: view.Page}
	rows, err := h.examinations.PatientExaminations(r.Context(), key)
	if err != nil {
		logger.Log.WithError(err).WithField("patient_id", key).Warn("examinations unavailable")
		metrics.ObserveErrorNotification()
		notes = append(notes, models.Notification{
			Severity: models.SeverityError,
			Summary:  h.catalog.T("notify.error"),
			Detail:   h.catalog.T("notify.examinations_failed", h.catalog.T("error."+clinicapi.Class(err))),
			Life:     models.NotificationLife,
		})
	} else {
		dialog.Rows = rows
	}
	h.render(w, http.StatusOK, pageData{Resource: resource, View: view, Notifications: notes, Examinations: dialog})
}

func (h *Handler) patientLabel(view crud.View, key string) string {
	for _, row := range view.Rows {
		if row.Key == key {
			return row.Label
		}
	}
	return "#" + key
}

// fail maps workflow and session errors onto HTTP responses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(status)
	switch {
	case errors.Is(err, crud.ErrBusy), errors.Is(err, session.ErrLocked):
		status, message = http.StatusConflict, h.catalog.T("notify.busy")
	case errors.Is(err, crud.ErrInvalidTransition):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, crud.ErrRowNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, crud.ErrNotSupported):
		status, message = http.StatusMethodNotAllowed, err.Error()
	case errors.Is(err, crud.ErrUnknownField), errors.Is(err, crud.ErrInvalidValue):
		status, message = http.StatusBadRequest, err.Error()
	}

	entry := logger.Log.WithFields(map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("console request failed")
	} else {
		entry.Info("console request rejected")
	}
	http.Error(w, message, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, check := range h.readyChecks {
		if err := check.Run(ctx); err != nil {
			failed[check.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.WritePrometheus(w)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Warn("failed to encode response")
	}
}
