package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

type callKey struct {
	resource string
	method   string
	outcome  string
}

var (
	mu           sync.Mutex
	backendCalls = map[callKey]*atomic.Int64{}

	consoleActions     atomic.Int64
	consoleRejected    atomic.Int64
	notificationsError atomic.Int64
)

// ObserveBackendCall counts one call to the clinic API. outcome is "ok" or
// the failure class reported by the API client.
func ObserveBackendCall(resource, method, outcome string) {
	key := callKey{resource: resource, method: method, outcome: outcome}
	mu.Lock()
	counter, ok := backendCalls[key]
	if !ok {
		counter = &atomic.Int64{}
		backendCalls[key] = counter
	}
	mu.Unlock()
	counter.Add(1)
}

// ObserveAction counts a console action; rejected actions were refused by the
// workflow (busy or invalid transition) without reaching the backend.
func ObserveAction(rejected bool) {
	consoleActions.Add(1)
	if rejected {
		consoleRejected.Add(1)
	}
}

func ObserveErrorNotification() {
	notificationsError.Add(1)
}

// BackendCalls returns the current count for one series.
func BackendCalls(resource, method, outcome string) int64 {
	mu.Lock()
	defer mu.Unlock()
	if c, ok := backendCalls[callKey{resource: resource, method: method, outcome: outcome}]; ok {
		return c.Load()
	}
	return 0
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "# HELP clinic_console_backend_calls_total Calls issued to the clinic API by resource, method and outcome.\n")
	fmt.Fprintf(w, "# TYPE clinic_console_backend_calls_total counter\n")
	mu.Lock()
	keys := make([]callKey, 0, len(backendCalls))
	for k := range backendCalls {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].resource != keys[j].resource {
			return keys[i].resource < keys[j].resource
		}
		if keys[i].method != keys[j].method {
			return keys[i].method < keys[j].method
		}
		return keys[i].outcome < keys[j].outcome
	})
	for _, k := range keys {
		fmt.Fprintf(w, "clinic_console_backend_calls_total{resource=%q,method=%q,outcome=%q} %d\n",
			k.resource, k.method, k.outcome, backendCalls[k].Load())
	}
	mu.Unlock()

	fmt.Fprintf(w, "# HELP clinic_console_actions_total Console actions handled.\n")
	fmt.Fprintf(w, "# TYPE clinic_console_actions_total counter\n")
	fmt.Fprintf(w, "clinic_console_actions_total %d\n", consoleActions.Load())

	fmt.Fprintf(w, "# HELP clinic_console_actions_rejected_total Console actions refused while a request was pending or the dialog state did not allow them.\n")
	fmt.Fprintf(w, "# TYPE clinic_console_actions_rejected_total counter\n")
	fmt.Fprintf(w, "clinic_console_actions_rejected_total %d\n", consoleRejected.Load())

	fmt.Fprintf(w, "# HELP clinic_console_error_notifications_total Error notifications shown to users.\n")
	fmt.Fprintf(w, "# TYPE clinic_console_error_notifications_total counter\n")
	fmt.Fprintf(w, "clinic_console_error_notifications_total %d\n", notificationsError.Load())
}
