package console

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/clinicdesk/admin-console/pkg/catalog"
	"github.com/clinicdesk/admin-console/pkg/clinic"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/crud"
)

//go:embed templates/*.html
var templateFS embed.FS

type menuLink struct {
	Path   string
	Label  string
	Active bool
}

type examinationsDialog struct {
	Title string
	Page  int
	Rows  []models.EnrichedExamination
}

type pageData struct {
	Resource      string
	Locale        string
	Menu          []menuLink
	View          crud.View
	Notifications []models.Notification
	Examinations  *examinationsDialog
}

func parseTemplates(cat *catalog.Catalog) (*template.Template, error) {
	funcs := template.FuncMap{
		"t":    cat.T,
		"add":  func(a, b int) int { return a + b },
		"sub":  func(a, b int) int { return a - b },
		"date": dateOnly,
		"keyOf": func(id *int) string {
			k, _ := models.Key(id)
			return k
		},
	}
	return template.New("page").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

func dateOnly(raw string) string {
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}

func (h *Handler) menu(active string) []menuLink {
	links := make([]menuLink, 0, len(clinic.Menu))
	for _, item := range clinic.Menu {
		links = append(links, menuLink{
			Path:   "/" + item.Resource,
			Label:  h.catalog.T(item.Label),
			Active: item.Resource == active,
		})
	}
	return links
}

// render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	data.Locale = h.catalog.Locale()
	data.Menu = h.menu(data.Resource)

	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logger.Log.WithError(err).WithField("resource", data.Resource).Error("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
