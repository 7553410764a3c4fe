package crud

import (
	"context"

	"github.com/clinicdesk/admin-console/pkg/common/models"
)

// Workflow is a Controller with its record type erased, so handlers can drive
// any resource the same way.
type Workflow interface {
	Resource() string
	Load(ctx context.Context) error
	New() error
	Edit(key string) error
	SetFields(values map[string]string) error
	ApplyFields(values map[string]string) ([]string, error)
	Save(ctx context.Context) error
	Cancel() error
	RequestDelete(key string) error
	ConfirmDelete(ctx context.Context) error
	CancelDelete() error
	View(page int) View
	TakeNotifications() []models.Notification
	MarshalState() ([]byte, error)
	UnmarshalState(data []byte) error
}

var _ Workflow = (*Controller[models.Doctor])(nil)
