package clinic

import (
	"fmt"

	"github.com/clinicdesk/admin-console/pkg/clinicapi"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/crud"
)

// MenuItem is one entry of the navigation bar.
type MenuItem struct {
	Resource string
	Label    string
}

// Menu lists the managed resources in navigation order.
var Menu = []MenuItem{
	{Resource: clinicapi.Doctors, Label: "menu.doctors"},
	{Resource: clinicapi.Patients, Label: "menu.patients"},
	{Resource: clinicapi.MedicalSpecialties, Label: "menu.specialties"},
}

// Registry builds fresh workflow controllers for the managed resources.
type Registry struct {
	doctors     *clinicapi.Resource[models.Doctor]
	patients    *clinicapi.Resource[models.Patient]
	specialties *clinicapi.Resource[models.MedicalSpecialty]
	opts        []crud.Option
}

func NewRegistry(client *clinicapi.Client, opts ...crud.Option) (*Registry, error) {
	r := &Registry{
		doctors:     clinicapi.NewResource[models.Doctor](client, clinicapi.Doctors),
		patients:    clinicapi.NewResource[models.Patient](client, clinicapi.Patients),
		specialties: clinicapi.NewResource[models.MedicalSpecialty](client, clinicapi.MedicalSpecialties),
		opts:        opts,
	}
	for _, err := range []error{
		Doctors(r.specialties).Validate(),
		Patients().Validate(),
		Specialties().Validate(),
	} {
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Workflow returns a new controller in its initial state for resource.
func (r *Registry) Workflow(resource string) (crud.Workflow, error) {
	switch resource {
	case clinicapi.Doctors:
		return crud.NewController(Doctors(r.specialties), r.doctors, r.opts...), nil
	case clinicapi.Patients:
		return crud.NewController(Patients(), r.patients, r.opts...), nil
	case clinicapi.MedicalSpecialties:
		return crud.NewController(Specialties(), r.specialties, r.opts...), nil
	default:
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
}
