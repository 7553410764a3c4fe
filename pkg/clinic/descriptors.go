// Package clinic declares the doctor, patient and specialty workflows on top
// of the generic crud controller.
package clinic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/admin-console/pkg/clinicapi"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/crud"
)

const dateLayout = "2006-01-02"

// SpecialtyLister supplies the specialization choices of the doctor editor.
type SpecialtyLister interface {
	List(ctx context.Context) ([]models.MedicalSpecialty, error)
}

func keyText(id *int) string {
	k, _ := models.Key(id)
	return k
}

// dateOnly shows the calendar date of an ISO-8601 timestamp.
func dateOnly(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout)
		}
	}
	return raw
}

// parseDate turns an editor date into the timestamp form the backend stores.
func parseDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", fmt.Errorf("date %q is not YYYY-MM-DD", value)
	}
	return t.UTC().Format(time.RFC3339), nil
}

func Doctors(specialties SpecialtyLister) crud.Descriptor[models.Doctor] {
	return crud.Descriptor[models.Doctor]{
		Resource: clinicapi.Doctors,
		Title:    "title.doctors",
		Noun:     "noun.doctor",
		KeyField: "doctorID",
		Key:      func(d models.Doctor) (string, bool) { return models.Key(d.DoctorID) },
		Describe: models.Doctor.FullName,
		Fields: []crud.Field[models.Doctor]{
			{
				Name: "doctorID", Label: "field.doctorID", Kind: crud.KindText, List: true,
				Get: func(d models.Doctor) string { return keyText(d.DoctorID) },
			},
			{
				Name: "firstName", Label: "field.firstName", Kind: crud.KindText, List: true, Edit: true,
				Get: func(d models.Doctor) string { return d.FirstName },
				Set: func(d *models.Doctor, v string) error { d.FirstName = v; return nil },
			},
			{
				Name: "lastName", Label: "field.lastName", Kind: crud.KindText, List: true, Edit: true,
				Get: func(d models.Doctor) string { return d.LastName },
				Set: func(d *models.Doctor, v string) error { d.LastName = v; return nil },
			},
			{
				Name: "specialization", Label: "field.specialization", Kind: crud.KindSelect, List: true, Edit: true,
				Get: func(d models.Doctor) string { return d.Specialization },
				Set: func(d *models.Doctor, v string) error { d.Specialization = v; return nil },
				Options: func(ctx context.Context) ([]string, error) {
					rows, err := specialties.List(ctx)
					if err != nil {
						return nil, err
					}
					names := make([]string, 0, len(rows))
					for _, s := range rows {
						names = append(names, s.SpecialtyName)
					}
					return names, nil
				},
			},
			{
				Name: "contactNumber", Label: "field.contactNumber", Kind: crud.KindText, List: true, Edit: true,
				Get: func(d models.Doctor) string { return d.ContactNumber },
				Set: func(d *models.Doctor, v string) error { d.ContactNumber = v; return nil },
			},
			{
				Name: "email", Label: "field.email", Kind: crud.KindEmail, List: true, Edit: true,
				Get: func(d models.Doctor) string { return d.Email },
				Set: func(d *models.Doctor, v string) error { d.Email = v; return nil },
			},
		},
		Deletable: true,
		PageSize:  5,
	}
}

// ActionExaminations is the extra row action of the patient table.
const ActionExaminations = "examinations"

func Patients() crud.Descriptor[models.Patient] {
	return crud.Descriptor[models.Patient]{
		Resource: clinicapi.Patients,
		Title:    "title.patients",
		Noun:     "noun.patient",
		KeyField: "patientID",
		Key:      func(p models.Patient) (string, bool) { return models.Key(p.PatientID) },
		Describe: models.Patient.FullName,
		Fields: []crud.Field[models.Patient]{
			{
				Name: "patientID", Label: "field.patientID", Kind: crud.KindText, List: true,
				Get: func(p models.Patient) string { return keyText(p.PatientID) },
			},
			{
				Name: "firstName", Label: "field.firstName", Kind: crud.KindText, List: true, Edit: true,
				Get: func(p models.Patient) string { return p.FirstName },
				Set: func(p *models.Patient, v string) error { p.FirstName = v; return nil },
			},
			{
				Name: "lastName", Label: "field.lastName", Kind: crud.KindText, List: true, Edit: true,
				Get: func(p models.Patient) string { return p.LastName },
				Set: func(p *models.Patient, v string) error { p.LastName = v; return nil },
			},
			{
				Name: "gender", Label: "field.gender", Kind: crud.KindText, List: true, Edit: true,
				Get: func(p models.Patient) string { return p.Gender },
				Set: func(p *models.Patient, v string) error { p.Gender = v; return nil },
			},
			{
				Name: "dateOfBirth", Label: "field.dateOfBirth", Kind: crud.KindDate, List: true, Edit: true,
				Get: func(p models.Patient) string { return dateOnly(p.DateOfBirth) },
				Set: func(p *models.Patient, v string) error {
					ts, err := parseDate(v)
					if err != nil {
						return err
					}
					p.DateOfBirth = ts
					return nil
				},
			},
			{
				Name: "contactNumber", Label: "field.contactNumber", Kind: crud.KindText, Edit: true,
				Get: func(p models.Patient) string { return p.ContactNumber },
				Set: func(p *models.Patient, v string) error { p.ContactNumber = v; return nil },
			},
			{
				Name: "address", Label: "field.address", Kind: crud.KindText, Edit: true,
				Get: func(p models.Patient) string { return p.Address },
				Set: func(p *models.Patient, v string) error { p.Address = v; return nil },
			},
		},
		Deletable:  true,
		PageSize:   10,
		RowActions: []string{ActionExaminations},
	}
}

func Specialties() crud.Descriptor[models.MedicalSpecialty] {
	return crud.Descriptor[models.MedicalSpecialty]{
		Resource: clinicapi.MedicalSpecialties,
		Title:    "title.specialties",
		Noun:     "noun.specialty",
		KeyField: "specialtyID",
		Key:      func(s models.MedicalSpecialty) (string, bool) { return models.Key(s.SpecialtyID) },
		Describe: func(s models.MedicalSpecialty) string { return s.SpecialtyName },
		Fields: []crud.Field[models.MedicalSpecialty]{
			{
				Name: "specialtyName", Label: "field.specialtyName", Kind: crud.KindText, List: true, Edit: true,
				Get: func(s models.MedicalSpecialty) string { return s.SpecialtyName },
				Set: func(s *models.MedicalSpecialty, v string) error { s.SpecialtyName = v; return nil },
			},
		},
		Deletable: false,
		PageSize:  10,
	}
}
