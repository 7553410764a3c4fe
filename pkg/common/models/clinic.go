package models

import (
	"strconv"
	"strings"
	"time"
)

// Clinic backend records. JSON tags are the only place the wire names live;
// field descriptors refer to fields by these names.

type Doctor struct {
	DoctorID       *int   `json:"doctorID,omitempty"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ContactNumber  string `json:"contactNumber"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
}

func (d Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type Patient struct {
	PatientID     *int   `json:"patientID,omitempty"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Gender        string `json:"gender"`
	DateOfBirth   string `json:"dateOfBirth"` // ISO-8601 timestamp
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
}

func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type MedicalSpecialty struct {
	SpecialtyID   *int   `json:"specialtyID,omitempty"`
	SpecialtyName string `json:"specialtyName"`
}

type Examination struct {
	ExaminationID   *int   `json:"examinationID,omitempty"`
	PatientID       *int   `json:"patientID,omitempty"`
	DoctorID        *int   `json:"doctorID,omitempty"`
	ExaminationDate string `json:"examinationDate"`
	Diagnosis       string `json:"diagnosis"`
	Prescription    string `json:"prescription"`
}

// EnrichedExamination is an examination joined with the examining doctor's name.
type EnrichedExamination struct {
	Examination
	DoctorName string `json:"doctorName"`
}

// Key renders a record key for use in a URL path. ok is false for records
// that have not been persisted yet.
func Key(id *int) (key string, ok bool) {
	if id == nil {
		return "", false
	}
	return strconv.Itoa(*id), true
}

// ParseKey is the inverse of Key.
func ParseKey(raw string) (*int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func IntPtr(v int) *int { return &v }

// Notification is a transient message shown to the console user after an action.
type Notification struct {
	Severity string        `json:"severity"` // success, error
	Summary  string        `json:"summary"`
	Detail   string        `json:"detail"`
	Life     time.Duration `json:"life"`
}

const (
	SeveritySuccess = "success"
	SeverityError   = "error"

	NotificationLife = 3000 * time.Millisecond
)

// Audit event types published after successful mutations.
const (
	EventRecordCreated = "clinic.record.created"
	EventRecordUpdated = "clinic.record.updated"
	EventRecordDeleted = "clinic.record.deleted"
)
