package clinicstub

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

var specialtyNames = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Neurology",
	"Orthopedics",
	"Pediatrics",
}

var diagnoses = []string{
	"Hypertension",
	"Acute bronchitis",
	"Migraine",
	"Type 2 diabetes",
	"Lower back pain",
	"Seasonal allergy",
}

var prescriptions = []string{
	"Rest and fluids",
	"Ibuprofen 400mg twice daily",
	"Metformin 500mg daily",
	"Follow-up in two weeks",
	"Physiotherapy, 10 sessions",
}

// SeedCounts controls how many fake rows Seed creates.
type SeedCounts struct {
	Doctors      int
	Patients     int
	Examinations int
}

// Seed fills the stub with deterministic fake data for local runs.
func (s *Server) Seed(seed uint64, counts SeedCounts) {
	faker := gofakeit.New(seed)

	for _, name := range specialtyNames {
		s.Put("medicalSpecialties", map[string]interface{}{"specialtyName": name})
	}

	doctorIDs := make([]int, 0, counts.Doctors)
	for i := 0; i < counts.Doctors; i++ {
		doctorIDs = append(doctorIDs, s.Put("doctors", map[string]interface{}{
			"firstName":      faker.FirstName(),
			"lastName":       faker.LastName(),
			"contactNumber":  faker.Phone(),
			"email":          faker.Email(),
			"specialization": faker.RandomString(specialtyNames),
		}))
	}

	patientIDs := make([]int, 0, counts.Patients)
	for i := 0; i < counts.Patients; i++ {
		dob := faker.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC))
		patientIDs = append(patientIDs, s.Put("patients", map[string]interface{}{
			"firstName":     faker.FirstName(),
			"lastName":      faker.LastName(),
			"gender":        faker.Gender(),
			"dateOfBirth":   dob.UTC().Format(time.RFC3339),
			"contactNumber": faker.Phone(),
			"address":       faker.Street() + ", " + faker.City(),
		}))
	}

	if len(doctorIDs) == 0 || len(patientIDs) == 0 {
		return
	}
	for i := 0; i < counts.Examinations; i++ {
		when := faker.DateRange(time.Now().AddDate(-2, 0, 0), time.Now())
		s.Put("examinations", map[string]interface{}{
			"patientID":       patientIDs[faker.Number(0, len(patientIDs)-1)],
			"doctorID":        doctorIDs[faker.Number(0, len(doctorIDs)-1)],
			"examinationDate": when.UTC().Format(time.RFC3339),
			"diagnosis":       faker.RandomString(diagnoses),
			"prescription":    faker.RandomString(prescriptions),
		})
	}
}
