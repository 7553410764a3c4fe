package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicdesk/admin-console/pkg/clinicapi"
	"github.com/clinicdesk/admin-console/pkg/clinicstub"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/gateway/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*clinicstub.Server, *Service) {
	t.Helper()
	logger.Discard()
	stub := clinicstub.New()
	srv := httptest.NewServer(stub.Handler("/api"))
	t.Cleanup(srv.Close)

	client := clinicapi.New(srv.URL+"/api", httpclient.New(2*time.Second))
	svc := NewService(
		clinicapi.NewResource[models.Examination](client, clinicapi.Examinations),
		clinicapi.NewResource[models.Doctor](client, clinicapi.Doctors),
		4,
	)

	stub.Put(clinicapi.Doctors, map[string]interface{}{"doctorID": 1, "firstName": "Ivan", "lastName": "Petrov"})
	stub.Put(clinicapi.Doctors, map[string]interface{}{"doctorID": 2, "firstName": "Maria", "lastName": "Ivanova"})
	for _, exam := range []map[string]interface{}{
		{"patientID": 7, "doctorID": 2, "diagnosis": "first"},
		{"patientID": 8, "doctorID": 1, "diagnosis": "other patient"},
		{"patientID": 7, "doctorID": 1, "diagnosis": "second"},
		{"patientID": 7, "doctorID": 2, "diagnosis": "third"},
	} {
		stub.Put(clinicapi.Examinations, exam)
	}
	stub.ResetRequests()
	return stub, svc
}

func TestPatientExaminationsFiltersAndKeepsOrder(t *testing.T) {
	_, svc := newService(t)

	rows, err := svc.PatientExaminations(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var diagnoses, doctors []string
	for _, r := range rows {
		diagnoses = append(diagnoses, r.Diagnosis)
		doctors = append(doctors, r.DoctorName)
		require.NotNil(t, r.PatientID)
		assert.Equal(t, 7, *r.PatientID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, diagnoses)
	assert.Equal(t, []string{"Maria Ivanova", "Ivan Petrov", "Maria Ivanova"}, doctors)
}

func TestDistinctDoctorsFetchedOnce(t *testing.T) {
	stub, svc := newService(t)

	_, err := svc.PatientExaminations(context.Background(), "7")
	require.NoError(t, err)

	counts := map[string]int{}
	for _, r := range stub.Requests() {
		counts[r.Method+" "+r.Path]++
	}
	assert.Equal(t, map[string]int{
		"GET /api/examinations": 1,
		"GET /api/doctors/1":    1,
		"GET /api/doctors/2":    1,
	}, counts)
}

func TestUnknownPatientYieldsEmptyList(t *testing.T) {
	stub, svc := newService(t)

	rows, err := svc.PatientExaminations(context.Background(), "99")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Len(t, stub.Requests(), 1)
}

func TestFailedDoctorLookupFailsWholeRequest(t *testing.T) {
	stub, svc := newService(t)
	stub.FailNext(http.MethodGet, clinicapi.Doctors, http.StatusServiceUnavailable)

	rows, err := svc.PatientExaminations(context.Background(), "7")
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.ErrorIs(t, err, clinicapi.ErrUnavailable)
	assert.Contains(t, err.Error(), "doctor ")
}

func TestDeletedDoctorIsNotFound(t *testing.T) {
	stub, svc := newService(t)
	stub.Put(clinicapi.Examinations, map[string]interface{}{"patientID": 7, "doctorID": 42})

	_, err := svc.PatientExaminations(context.Background(), "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, clinicapi.ErrNotFound)
	assert.Contains(t, err.Error(), "doctor 42")
}

func TestExaminationListFailure(t *testing.T) {
	stub, svc := newService(t)
	stub.FailNext(http.MethodGet, clinicapi.Examinations, http.StatusInternalServerError)

	_, err := svc.PatientExaminations(context.Background(), "7")
	assert.ErrorIs(t, err, clinicapi.ErrUnavailable)
}

func TestMissingDoctorReference(t *testing.T) {
	stub, svc := newService(t)
	stub.Put(clinicapi.Examinations, map[string]interface{}{"patientID": 9})

	_, err := svc.PatientExaminations(context.Background(), "9")
	assert.ErrorIs(t, err, ErrMissingDoctor)
}
