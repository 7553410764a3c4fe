package clinicapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicdesk/admin-console/pkg/clinicstub"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/gateway/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubClient(t *testing.T) (*clinicstub.Server, *Client) {
	t.Helper()
	logger.Discard()
	stub := clinicstub.New()
	srv := httptest.NewServer(stub.Handler("/api"))
	t.Cleanup(srv.Close)
	return stub, New(srv.URL+"/api", httpclient.New(2*time.Second))
}

func TestListUnwrapsEnvelope(t *testing.T) {
	stub, client := newStubClient(t)
	stub.Put(Doctors, map[string]interface{}{"firstName": "Ivan", "lastName": "Petrov"})
	stub.Put(Doctors, map[string]interface{}{"firstName": "Maria", "lastName": "Ivanova"})

	doctors, err := NewResource[models.Doctor](client, Doctors).List(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "Ivan", doctors[0].FirstName)
	require.NotNil(t, doctors[1].DoctorID)
	assert.Equal(t, 2, *doctors[1].DoctorID)
}

func TestListAcceptsBareArray(t *testing.T) {
	stub, client := newStubClient(t)
	stub.UseBareArrays(true)
	stub.Put(MedicalSpecialties, map[string]interface{}{"specialtyName": "Cardiology"})

	specialties, err := NewResource[models.MedicalSpecialty](client, MedicalSpecialties).List(context.Background())
	require.NoError(t, err)
	require.Len(t, specialties, 1)
	assert.Equal(t, "Cardiology", specialties[0].SpecialtyName)
}

func TestListRejectsUnexpectedShapes(t *testing.T) {
	cases := map[string]string{
		"object without envelope": `{"items":[]}`,
		"envelope not an array":   `{"$values":{"a":1}}`,
		"scalar":                  `42`,
		"empty body":              ``,
		"broken json":             `[{"doctorID":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewResource[models.Doctor](New(srv.URL, nil), Doctors).List(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, "malformed", Class(err))
		})
	}
}

func TestCreateOmitsKeyAndReturnsAssignedKey(t *testing.T) {
	stub, client := newStubClient(t)

	created, err := NewResource[models.MedicalSpecialty](client, MedicalSpecialties).
		Create(context.Background(), models.MedicalSpecialty{SpecialtyName: "Cardiology"})
	require.NoError(t, err)
	require.NotNil(t, created.SpecialtyID)

	reqs := stub.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/medicalSpecialties", reqs[0].Path)
	assert.NotContains(t, reqs[0].Body, "specialtyID")
}

func TestUpdateSendsFullRecordToKeyedEndpoint(t *testing.T) {
	stub, client := newStubClient(t)
	id := stub.Put(Doctors, map[string]interface{}{"firstName": "Ivan", "lastName": "Petrov", "contactNumber": "111"})

	doctor := models.Doctor{DoctorID: models.IntPtr(id), FirstName: "Ivan", LastName: "Petrov", ContactNumber: "222"}
	updated, err := NewResource[models.Doctor](client, Doctors).Update(context.Background(), "1", doctor)
	require.NoError(t, err)
	assert.Equal(t, doctor, updated)

	reqs := stub.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/api/doctors/1", reqs[0].Path)
	assert.Equal(t, "222", reqs[0].Body["contactNumber"])
	assert.Equal(t, "Petrov", reqs[0].Body["lastName"])

	row, ok := stub.Row(Doctors, id)
	require.True(t, ok)
	assert.Equal(t, "222", row["contactNumber"])
}

func TestRemoveAndGet(t *testing.T) {
	stub, client := newStubClient(t)
	stub.Put(Patients, map[string]interface{}{"patientID": 5, "firstName": "Elena"})
	patients := NewResource[models.Patient](client, Patients)

	p, err := patients.Get(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "Elena", p.FirstName)

	require.NoError(t, patients.Remove(context.Background(), "5"))
	assert.Equal(t, 0, stub.Count(Patients))

	_, err = patients.Get(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
		class  string
	}{
		{http.StatusNotFound, ErrNotFound, "not_found"},
		{http.StatusConflict, ErrConflict, "conflict"},
		{http.StatusBadRequest, ErrValidation, "validation"},
		{http.StatusUnprocessableEntity, ErrValidation, "validation"},
		{http.StatusServiceUnavailable, ErrUnavailable, "unavailable"},
		{http.StatusInternalServerError, ErrUnavailable, "unavailable"},
		{http.StatusForbidden, ErrRequestFailed, "failed"},
	}

	for _, tc := range cases {
		stub, client := newStubClient(t)
		stub.FailNext(http.MethodPut, Doctors, tc.status)

		_, err := NewResource[models.Doctor](client, Doctors).Update(context.Background(), "1", models.Doctor{DoctorID: models.IntPtr(1)})
		require.Error(t, err)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		assert.Equal(t, tc.class, Class(err))

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, tc.status, apiErr.Status)
		assert.Equal(t, "update", apiErr.Op)
		assert.Contains(t, apiErr.Error(), "doctors/1")
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewResource[models.Doctor](New(url, httpclient.New(time.Second)), Doctors).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewResource[models.Doctor](New(srv.URL, httpclient.New(50*time.Millisecond)), Doctors).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
