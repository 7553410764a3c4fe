package clinicstub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsDeterministic(t *testing.T) {
	counts := SeedCounts{Doctors: 3, Patients: 4, Examinations: 6}
	a, b := New(), New()
	a.Seed(7, counts)
	b.Seed(7, counts)

	assert.Equal(t, len(specialtyNames), a.Count("medicalSpecialties"))
	assert.Equal(t, 3, a.Count("doctors"))
	assert.Equal(t, 4, a.Count("patients"))
	assert.Equal(t, 6, a.Count("examinations"))

	for id := 1; id <= 3; id++ {
		ra, _ := a.Row("doctors", id)
		rb, _ := b.Row("doctors", id)
		assert.Equal(t, ra, rb)
	}
}

func TestEnvelopeAndFaults(t *testing.T) {
	s := New()
	s.Put("doctors", map[string]interface{}{"firstName": "Ivan"})
	srv := httptest.NewServer(s.Handler("/api"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/doctors")
	require.NoError(t, err)
	var envelope map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	resp.Body.Close()
	assert.Contains(t, envelope, "$values")

	s.FailNext(http.MethodGet, "doctors", http.StatusBadGateway)
	resp, err = http.Get(srv.URL + "/api/doctors")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	s.UseBareArrays(true)
	resp, err = http.Get(srv.URL + "/api/doctors")
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	resp.Body.Close()
	require.Len(t, rows, 1)
	assert.Equal(t, float64(1), rows[0]["doctorID"])
}

func TestCreateRejectsKey(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s.Handler("/api"))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/patients", "application/json", strings.NewReader(`{"patientID":3}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/patients", "application/json", strings.NewReader(`null`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, s.Count("patients"))
}
