// Package enrichment joins a patient's examinations with the names of the
// doctors who performed them.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"golang.org/x/sync/errgroup"
)

var ErrMissingDoctor = errors.New("examination has no doctor reference")

type ExaminationLister interface {
	List(ctx context.Context) ([]models.Examination, error)
}

type DoctorGetter interface {
	Get(ctx context.Context, key string) (models.Doctor, error)
}

// Service builds the examination history shown for one patient.
type Service struct {
	examinations ExaminationLister
	doctors      DoctorGetter
	concurrency  int
}

func NewService(examinations ExaminationLister, doctors DoctorGetter, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{examinations: examinations, doctors: doctors, concurrency: concurrency}
}

// PatientExaminations returns the examinations of patientKey in source order,
// each carrying its doctor's full name. Every distinct doctor is looked up
// once. If any lookup fails the whole call fails and no rows are returned.
func (s *Service) PatientExaminations(ctx context.Context, patientKey string) ([]models.EnrichedExamination, error) {
	all, err := s.examinations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list examinations: %w", err)
	}

	var rows []models.Examination
	for _, exam := range all {
		if key, ok := models.Key(exam.PatientID); ok && key == patientKey {
			rows = append(rows, exam)
		}
	}

	var doctorKeys []string
	seen := make(map[string]bool)
	for _, exam := range rows {
		key, ok := models.Key(exam.DoctorID)
		if !ok {
			examKey, _ := models.Key(exam.ExaminationID)
			return nil, fmt.Errorf("examination %s: %w", examKey, ErrMissingDoctor)
		}
		if !seen[key] {
			seen[key] = true
			doctorKeys = append(doctorKeys, key)
		}
	}

	names, err := s.doctorNames(ctx, doctorKeys)
	if err != nil {
		return nil, err
	}

	out := make([]models.EnrichedExamination, 0, len(rows))
	for _, exam := range rows {
		key, _ := models.Key(exam.DoctorID)
		out = append(out, models.EnrichedExamination{Examination: exam, DoctorName: names[key]})
	}

	logger.Log.WithFields(map[string]interface{}{
		"patient_id":   patientKey,
		"examinations": len(out),
		"doctors":      len(doctorKeys),
	}).Debug("examinations enriched")
	return out, nil
}

func (s *Service) doctorNames(ctx context.Context, keys []string) (map[string]string, error) {
	var mu sync.Mutex
	names := make(map[string]string, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			doctor, err := s.doctors.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("doctor %s: %w", key, err)
			}
			mu.Lock()
			names[key] = doctor.FullName()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}
