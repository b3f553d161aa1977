package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/storage"
)

type materialRepoStub struct {
	items     map[string]*models.TrainingMaterial
	createErr error
}

func newMaterialRepoStub() *materialRepoStub {
	return &materialRepoStub{items: map[string]*models.TrainingMaterial{}}
}

func (r *materialRepoStub) Create(ctx context.Context, material *models.TrainingMaterial) error {
	if r.createErr != nil {
		return r.createErr
	}
	cp := *material
	r.items[material.ID] = &cp
	return nil
}

func (r *materialRepoStub) FindByID(ctx context.Context, id string) (*models.TrainingMaterial, error) {
	m, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (r *materialRepoStub) ListByProgram(ctx context.Context, programID string) ([]models.TrainingMaterial, error) {
	var out []models.TrainingMaterial
	for _, m := range r.items {
		if m.ProgramID == programID {
			out = append(out, *m)
		}
	}
	return out, nil
}

type parentProgramEnrollmentStub map[string]*models.Enrollment

func (p parentProgramEnrollmentStub) FindLatestForParentProgram(ctx context.Context, parentID, programID string) (*models.Enrollment, error) {
	e, ok := p[parentID+"|"+programID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

type materialFixture struct {
	svc     *MaterialService
	repo    *materialRepoStub
	backend *memoryBackend
}

func newMaterialFixture() materialFixture {
	repo := newMaterialRepoStub()
	backend := newMemoryBackend()
	enrollments := parentProgramEnrollmentStub{
		"parent-1|program-1": {ID: "enr-1", PaymentStatus: models.PaymentStatusCompleted},
		"parent-2|program-1": {ID: "enr-2", PaymentStatus: models.PaymentStatusPending},
	}
	signer := storage.NewSignedURLSigner("material-secret", time.Hour)
	svc := NewMaterialService(repo, defaultCoaches(), defaultAssignments(), enrollments, backend, signer, MaterialServiceConfig{MaxFileSize: 1024}, nil, nil)
	return materialFixture{svc: svc, repo: repo, backend: backend}
}

func TestMaterialServiceUploadAndDownload(t *testing.T) {
	f := newMaterialFixture()

	material, err := f.svc.Upload(context.Background(), "coach-user-1", UploadMaterialRequest{ProgramID: "program-1", Title: "Week 1 drills"}, UploadedFile{Filename: "w1.pdf", Data: pdfBytes})
	require.NoError(t, err)
	assert.Equal(t, "coach-1", material.CoachID)
	assert.Equal(t, int64(len(pdfBytes)), material.SizeBytes)
	assert.True(t, strings.HasPrefix(material.FileURL, "/api/v1/materials/download/"))
	assert.Equal(t, pdfBytes, f.backend.objects[material.StorageKey])

	token := strings.TrimPrefix(material.FileURL, "/api/v1/materials/download/")
	download, err := f.svc.Download(context.Background(), token)
	require.NoError(t, err)
	defer download.Body.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
	assert.Equal(t, "Week_1_drills.pdf", download.Filename)
	body, _ := io.ReadAll(download.Body)
	assert.Equal(t, pdfBytes, body)

	_, err = f.svc.Download(context.Background(), token+"x")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestMaterialServiceUploadRejections(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		req    UploadMaterialRequest
		file   UploadedFile
		want   *appErrors.Error
	}{
		{"not a pdf", "coach-user-1", UploadMaterialRequest{ProgramID: "program-1", Title: "T"}, UploadedFile{Data: pngBytes}, appErrors.ErrValidation},
		{"too large", "coach-user-1", UploadMaterialRequest{ProgramID: "program-1", Title: "T"}, UploadedFile{Data: append(append([]byte{}, pdfBytes...), make([]byte, 2048)...)}, appErrors.ErrValidation},
		{"missing file", "coach-user-1", UploadMaterialRequest{ProgramID: "program-1", Title: "T"}, UploadedFile{}, appErrors.ErrValidation},
		{"missing title", "coach-user-1", UploadMaterialRequest{ProgramID: "program-1"}, UploadedFile{Data: pdfBytes}, appErrors.ErrValidation},
		{"unassigned program", "coach-user-2", UploadMaterialRequest{ProgramID: "program-1", Title: "T"}, UploadedFile{Data: pdfBytes}, appErrors.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newMaterialFixture()
			_, err := f.svc.Upload(context.Background(), tc.userID, tc.req, tc.file)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Empty(t, f.backend.objects)
			assert.Empty(t, f.repo.items)
		})
	}
}

func TestMaterialServiceUploadCleansUpWhenMetadataFails(t *testing.T) {
	f := newMaterialFixture()
	f.repo.createErr = errors.New("db down")
	_, err := f.svc.Upload(context.Background(), "coach-user-1", UploadMaterialRequest{ProgramID: "program-1", Title: "T"}, UploadedFile{Data: pdfBytes})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Empty(t, f.backend.objects)
}

func TestMaterialServiceListForParent(t *testing.T) {
	f := newMaterialFixture()
	_, err := f.svc.Upload(context.Background(), "coach-user-1", UploadMaterialRequest{ProgramID: "program-1", Title: "T"}, UploadedFile{Data: pdfBytes})
	require.NoError(t, err)

	paid, err := f.svc.ListForParent(context.Background(), "parent-1", "program-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, paid.PaymentStatus)
	require.Len(t, paid.Materials, 1)
	assert.NotEmpty(t, paid.Materials[0].FileURL)

	unpaid, err := f.svc.ListForParent(context.Background(), "parent-2", "program-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, unpaid.PaymentStatus)
	require.Len(t, unpaid.Materials, 1)
	assert.Empty(t, unpaid.Materials[0].FileURL)

	_, err = f.svc.ListForParent(context.Background(), "parent-3", "program-1")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}
