package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/storage"
)

const materialMIME = "application/pdf"

type materialRepository interface {
	Create(ctx context.Context, material *models.TrainingMaterial) error
	FindByID(ctx context.Context, id string) (*models.TrainingMaterial, error)
	ListByProgram(ctx context.Context, programID string) ([]models.TrainingMaterial, error)
}

type parentProgramEnrollment interface {
	FindLatestForParentProgram(ctx context.Context, parentID, programID string) (*models.Enrollment, error)
}

type urlSigner interface {
	Sign(ownerID, key string) (string, time.Time, error)
	Verify(token string) (storage.SignedObject, error)
}

// UploadMaterialRequest is the form part of a material upload.
type UploadMaterialRequest struct {
	ProgramID string `form:"programId" validate:"required"`
	Title     string `form:"title" validate:"required,max=200"`
}

// ParentMaterials is what a parent sees for one program.
type ParentMaterials struct {
	Materials     []models.TrainingMaterial `json:"materials"`
	PaymentStatus models.PaymentStatus      `json:"paymentStatus"`
}

// MaterialServiceConfig holds upload limits and the download route prefix.
type MaterialServiceConfig struct {
	MaxFileSize  int64
	DownloadPath string
}

// MaterialService stores coach PDFs and hands out signed download links.
type MaterialService struct {
	repo        materialRepository
	access      coachAccess
	enrollments parentProgramEnrollment
	backend     storage.Backend
	signer      urlSigner
	cfg         MaterialServiceConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(repo materialRepository, coaches coachLookup, assignments assignmentChecker, enrollments parentProgramEnrollment, backend storage.Backend, signer urlSigner, cfg MaterialServiceConfig, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/materials/download"
	}
	cfg.DownloadPath = strings.TrimRight(cfg.DownloadPath, "/")
	return &MaterialService{
		repo:        repo,
		access:      coachAccess{coaches: coaches, assignments: assignments},
		enrollments: enrollments,
		backend:     backend,
		signer:      signer,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
	}
}

// Upload stores a PDF for a program the coach is assigned to.
func (s *MaterialService) Upload(ctx context.Context, coachUserID string, req UploadMaterialRequest, file UploadedFile) (*models.TrainingMaterial, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if len(file.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if int64(len(file.Data)) > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	if mt := mimetype.Detect(file.Data); !mt.Is(materialMIME) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only PDF files are allowed")
	}

	coach, err := s.access.activeCoach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireAssigned(ctx, coach, req.ProgramID); err != nil {
		return nil, err
	}

	material := &models.TrainingMaterial{
		ID:        uuid.NewString(),
		ProgramID: req.ProgramID,
		CoachID:   coach.ID,
		Title:     req.Title,
		SizeBytes: int64(len(file.Data)),
	}
	material.StorageKey = path.Join("materials", req.ProgramID, material.ID+".pdf")
	if err := s.backend.Put(ctx, material.StorageKey, file.Data, materialMIME); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store file")
	}
	if err := s.repo.Create(ctx, material); err != nil {
		if delErr := s.backend.Delete(ctx, material.StorageKey); delErr != nil {
			s.logger.Warn("orphaned material file", zap.String("key", material.StorageKey), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save material")
	}
	s.sign(material)
	s.logger.Info("training material uploaded", zap.String("material_id", material.ID), zap.String("program_id", material.ProgramID))
	return material, nil
}

// ListForParent returns a program's materials to a parent with an enrollment in it.
// Download links are only issued once the enrollment is paid.
func (s *MaterialService) ListForParent(ctx context.Context, parentID, programID string) (*ParentMaterials, error) {
	enrollment, err := s.enrollments.FindLatestForParentProgram(ctx, parentID, programID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no enrollment found for this program")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	materials, err := s.listByProgram(ctx, programID, enrollment.PaymentStatus == models.PaymentStatusCompleted)
	if err != nil {
		return nil, err
	}
	return &ParentMaterials{Materials: materials, PaymentStatus: enrollment.PaymentStatus}, nil
}

// ListByPrograms returns signed materials of several programs, grouped in program order.
func (s *MaterialService) ListByPrograms(ctx context.Context, programIDs []string) ([]models.TrainingMaterial, error) {
	out := []models.TrainingMaterial{}
	for _, id := range programIDs {
		materials, err := s.listByProgram(ctx, id, true)
		if err != nil {
			return nil, err
		}
		out = append(out, materials...)
	}
	return out, nil
}

// Download opens the file a valid token points at.
func (s *MaterialService) Download(ctx context.Context, token string) (*MediaDownload, error) {
	obj, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	material, err := s.repo.FindByID(ctx, obj.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.StorageKey != obj.Key {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	body, err := s.backend.Open(ctx, material.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to open file")
	}
	return &MediaDownload{Body: body, ContentType: materialMIME, Filename: downloadName(material.Title)}, nil
}

func (s *MaterialService) listByProgram(ctx context.Context, programID string, withLinks bool) ([]models.TrainingMaterial, error) {
	materials, err := s.repo.ListByProgram(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	if materials == nil {
		materials = []models.TrainingMaterial{}
	}
	if withLinks {
		for i := range materials {
			s.sign(&materials[i])
		}
	}
	return materials, nil
}

func (s *MaterialService) sign(material *models.TrainingMaterial) {
	token, _, err := s.signer.Sign(material.ID, material.StorageKey)
	if err != nil {
		s.logger.Error("material link not signed", zap.String("material_id", material.ID), zap.Error(err))
		return
	}
	material.FileURL = s.cfg.DownloadPath + "/" + token
}

func downloadName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, title)
	if name == "" {
		name = "material"
	}
	return name + ".pdf"
}
