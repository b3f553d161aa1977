package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type instituteRepository interface {
	instituteOwnerReader
	FindByID(ctx context.Context, id string) (*models.Institute, error)
	Upsert(ctx context.Context, inst *models.Institute) error
	Search(ctx context.Context, filter models.InstituteFilter) ([]models.Institute, error)
	OwnerContactsForParent(ctx context.Context, parentID string) ([]models.OwnerContact, error)
}

type imageStore interface {
	SaveImages(ctx context.Context, files []UploadedFile) ([]string, error)
}

// InstituteProfileRequest is the owner's institute form. Images arrive as separate multipart files.
type InstituteProfileRequest struct {
	Name          string  `form:"name" json:"name" validate:"required,max=200"`
	Address       string  `form:"address" json:"address" validate:"required"`
	SportsOffered string  `form:"sportsOffered" json:"sportsOffered" validate:"required"`
	Facilities    string  `form:"facilities" json:"facilities"`
	Staff         *string `form:"staff" json:"staff"`
	EstdDate      string  `form:"estdDate" json:"estdDate"`
	Rewards       *string `form:"rewards" json:"rewards"`
	Branches      *string `form:"branches" json:"branches"`
	TotalStaff    *int    `form:"totalStaff" json:"totalStaff" validate:"omitempty,gte=0"`
	ContactNumber string  `form:"contactNumber" json:"contactNumber" validate:"required,max=30"`
}

// InstituteService manages owner institutes and the parent-facing catalogue.
type InstituteService struct {
	repo      instituteRepository
	programs  *ProgramService
	images    imageStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstituteService constructs InstituteService.
func NewInstituteService(repo instituteRepository, programs *ProgramService, images imageStore, validate *validator.Validate, logger *zap.Logger) *InstituteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstituteService{repo: repo, programs: programs, images: images, validator: validate, logger: logger}
}

// Profile returns the owner's institute.
func (s *InstituteService) Profile(ctx context.Context, ownerID string) (*models.Institute, error) {
	return ownerInstitute(ctx, s.repo, ownerID)
}

// SaveProfile creates or updates the owner's institute. New images replace the stored ones;
// no images keeps them.
func (s *InstituteService) SaveProfile(ctx context.Context, ownerID string, req InstituteProfileRequest, images []UploadedFile) (*models.Institute, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institute payload")
	}
	var estd *time.Time
	if strings.TrimSpace(req.EstdDate) != "" {
		parsed, err := parseTimestamp(req.EstdDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid establishment date")
		}
		estd = &parsed
	}

	var urls []string
	if len(images) > 0 {
		if s.images == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "image uploads are disabled")
		}
		saved, err := s.images.SaveImages(ctx, images)
		if err != nil {
			return nil, err
		}
		urls = saved
	}

	inst := &models.Institute{
		OwnerID:       ownerID,
		Name:          strings.TrimSpace(req.Name),
		Address:       strings.TrimSpace(req.Address),
		SportsOffered: strings.TrimSpace(req.SportsOffered),
		Facilities:    req.Facilities,
		Staff:         req.Staff,
		EstdDate:      estd,
		Rewards:       req.Rewards,
		Branches:      req.Branches,
		TotalStaff:    req.TotalStaff,
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		Images:        urls,
	}
	if err := s.repo.Upsert(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save institute")
	}
	s.logger.Info("institute profile saved", zap.String("institute_id", inst.ID), zap.Int("new_images", len(urls)))
	return inst, nil
}

// Search lists institutes whose address and sports contain the filters, case-insensitively.
func (s *InstituteService) Search(ctx context.Context, filter models.InstituteFilter) ([]models.Institute, error) {
	institutes, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search institutes")
	}
	if institutes == nil {
		institutes = []models.Institute{}
	}
	return institutes, nil
}

// Programs lists the programs of one institute for parents.
func (s *InstituteService) Programs(ctx context.Context, instituteID string) ([]models.ProgramDetail, error) {
	if _, err := s.repo.FindByID(ctx, instituteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute")
	}
	return s.programs.ListByInstitute(ctx, instituteID)
}

// OwnerContacts lists the owners a parent can reach: those of institutes the parent has enrolled with.
func (s *InstituteService) OwnerContacts(ctx context.Context, parentID string) ([]models.OwnerContact, error) {
	contacts, err := s.repo.OwnerContactsForParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load owner contacts")
	}
	if contacts == nil {
		contacts = []models.OwnerContact{}
	}
	return contacts, nil
}
