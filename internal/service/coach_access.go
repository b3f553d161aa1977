package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type coachLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.Coach, error)
}

type assignmentChecker interface {
	IsCoachAssigned(ctx context.Context, programID, coachID string) (bool, error)
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

// coachAccess resolves the coach behind a user and checks program assignments.
type coachAccess struct {
	coaches     coachLookup
	assignments assignmentChecker
	enrollments enrollmentReader
}

func (a coachAccess) coach(ctx context.Context, userID string) (*models.Coach, error) {
	coach, err := a.coaches.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coach not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coach")
	}
	return coach, nil
}

// activeCoach is coach for write paths; deactivated coaches are refused.
func (a coachAccess) activeCoach(ctx context.Context, userID string) (*models.Coach, error) {
	coach, err := a.coach(ctx, userID)
	if err != nil {
		return nil, err
	}
	if coach.Status == models.CoachStatusInactive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "coach account is inactive")
	}
	return coach, nil
}

func (a coachAccess) requireAssigned(ctx context.Context, coach *models.Coach, programID string) error {
	ok, err := a.assignments.IsCoachAssigned(ctx, programID, coach.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program assignment")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "program is not assigned to this coach")
	}
	return nil
}

// enrollment loads an enrollment in one of the coach's programs.
func (a coachAccess) enrollment(ctx context.Context, coach *models.Coach, enrollmentID string) (*models.Enrollment, error) {
	enrollment, err := a.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := a.requireAssigned(ctx, coach, enrollment.ProgramID); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// parentEnrollment loads an enrollment and checks that parentID owns it.
func parentEnrollment(ctx context.Context, enrollments enrollmentReader, parentID, enrollmentID string) (*models.Enrollment, error) {
	enrollment, err := enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another parent")
	}
	return enrollment, nil
}
