package teacher

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("teacher not found")
	ErrAlreadyAssigned = errors.New("evaluator is already assigned to this teacher")

	nowFunc = func() time.Time { return time.Now().UTC() }
)

type (
	Repository interface {
		CreateTeacher(ctx context.Context, tchr Teacher, exec ...core.DBExecutor) (Teacher, error)
		GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (Teacher, error)
		SetSchedule(ctx context.Context, id string, sched Schedule, exec ...core.DBExecutor) error
	}

	AssignmentRepository interface {
		CreateAssignment(ctx context.Context, asgmt Assignment, exec ...core.DBExecutor) (Assignment, error)
		// QueryPrograms returns the distinct non-empty programs of the evaluator's assignments.
		QueryPrograms(ctx context.Context, evaluatorID string, exec ...core.DBExecutor) ([]string, error)
		HasAssignment(ctx context.Context, evaluatorID, teacherID string, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		repo     Repository
		asgmRepo AssignmentRepository
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, asgmRepo AssignmentRepository) *Service {
	return &Service{repo: repo, asgmRepo: asgmRepo}
}

// Create expects a validated NewTeacher.
func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := nowFunc()
	return svc.repo.CreateTeacher(ctx, Teacher{
		Name:       nt.Name,
		Email:      nt.Email,
		Department: nt.Department,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, core.CleanString(id))
}

// SetSchedule replaces the teacher's schedule. A blank room is stored as null.
func (svc *Service) SetSchedule(ctx context.Context, id string, sched Schedule) (Teacher, error) {
	if sched.Room.Valid && core.CleanString(sched.Room.String) == "" {
		sched.Room.Valid = false
	}
	sched.Room.String = core.CleanString(sched.Room.String)
	if sched.At.Valid {
		sched.At.Time = sched.At.Time.UTC()
	}
	if err := svc.repo.SetSchedule(ctx, id, sched); err != nil {
		return Teacher{}, err
	}
	return svc.Get(ctx, id)
}

// Assign expects a validated NewAssignment.
func (svc *Service) Assign(ctx context.Context, na NewAssignment) (Assignment, error) {
	if _, err := svc.Get(ctx, na.TeacherID); err != nil {
		return Assignment{}, err
	}
	return svc.asgmRepo.CreateAssignment(ctx, Assignment{
		EvaluatorID: na.EvaluatorID,
		TeacherID:   na.TeacherID,
		Program:     na.Program,
		CreatedAt:   nowFunc(),
	})
}
