package evaluation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
)

// Resolver decides whether an evaluator may evaluate a teacher.
type Resolver struct {
	users       user.Repository
	teachers    teacher.Repository
	assignments teacher.AssignmentRepository
}

func NewResolver(users user.Repository, teachers teacher.Repository, assignments teacher.AssignmentRepository) *Resolver {
	return &Resolver{users: users, teachers: teachers, assignments: assignments}
}

// ResolveAllowedPrograms returns the distinct programs of the evaluator's assignments. Without any,
// it falls back to the evaluator's stored department, then to fallbackDepartment.
// An empty result means no program restriction.
func (r *Resolver) ResolveAllowedPrograms(ctx context.Context, evaluatorID, fallbackDepartment string) ([]string, error) {
	programs, err := r.assignments.QueryPrograms(ctx, evaluatorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignment programs")
	}
	if len(programs) > 0 {
		return programs, nil
	}

	usr, err := r.users.GetUser(ctx, user.GetFilter{ID: evaluatorID})
	switch {
	case err == nil && core.CleanString(usr.Department) != "":
		return []string{core.CleanString(usr.Department)}, nil
	case err != nil && errors.Cause(err) != user.ErrNotFound:
		return nil, errors.Wrap(err, "getting evaluator")
	}

	if dept := core.CleanString(fallbackDepartment); dept != "" {
		return []string{dept}, nil
	}
	return nil, nil
}

// Authorize only restricts program-scoped roles: they need an explicit assignment to the teacher,
// and the teacher's department must be one of their allowed programs.
func (r *Resolver) Authorize(ctx context.Context, rc user.RequestContext, teacherID string) error {
	if !rc.IsAuthenticated() {
		return ErrUnauthorized
	}
	caps := rc.Capabilities()
	if !caps.CanEvaluate {
		return ErrNotEvaluator
	}
	if caps.CanSubmitUnrestricted || !caps.IsProgramScoped {
		return nil
	}

	if caps.RequiresExplicitAssignment {
		assigned, err := r.assignments.HasAssignment(ctx, rc.UserID, teacherID)
		if err != nil {
			return errors.Wrap(err, "checking assignment")
		}
		if !assigned {
			return ErrNotAssigned
		}
	}

	programs, err := r.ResolveAllowedPrograms(ctx, rc.UserID, rc.Department)
	if err != nil {
		return err
	}
	if len(programs) == 0 {
		return nil
	}
	tchr, err := r.teachers.GetTeacher(ctx, teacherID)
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	if !core.ContainsFold(programs, tchr.Department) {
		return ErrProgramMismatch
	}
	return nil
}

// ScheduleGate refuses evaluations of teachers that were never scheduled.
type ScheduleGate struct {
	teachers teacher.Repository
}

func NewScheduleGate(teachers teacher.Repository) *ScheduleGate {
	return &ScheduleGate{teachers: teachers}
}

// AssertSchedulable passes when the teacher has a schedule timestamp or a room.
func (g *ScheduleGate) AssertSchedulable(ctx context.Context, teacherID string) error {
	tchr, err := g.teachers.GetTeacher(ctx, teacherID)
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	if !tchr.Schedule.IsSet() {
		return ErrNoScheduleSet
	}
	return nil
}
