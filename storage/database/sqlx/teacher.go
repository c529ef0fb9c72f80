package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/teacher"
)

const teacherColumns = "id, name, email, department, evaluation_schedule, evaluation_room, created_at, updated_at"

type teacherRow struct {
	ID                 string      `db:"id"`
	Name               string      `db:"name"`
	Email              null.String `db:"email"`
	Department         string      `db:"department"`
	EvaluationSchedule null.Time   `db:"evaluation_schedule"`
	EvaluationRoom     null.String `db:"evaluation_room"`
	CreatedAt          null.Time   `db:"created_at"`
	UpdatedAt          null.Time   `db:"updated_at"`
}

type teacherRepository struct {
	repository
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(exec core.DBExecutor) *teacherRepository {
	return &teacherRepository{repository{exec: exec}}
}

func (repo teacherRepository) boil(tchr teacher.Teacher) teacherRow {
	sched := tchr.Schedule.At
	if sched.Valid {
		sched.Time = sched.Time.UTC()
	}
	return teacherRow{
		ID:                 tchr.ID,
		Name:               tchr.Name,
		Email:              null.NewString(tchr.Email, tchr.Email != ""),
		Department:         tchr.Department,
		EvaluationSchedule: sched,
		EvaluationRoom:     tchr.Schedule.Room,
		CreatedAt:          null.NewTime(tchr.CreatedAt.UTC(), !tchr.CreatedAt.IsZero()),
		UpdatedAt:          null.NewTime(tchr.UpdatedAt.UTC(), !tchr.UpdatedAt.IsZero()),
	}
}

func (repo teacherRepository) unboil(row teacherRow) teacher.Teacher {
	sched := row.EvaluationSchedule
	if sched.Valid {
		sched.Time = sched.Time.UTC()
	}
	return teacher.Teacher{
		ID:         row.ID,
		Name:       row.Name,
		Email:      row.Email.String,
		Department: row.Department,
		CreatedAt:  row.CreatedAt.Time.UTC(),
		UpdatedAt:  row.UpdatedAt.Time.UTC(),
		Schedule:   teacher.Schedule{At: sched, Room: row.EvaluationRoom},
	}
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, tchr teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	tchr.ID = uuid.New().String()
	row := repo.boil(tchr)
	_, err := repo.exe(ctx, exec,
		"INSERT INTO teachers ("+teacherColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		row.ID, row.Name, row.Email, row.Department, row.EvaluationSchedule, row.EvaluationRoom, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return repo.unboil(row), nil
}

func (repo teacherRepository) GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	var row teacherRow
	if err := repo.get(ctx, exec, &row, "SELECT "+teacherColumns+" FROM teachers WHERE id = ?", id); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "finding teacher")
	}
	return repo.unboil(row), nil
}

func (repo teacherRepository) SetSchedule(ctx context.Context, id string, sched teacher.Schedule, exec ...core.DBExecutor) error {
	row := repo.boil(teacher.Teacher{Schedule: sched})
	cnt, err := repo.affected(ctx, exec,
		"UPDATE teachers SET evaluation_schedule = ?, evaluation_room = ?, updated_at = ? WHERE id = ?",
		row.EvaluationSchedule, row.EvaluationRoom, nowUTC(), id,
	)
	if err != nil {
		return errors.Wrap(err, "updating teacher schedule")
	}
	if cnt == 0 {
		return teacher.ErrNotFound
	}
	return nil
}

type assignmentRepository struct {
	repository
}

var _ teacher.AssignmentRepository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{repository{exec: exec}}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asgmt teacher.Assignment, exec ...core.DBExecutor) (teacher.Assignment, error) {
	var cnt int
	err := repo.get(ctx, exec, &cnt,
		"SELECT COUNT(*) FROM evaluator_assignments WHERE evaluator_id = ? AND teacher_id = ? AND program = ?",
		asgmt.EvaluatorID, asgmt.TeacherID, asgmt.Program,
	)
	if err != nil {
		return teacher.Assignment{}, errors.Wrap(err, "checking assignment")
	}
	if cnt > 0 {
		return teacher.Assignment{}, teacher.ErrAlreadyAssigned
	}

	asgmt.ID = uuid.New().String()
	asgmt.CreatedAt = asgmt.CreatedAt.UTC()
	_, err = repo.exe(ctx, exec,
		"INSERT INTO evaluator_assignments (id, evaluator_id, teacher_id, program, created_at) VALUES (?, ?, ?, ?, ?)",
		asgmt.ID, asgmt.EvaluatorID, asgmt.TeacherID, asgmt.Program, null.NewTime(asgmt.CreatedAt, !asgmt.CreatedAt.IsZero()),
	)
	if err != nil {
		return teacher.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asgmt, nil
}

func (repo assignmentRepository) QueryPrograms(ctx context.Context, evaluatorID string, exec ...core.DBExecutor) ([]string, error) {
	var programs []string
	err := repo.sel(ctx, exec, &programs,
		"SELECT DISTINCT program FROM evaluator_assignments WHERE evaluator_id = ? AND program <> '' ORDER BY program",
		evaluatorID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	return programs, nil
}

func (repo assignmentRepository) HasAssignment(ctx context.Context, evaluatorID, teacherID string, exec ...core.DBExecutor) (bool, error) {
	var cnt int
	err := repo.get(ctx, exec, &cnt,
		"SELECT COUNT(*) FROM evaluator_assignments WHERE evaluator_id = ? AND teacher_id = ?",
		evaluatorID, teacherID,
	)
	if err != nil {
		return false, errors.Wrap(err, "counting assignments")
	}
	return cnt > 0, nil
}
