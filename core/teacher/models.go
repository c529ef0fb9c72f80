package teacher

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
)

type Teacher struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
	Schedule
}

// Schedule is when and where a teacher's next observation takes place.
type Schedule struct {
	At   null.Time   `json:"evaluation_schedule"`
	Room null.String `json:"evaluation_room"`
}

// IsSet reports whether a schedule timestamp or a non-blank room exists. Either one is enough.
func (s Schedule) IsSet() bool {
	return s.At.Valid || (s.Room.Valid && core.CleanString(s.Room.String) != "")
}

// Assignment authorizes an evaluator to evaluate a teacher, optionally within a program.
type Assignment struct {
	ID          string    `json:"id"`
	EvaluatorID string    `json:"evaluator_id"`
	TeacherID   string    `json:"teacher_id"`
	Program     string    `json:"program"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewTeacher struct {
	Name       string `json:"name" validate:"required,notblank"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department" validate:"required,notblank"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Department = core.CleanString(nt.Department)
	return validate.Struct(nt)
}

type NewAssignment struct {
	EvaluatorID string `json:"evaluator_id" validate:"required,notblank"`
	TeacherID   string `json:"teacher_id" validate:"required,notblank"`
	Program     string `json:"program"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.EvaluatorID = core.CleanString(na.EvaluatorID)
	na.TeacherID = core.CleanString(na.TeacherID)
	na.Program = core.CleanString(na.Program)
	return validate.Struct(na)
}

type ServiceInterface interface {
	Create(ctx context.Context, nt NewTeacher) (Teacher, error)
	Get(ctx context.Context, id string) (Teacher, error)
	SetSchedule(ctx context.Context, id string, sched Schedule) (Teacher, error)
	Assign(ctx context.Context, na NewAssignment) (Assignment, error)
}
