package user

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/observa/core"
)

type Role string

// Roles
const (
	// Evaluators
	RoleDean                  Role = "dean"
	RolePrincipal             Role = "principal"
	RoleChairperson           Role = "chairperson"
	RoleSubjectCoordinator    Role = "subject_coordinator"
	RoleGradeLevelCoordinator Role = "grade_level_coordinator"

	// Teacher
	RoleTeacher Role = "teacher"

	// Admin (Electronic Data Processing office)
	RoleEDP Role = "edp"
)

// Capabilities is what a Role may do at the evaluation boundary.
type Capabilities struct {
	CanEvaluate                bool // may save drafts and submit evaluations
	CanSubmitUnrestricted      bool // no program or assignment check applies
	IsProgramScoped            bool // restricted to the programs resolved from assignments
	RequiresExplicitAssignment bool // needs an (evaluator, teacher) assignment row
	CanViewAll                 bool // may read every submitted evaluation
}

var (
	capabilities = map[Role]Capabilities{
		RoleDean:                  {CanEvaluate: true, CanSubmitUnrestricted: true},
		RolePrincipal:             {CanEvaluate: true, CanSubmitUnrestricted: true},
		RoleChairperson:           {CanEvaluate: true, IsProgramScoped: true, RequiresExplicitAssignment: true},
		RoleSubjectCoordinator:    {CanEvaluate: true, IsProgramScoped: true, RequiresExplicitAssignment: true},
		RoleGradeLevelCoordinator: {CanEvaluate: true, IsProgramScoped: true, RequiresExplicitAssignment: true},
		RoleTeacher:               {},
		RoleEDP:                   {CanViewAll: true},
	}

	Roles = []RoleInfo{
		{Name: "Dean", Value: RoleDean},
		{Name: "Principal", Value: RolePrincipal},
		{Name: "Chairperson", Value: RoleChairperson},
		{Name: "Subject Coordinator", Value: RoleSubjectCoordinator},
		{Name: "Grade Level Coordinator", Value: RoleGradeLevelCoordinator},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "EDP", Value: RoleEDP},
	}
)

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// ParseRole normalizes free-form role names ("Subject Coordinator", "grade-level-coordinator") to a Role.
func ParseRole(s string) (Role, bool) {
	s = core.CleanString(s, true /* lower */)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	role := Role(s)
	_, ok := capabilities[role]
	return role, ok
}

func (r Role) IsValid() bool {
	_, ok := capabilities[r]
	return ok
}

// Capabilities returns the zero Capabilities for unknown roles.
func (r Role) Capabilities() Capabilities {
	return capabilities[r]
}

// EvaluatorRoles lists the roles allowed to evaluate, sorted.
func EvaluatorRoles() []Role {
	roles := make([]Role, 0, len(capabilities))
	for role, caps := range capabilities {
		if caps.CanEvaluate {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	TeacherID  string    `json:"teacher_id,omitempty"` // teacher accounts only
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (u User) RequestContext() RequestContext {
	return RequestContext{
		UserID:     u.ID,
		Role:       u.Role,
		Department: u.Department,
		TeacherID:  u.TeacherID,
	}
}

// RequestContext is the authenticated identity a request is made on behalf of.
type RequestContext struct {
	UserID     string
	Role       Role
	Department string
	TeacherID  string
}

func (rc RequestContext) IsAuthenticated() bool {
	return core.CleanString(rc.UserID) != ""
}

func (rc RequestContext) Capabilities() Capabilities {
	return rc.Role.Capabilities()
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name       string `json:"name" validate:"required,notblank"`
	Email      string `json:"email" validate:"omitempty,email"`
	Role       string `json:"role" validate:"required,role"`
	Department string `json:"department"`
	TeacherID  string `json:"teacher_id"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.TeacherID = core.CleanString(nu.TeacherID)
	if role, ok := ParseRole(nu.Role); ok {
		nu.Role = string(role)
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}
