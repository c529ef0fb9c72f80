package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/observa/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	teacherIDTag  = "teacher_account"
	teacherIDText = "teacher accounts must be linked to a teacher"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, teacherIDTag, teacherIDText)
}

// Custom Validators

// roleValidation checks that the field is one of the known Roles.
func roleValidation(fl validator.FieldLevel) bool {
	switch role := fl.Field().Interface().(type) {
	case string:
		return Role(role).IsValid()
	case Role:
		return role.IsValid()
	}
	return false
}

// newUserStructValidation requires a TeacherID on teacher accounts.
func newUserStructValidation(sl validator.StructLevel) {
	nu, ok := sl.Current().Interface().(NewUser)
	if !ok {
		return
	}
	if Role(nu.Role) == RoleTeacher && nu.TeacherID == "" {
		sl.ReportError(nu.TeacherID, "teacher_id", "TeacherID", teacherIDTag, "")
	}
}
