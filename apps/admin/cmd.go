package main

import (
	"flag"
	"fmt"
	"io"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db           *sqlx.DB
	conf         *core.Config
	validate     *validator.Validate
	translator   ut.Translator
	usrSvc       user.ServiceInterface
	tchrSvc      teacher.ServiceInterface
	criteriaRepo evaluation.CriteriaRepository
	out          io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                       - run a goose command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -name NAME -role ROLE [-email -department -teacher]  - add a user")
	_, _ = fmt.Fprintln(cli.out, "  addteacher -name NAME -department DEPT [-email]              - add a teacher")
	_, _ = fmt.Fprintln(cli.out, "  assign -evaluator EMAIL -teacher ID [-program]               - assign an evaluator to a teacher")
	_, _ = fmt.Fprintln(cli.out, "  schedule -teacher ID [-at TIME -room ROOM]                   - set (or clear) a teacher's evaluation schedule")
	_, _ = fmt.Fprintln(cli.out, "  token -email EMAIL                                           - issue an API token for a user")
	_, _ = fmt.Fprintln(cli.out, "  seedcriteria                                                 - store the default evaluation criteria")
	_, _ = fmt.Fprintln(cli.out, "  criterion -category CAT -index N -text TEXT                  - change the text of a criterion")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse returns errHelp when the flags are invalid or a required one is missing.
func parse(fs *flag.FlagSet, args []string, required ...*string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	for _, val := range required {
		if core.CleanString(*val) == "" {
			fs.Usage()
			return errHelp
		}
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := cli.newFlagSet("adduser")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", "", "One of: dean, principal, chairperson, subject_coordinator, grade_level_coordinator, teacher, edp.")
	addUserDept := addUserCmd.String("department", "", "The user's department (program).")
	addUserTeacher := addUserCmd.String("teacher", "", "The ID of the teacher record of a teacher user.")

	addTeacherCmd := cli.newFlagSet("addteacher")
	addTeacherName := addTeacherCmd.String("name", "", "The teacher's full name.")
	addTeacherEmail := addTeacherCmd.String("email", "", "The teacher's email, for notices.")
	addTeacherDept := addTeacherCmd.String("department", "", "The teacher's department (program).")

	assignCmd := cli.newFlagSet("assign")
	assignEvaluator := assignCmd.String("evaluator", "", "The evaluator's email.")
	assignTeacher := assignCmd.String("teacher", "", "The teacher's ID.")
	assignProgram := assignCmd.String("program", "", "The program the assignment is for.")

	scheduleCmd := cli.newFlagSet("schedule")
	scheduleTeacher := scheduleCmd.String("teacher", "", "The teacher's ID.")
	scheduleAt := scheduleCmd.String("at", "", `The evaluation date & time, UTC ("2006-01-02 15:04" or RFC3339).`)
	scheduleRoom := scheduleCmd.String("room", "", "The evaluation room.")

	tokenCmd := cli.newFlagSet("token")
	tokenEmail := tokenCmd.String("email", "", "The user's email.")

	criterionCmd := cli.newFlagSet("criterion")
	criterionCat := criterionCmd.String("category", "", "One of: communications, management, assessment.")
	criterionIdx := criterionCmd.Int("index", -1, "The 0-based index of the criterion within its category.")
	criterionText := criterionCmd.String("text", "", "The new text of the criterion.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := parse(addUserCmd, args[2:], addUserName, addUserRole); err != nil {
			return err
		}
		return cli.addUser(user.NewUser{
			Name:       *addUserName,
			Email:      *addUserEmail,
			Role:       *addUserRole,
			Department: *addUserDept,
			TeacherID:  *addUserTeacher,
		})

	case "addteacher":
		if err := parse(addTeacherCmd, args[2:], addTeacherName, addTeacherDept); err != nil {
			return err
		}
		return cli.addTeacher(teacher.NewTeacher{Name: *addTeacherName, Email: *addTeacherEmail, Department: *addTeacherDept})

	case "assign":
		if err := parse(assignCmd, args[2:], assignEvaluator, assignTeacher); err != nil {
			return err
		}
		return cli.assign(*assignEvaluator, *assignTeacher, *assignProgram)

	case "schedule":
		if err := parse(scheduleCmd, args[2:], scheduleTeacher); err != nil {
			return err
		}
		return cli.schedule(*scheduleTeacher, *scheduleAt, *scheduleRoom)

	case "token":
		if err := parse(tokenCmd, args[2:], tokenEmail); err != nil {
			return err
		}
		return cli.token(*tokenEmail)

	case "seedcriteria":
		return cli.seedCriteria()

	case "criterion":
		if err := parse(criterionCmd, args[2:], criterionCat, criterionText); err != nil {
			return err
		}
		return cli.setCriterion(*criterionCat, *criterionIdx, *criterionText)

	default:
		cli.printUsage()
		return errHelp
	}
}
