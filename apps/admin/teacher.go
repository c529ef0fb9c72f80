package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/teacher"
)

var (
	errNotEvaluator = errors.New("user cannot evaluate teachers")

	scheduleLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}
)

func (cli *commandLine) addTeacher(nt teacher.NewTeacher) error {
	if err := nt.Validate(cli.validate); err != nil {
		return core.TranslateErrors(err, cli.translator)
	}
	tchr, err := cli.tchrSvc.Create(context.Background(), nt)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	_, _ = fmt.Fprintf(cli.out, "teacher %s created\n", tchr.ID)
	return nil
}

func (cli *commandLine) assign(evaluatorEmail, teacherID, program string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, evaluatorEmail)
	if err != nil {
		return err
	}
	if !usr.Role.Capabilities().CanEvaluate {
		return errNotEvaluator
	}

	na := teacher.NewAssignment{EvaluatorID: usr.ID, TeacherID: teacherID, Program: program}
	if err = na.Validate(cli.validate); err != nil {
		return core.TranslateErrors(err, cli.translator)
	}
	asgmt, err := cli.tchrSvc.Assign(ctx, na)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "assignment %s created\n", asgmt.ID)
	return nil
}

// schedule sets the teacher's evaluation schedule. Without time nor room, the schedule is cleared.
func (cli *commandLine) schedule(teacherID, at, room string) error {
	var sched teacher.Schedule
	if at = core.CleanString(at); at != "" {
		t, err := parseScheduleTime(at)
		if err != nil {
			return err
		}
		sched.At = null.TimeFrom(t)
	}
	if room = core.CleanString(room); room != "" {
		sched.Room = null.StringFrom(room)
	}

	tchr, err := cli.tchrSvc.SetSchedule(context.Background(), teacherID, sched)
	if err != nil {
		return err
	}
	if tchr.IsSet() {
		_, _ = fmt.Fprintf(cli.out, "teacher %s scheduled\n", tchr.ID)
	} else {
		_, _ = fmt.Fprintf(cli.out, "teacher %s schedule cleared\n", tchr.ID)
	}
	return nil
}

func parseScheduleTime(s string) (time.Time, error) {
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid schedule time %q", s)
}
