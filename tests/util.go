package testutil

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
	"github.com/trezcool/observa/storage/database"
)

// tables in deletion order
var tables = []string{"evaluation_details", "evaluations", "evaluation_criteria", "evaluator_assignments", "users", "teachers"}

func openDB(path string) (*sqlx.DB, error) {
	conf := &core.Config{Database: core.DatabaseConfig{Engine: database.SQLite, Path: path}}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens a migrated sqlite database in a new temporary directory. Meant for TestMain.
func OpenDB() *sqlx.DB {
	dir, err := os.MkdirTemp("", "observa-test-")
	if err != nil {
		log.Fatalf("testutil.OpenDB(): %v", err)
	}
	db, err := openDB(filepath.Join(dir, "test.db"))
	if err != nil {
		log.Fatalf("testutil.OpenDB(): %v", err)
	}
	return db
}

// PrepareDB opens a migrated sqlite database closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := openDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ResetDB deletes all rows of all tables.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("ResetDB(%s) failed: %v", table, err)
		}
	}
}

func CreateTeacher(
	t *testing.T,
	repo teacher.Repository,
	name, email, department string,
	sched ...teacher.Schedule,
) teacher.Teacher {
	t.Helper()
	now := time.Now().UTC()
	tchr := teacher.Teacher{
		Name:       name,
		Email:      email,
		Department: department,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if len(sched) > 0 {
		tchr.Schedule = sched[0]
	}
	tchr, err := repo.CreateTeacher(context.Background(), tchr)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email string,
	role user.Role,
	department, teacherID string,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:       name,
		Email:      email,
		Role:       role,
		Department: department,
		TeacherID:  teacherID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAssignment(t *testing.T, repo teacher.AssignmentRepository, evaluatorID, teacherID, program string) teacher.Assignment {
	t.Helper()
	asgmt, err := repo.CreateAssignment(context.Background(), teacher.Assignment{
		EvaluatorID: evaluatorID,
		TeacherID:   teacherID,
		Program:     program,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asgmt
}

// Schedule returns a schedule set at `at`.
func Schedule(at time.Time) teacher.Schedule {
	var sched teacher.Schedule
	sched.At.SetValid(at.UTC())
	return sched
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log entries instead of printing them.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil) // interface compliance check

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the entries logged at `level`, or all of them when level is empty.
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}
