package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
	"github.com/trezcool/observa/tests"
)

func TestUserRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	tchr := testutil.CreateTeacher(t, NewTeacherRepository(db), "Ana", "", "BSIT")

	dean := testutil.CreateUser(t, repo, "Dean", "dean@school.test", user.RoleDean, "", "")
	ana := testutil.CreateUser(t, repo, "Ana", "", user.RoleTeacher, "bsit", tchr.ID)
	testutil.CreateUser(t, repo, "Chair", "chair@school.test", user.RoleChairperson, "BSIT", "")

	t.Run("email exists", func(t *testing.T) {
		if found, err := repo.EmailExists(ctx, "dean@school.test"); err != nil || !found {
			t.Errorf("EmailExists() = (%v, %v), want true", found, err)
		}
		if found, err := repo.EmailExists(ctx, "nobody@school.test"); err != nil || found {
			t.Errorf("EmailExists() = (%v, %v), want false", found, err)
		}
	})

	t.Run("get", func(t *testing.T) {
		tests := []struct {
			name    string
			filter  user.GetFilter
			wantID  string
			wantErr error
		}{
			{name: "by id", filter: user.GetFilter{ID: ana.ID}, wantID: ana.ID},
			{name: "by email", filter: user.GetFilter{Email: "dean@school.test"}, wantID: dean.ID},
			{name: "unknown id", filter: user.GetFilter{ID: "ghost"}, wantErr: user.ErrNotFound},
			{name: "empty filter", wantErr: user.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.GetUser(ctx, tt.filter)
				if err != tt.wantErr {
					t.Fatalf("GetUser() error = %v, wantErr %v", err, tt.wantErr)
				}
				if got.ID != tt.wantID {
					t.Errorf("GetUser() id = %q, want %q", got.ID, tt.wantID)
				}
			})
		}
		got, _ := repo.GetUser(ctx, user.GetFilter{ID: ana.ID})
		if got.TeacherID != tchr.ID || got.Email != "" || got.Role != user.RoleTeacher || !got.IsActive {
			t.Errorf("GetUser() = %+v", got)
		}
	})

	t.Run("query", func(t *testing.T) {
		users, err := repo.QueryUsers(ctx, user.QueryFilter{Department: "BSIT"})
		if err != nil || len(users) != 2 || users[0].Name != "Ana" || users[1].Name != "Chair" {
			t.Errorf("QueryUsers() = (%v, %v)", users, err)
		}
		users, err = repo.QueryUsers(ctx, user.QueryFilter{Role: user.RoleDean})
		if err != nil || len(users) != 1 || users[0].ID != dean.ID {
			t.Errorf("QueryUsers() = (%v, %v)", users, err)
		}
	})

	t.Run("update", func(t *testing.T) {
		dean.IsActive = false
		got, err := repo.UpdateUser(ctx, dean)
		if err != nil || got.IsActive {
			t.Errorf("UpdateUser() = (%+v, %v)", got, err)
		}
		if _, err = repo.UpdateUser(ctx, user.User{ID: "ghost", Name: "Ghost", Role: user.RoleDean}); err != user.ErrNotFound {
			t.Errorf("UpdateUser() error = %v, wantErr %v", err, user.ErrNotFound)
		}
	})

	t.Run("unique email", func(t *testing.T) {
		if _, err := repo.CreateUser(ctx, user.User{Name: "Dup", Email: "dean@school.test", Role: user.RoleDean}); err == nil {
			t.Error("CreateUser() accepted a duplicate email")
		}
	})
}

func TestTeacherRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewTeacherRepository(db)

	tchr := testutil.CreateTeacher(t, repo, "Ana", "ana@school.test", "BSIT")
	if tchr.Schedule.IsSet() {
		t.Errorf("new teacher schedule = %+v, want unset", tchr.Schedule)
	}

	at := time.Date(2024, 6, 3, 8, 30, 0, 0, time.FixedZone("PHT", 8*3600))
	if err := repo.SetSchedule(ctx, tchr.ID, teacher.Schedule{At: null.TimeFrom(at), Room: null.StringFrom("Room 101")}); err != nil {
		t.Fatalf("SetSchedule() error = %v", err)
	}
	got, err := repo.GetTeacher(ctx, tchr.ID)
	if err != nil {
		t.Fatalf("GetTeacher() error = %v", err)
	}
	if !got.Schedule.At.Time.Equal(at) || got.Schedule.At.Time.Location() != time.UTC || got.Schedule.Room.String != "Room 101" {
		t.Errorf("GetTeacher() schedule = %+v", got.Schedule)
	}
	if got.Email != "ana@school.test" || got.Department != "BSIT" {
		t.Errorf("GetTeacher() = %+v", got)
	}

	if err = repo.SetSchedule(ctx, "ghost", teacher.Schedule{}); err != teacher.ErrNotFound {
		t.Errorf("SetSchedule() error = %v, wantErr %v", err, teacher.ErrNotFound)
	}
	if _, err = repo.GetTeacher(ctx, "ghost"); err != teacher.ErrNotFound {
		t.Errorf("GetTeacher() error = %v, wantErr %v", err, teacher.ErrNotFound)
	}
}

func TestAssignmentRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewAssignmentRepository(db)
	tchrRepo := NewTeacherRepository(db)

	chair := testutil.CreateUser(t, NewUserRepository(db), "Chair", "", user.RoleChairperson, "", "")
	ana := testutil.CreateTeacher(t, tchrRepo, "Ana", "", "BSIT")
	ben := testutil.CreateTeacher(t, tchrRepo, "Ben", "", "BSED")

	testutil.CreateAssignment(t, repo, chair.ID, ana.ID, "BSIT")
	testutil.CreateAssignment(t, repo, chair.ID, ben.ID, "BSED")
	testutil.CreateAssignment(t, repo, chair.ID, ben.ID, "BSIT")
	testutil.CreateAssignment(t, repo, chair.ID, ana.ID, "")

	if _, err := repo.CreateAssignment(ctx, teacher.Assignment{EvaluatorID: chair.ID, TeacherID: ana.ID, Program: "BSIT"}); err != teacher.ErrAlreadyAssigned {
		t.Errorf("CreateAssignment() error = %v, wantErr %v", err, teacher.ErrAlreadyAssigned)
	}

	programs, err := repo.QueryPrograms(ctx, chair.ID)
	if err != nil || len(programs) != 2 || programs[0] != "BSED" || programs[1] != "BSIT" {
		t.Errorf("QueryPrograms() = (%v, %v), want [BSED BSIT]", programs, err)
	}
	if programs, _ = repo.QueryPrograms(ctx, "ghost"); len(programs) != 0 {
		t.Errorf("QueryPrograms() = %v, want none", programs)
	}

	if ok, err := repo.HasAssignment(ctx, chair.ID, ben.ID); err != nil || !ok {
		t.Errorf("HasAssignment() = (%v, %v), want true", ok, err)
	}
	if ok, err := repo.HasAssignment(ctx, "ghost", ben.ID); err != nil || ok {
		t.Errorf("HasAssignment() = (%v, %v), want false", ok, err)
	}
}

func TestCriteriaRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewCriteriaRepository(db)

	if err := repo.CreateCriterion(ctx, evaluation.Criterion{Category: evaluation.Management, Index: 1, Text: "m1"}); err != nil {
		t.Fatalf("CreateCriterion() error = %v", err)
	}
	if err := repo.UpdateCriterionText(ctx, evaluation.Criterion{Category: evaluation.Management, Index: 1, Text: "m1 bis"}); err != nil {
		t.Fatalf("UpdateCriterionText() error = %v", err)
	}
	// missing criteria are created
	if err := repo.UpdateCriterionText(ctx, evaluation.Criterion{Category: evaluation.Communications, Index: 0, Text: "c0"}); err != nil {
		t.Fatalf("UpdateCriterionText() error = %v", err)
	}

	criteria, err := repo.QueryCriteria(ctx)
	if err != nil || len(criteria) != 2 {
		t.Fatalf("QueryCriteria() = (%v, %v)", criteria, err)
	}
	catalog := evaluation.NewCatalog(criteria)
	if catalog.Lookup(evaluation.Management, 1) != "m1 bis" || catalog.Lookup(evaluation.Communications, 0) != "c0" {
		t.Errorf("QueryCriteria() = %v", criteria)
	}
}

func TestEvaluationRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewEvaluationRepository(db)

	dean := testutil.CreateUser(t, NewUserRepository(db), "Dean", "", user.RoleDean, "", "")
	tchr := testutil.CreateTeacher(t, NewTeacherRepository(db), "Ana", "", "BSIT")

	create := func(status evaluation.Status, year string, createdAt time.Time) evaluation.Evaluation {
		ev, err := repo.CreateEvaluation(ctx, evaluation.Evaluation{
			EvaluatorID: dean.ID,
			Status:      status,
			Header:      evaluation.Header{TeacherID: tchr.ID, AcademicYear: year, ObservationDate: null.TimeFrom(createdAt)},
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		})
		if err != nil {
			t.Fatalf("CreateEvaluation() error = %v", err)
		}
		return ev
	}
	now := time.Now().UTC()
	first := create(evaluation.StatusSubmitted, "2023-2024", now.Add(-2*time.Hour))
	second := create(evaluation.StatusDraft, "2024-2025", now.Add(-time.Hour))
	third := create(evaluation.StatusSubmitted, "2024-2025", now)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetEvaluation(ctx, first.ID)
		if err != nil {
			t.Fatalf("GetEvaluation() error = %v", err)
		}
		if got.Status != evaluation.StatusSubmitted || got.AcademicYear != "2023-2024" || got.Overall.Valid || got.AIRecommendations.Valid {
			t.Errorf("GetEvaluation() = %+v", got)
		}
		if _, err = repo.GetEvaluation(ctx, "ghost"); err != evaluation.ErrNotFound {
			t.Errorf("GetEvaluation() error = %v, wantErr %v", err, evaluation.ErrNotFound)
		}
	})

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			name     string
			filter   evaluation.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "newest first by default", want: []string{third.ID, second.ID, first.ID}},
			{name: "status", filter: evaluation.QueryFilter{Status: evaluation.StatusSubmitted}, want: []string{third.ID, first.ID}},
			{name: "academic year", filter: evaluation.QueryFilter{AcademicYear: "2024-2025"}, want: []string{third.ID, second.ID}},
			{name: "teacher and evaluator", filter: evaluation.QueryFilter{TeacherID: tchr.ID, EvaluatorID: dean.ID}, want: []string{third.ID, second.ID, first.ID}},
			{name: "unknown teacher", filter: evaluation.QueryFilter{TeacherID: "ghost"}},
			{
				name:     "ordering",
				ordering: []core.DBOrdering{{Field: "observation_date", Ascending: true}},
				want:     []string{first.ID, second.ID, third.ID},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				evs, err := repo.QueryEvaluations(ctx, tt.filter, tt.ordering)
				if err != nil {
					t.Fatalf("QueryEvaluations() error = %v", err)
				}
				if len(evs) != len(tt.want) {
					t.Fatalf("QueryEvaluations() = %d evaluations, want %d", len(evs), len(tt.want))
				}
				for i, ev := range evs {
					if ev.ID != tt.want[i] {
						t.Errorf("QueryEvaluations()[%d] = %s, want %s", i, ev.ID, tt.want[i])
					}
				}
			})
		}
	})

	t.Run("draft header", func(t *testing.T) {
		hdr := evaluation.Header{TeacherID: tchr.ID, SubjectObserved: "Physics", SeatPlan: true}
		if ok, err := repo.UpdateDraftHeader(ctx, first.ID, hdr, evaluation.StatusSubmitted); err != nil || ok {
			t.Errorf("UpdateDraftHeader() on a submitted evaluation = (%v, %v), want false", ok, err)
		}
		if ok, err := repo.UpdateDraftHeader(ctx, second.ID, hdr, evaluation.StatusSubmitted); err != nil || !ok {
			t.Fatalf("UpdateDraftHeader() = (%v, %v), want true", ok, err)
		}
		got, _ := repo.GetEvaluation(ctx, second.ID)
		if got.Status != evaluation.StatusSubmitted || got.SubjectObserved != "Physics" || !got.SeatPlan || got.AcademicYear != "" {
			t.Errorf("GetEvaluation() = %+v", got)
		}
	})

	t.Run("details", func(t *testing.T) {
		details := []evaluation.Detail{
			{EvaluationID: third.ID, Category: evaluation.Management, CriterionIndex: 2, CriterionText: "m2", Rating: 3},
			{EvaluationID: third.ID, Category: evaluation.Communications, CriterionIndex: 0, CriterionText: "c0", Rating: 4, Comment: "ok"},
		}
		if err := repo.SaveDetails(ctx, details); err != nil {
			t.Fatalf("SaveDetails() error = %v", err)
		}
		details[0].Rating = 5
		if err := repo.SaveDetails(ctx, details[:1]); err != nil {
			t.Fatalf("SaveDetails() error = %v", err)
		}

		got, err := repo.QueryDetails(ctx, third.ID)
		if err != nil || len(got) != 2 {
			t.Fatalf("QueryDetails() = (%v, %v)", got, err)
		}
		if got[0].Category != evaluation.Communications || got[0].Comment != "ok" || got[1].Rating != 5 {
			t.Errorf("QueryDetails() = %+v", got)
		}

		bad := []evaluation.Detail{{EvaluationID: third.ID, Category: evaluation.Assessment, CriterionIndex: 0, Rating: 9}}
		if err = repo.SaveDetails(ctx, bad); err == nil {
			t.Error("SaveDetails() accepted a rating outside the scale")
		}

		if err = repo.DeleteDetails(ctx, third.ID); err != nil {
			t.Fatalf("DeleteDetails() error = %v", err)
		}
		if got, _ = repo.QueryDetails(ctx, third.ID); len(got) != 0 {
			t.Errorf("QueryDetails() after delete = %v", got)
		}
	})

	t.Run("updates", func(t *testing.T) {
		avgs := evaluation.Averages{Communications: null.Float64From(4.5), Overall: null.Float64From(4.5)}
		if err := repo.SetAverages(ctx, third.ID, avgs); err != nil {
			t.Fatalf("SetAverages() error = %v", err)
		}
		q := evaluation.Qualitative{Strengths: "Warm", RaterDate: null.TimeFrom(now)}
		if err := repo.UpdateQualitative(ctx, third.ID, q); err != nil {
			t.Fatalf("UpdateQualitative() error = %v", err)
		}
		if err := repo.SetAIRecommendations(ctx, third.ID, "More pair work."); err != nil {
			t.Fatalf("SetAIRecommendations() error = %v", err)
		}

		got, _ := repo.GetEvaluation(ctx, third.ID)
		if got.Averages != avgs || got.Strengths != "Warm" || !got.RaterDate.Valid || got.AIRecommendations.String != "More pair work." {
			t.Errorf("GetEvaluation() = %+v", got)
		}

		if err := repo.SetAverages(ctx, "ghost", avgs); errors.Cause(err) != evaluation.ErrNotFound {
			t.Errorf("SetAverages() error = %v, wantErr %v", err, evaluation.ErrNotFound)
		}
	})
}
