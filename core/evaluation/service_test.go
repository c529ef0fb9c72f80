package evaluation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
	sqlxrepos "github.com/trezcool/observa/storage/database/sqlx"
	"github.com/trezcool/observa/tests"
)

var errBoom = errors.New("boom")

type fixture struct {
	db        *sqlx.DB
	repo      evaluation.Repository
	criteria  evaluation.CriteriaRepository
	teachers  teacher.Repository
	logger    *testutil.Logger
	dean      user.User
	chair     user.User
	edp       user.User
	tchrUsr   user.User
	scheduled teacher.Teacher // BSIT
	roomOnly  teacher.Teacher // BSIT
	none      teacher.Teacher // BSED, never scheduled
}

func setup(t *testing.T) *fixture {
	db := testutil.PrepareDB(t)
	f := &fixture{
		db:       db,
		repo:     sqlxrepos.NewEvaluationRepository(db),
		criteria: sqlxrepos.NewCriteriaRepository(db),
		teachers: sqlxrepos.NewTeacherRepository(db),
		logger:   new(testutil.Logger),
	}
	if _, err := evaluation.SeedCriteria(context.Background(), f.criteria); err != nil {
		t.Fatalf("SeedCriteria() failed: %v", err)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	asgmtRepo := sqlxrepos.NewAssignmentRepository(db)

	f.scheduled = testutil.CreateTeacher(t, f.teachers, "Ana Reyes", "ana@school.test", "BSIT", testutil.Schedule(time.Now().Add(24*time.Hour)))
	f.roomOnly = testutil.CreateTeacher(t, f.teachers, "Ben Cruz", "", "BSIT", teacher.Schedule{Room: null.StringFrom("Room 101")})
	f.none = testutil.CreateTeacher(t, f.teachers, "Carla Diaz", "", "BSED")

	f.dean = testutil.CreateUser(t, usrRepo, "Dean", "dean@school.test", user.RoleDean, "", "")
	f.chair = testutil.CreateUser(t, usrRepo, "Chair", "chair@school.test", user.RoleChairperson, "BSIT", "")
	f.edp = testutil.CreateUser(t, usrRepo, "EDP", "edp@school.test", user.RoleEDP, "", "")
	f.tchrUsr = testutil.CreateUser(t, usrRepo, "Ana Reyes", "ana.user@school.test", user.RoleTeacher, "BSIT", f.scheduled.ID)

	testutil.CreateAssignment(t, asgmtRepo, f.chair.ID, f.scheduled.ID, "BSIT")
	testutil.CreateAssignment(t, asgmtRepo, f.chair.ID, f.none.ID, "BSIT")
	return f
}

func (f *fixture) service(repo evaluation.Repository, hooks ...evaluation.CompletionHook) *evaluation.Service {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)

	if repo == nil {
		repo = f.repo
	}
	return evaluation.NewService(evaluation.ServiceDeps{
		DB:             f.db,
		Repo:           repo,
		CriteriaRepo:   f.criteria,
		UserRepo:       sqlxrepos.NewUserRepository(f.db),
		TeacherRepo:    f.teachers,
		AssignmentRepo: sqlxrepos.NewAssignmentRepository(f.db),
		Validate:       validate,
		Translator:     translator,
		Logger:         f.logger,
		Hooks:          hooks,
	})
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var cnt int
	if err := f.db.Get(&cnt, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count(%s) failed: %v", table, err)
	}
	return cnt
}

// fullForm rates every criterion of the catalog with `rating`.
func fullForm(teacherID string, rating int) evaluation.Form {
	ratings := make(evaluation.Ratings)
	for _, cat := range evaluation.Categories {
		for idx := 0; idx < cat.CriteriaCount(); idx++ {
			ratings.Set(cat, idx, evaluation.Rating{Value: rating})
		}
	}
	return evaluation.Form{
		Header: evaluation.Header{
			TeacherID:       teacherID,
			AcademicYear:    "2024-2025",
			Semester:        "1st",
			SubjectObserved: "Algebra",
			ObservationType: evaluation.ObservationFormal,
		},
		Ratings:     ratings,
		Qualitative: evaluation.Qualitative{Strengths: "Pacing", RaterPrintedName: "Dean"},
	}
}

type recordingHook struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (h *recordingHook) Name() string { return "recording" }

func (h *recordingHook) OnSubmitted(_ context.Context, ev evaluation.Evaluation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, ev.ID)
	return h.err
}

func (h *recordingHook) calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ids...)
}

type fakeRecommender struct {
	text string
	err  error
}

func (r fakeRecommender) Generate(context.Context, evaluation.RecommendationRequest) (string, error) {
	return r.text, r.err
}

// failingRepo fails the transactional step named by failOn.
type failingRepo struct {
	evaluation.Repository
	failOn string
}

func (r failingRepo) SaveDetails(ctx context.Context, details []evaluation.Detail, exec ...core.DBExecutor) error {
	if r.failOn == "details" {
		return errBoom
	}
	return r.Repository.SaveDetails(ctx, details, exec...)
}

func (r failingRepo) SetAverages(ctx context.Context, id string, avgs evaluation.Averages, exec ...core.DBExecutor) error {
	if r.failOn == "averages" {
		return errBoom
	}
	return r.Repository.SetAverages(ctx, id, avgs, exec...)
}

func (r failingRepo) UpdateQualitative(ctx context.Context, id string, q evaluation.Qualitative, exec ...core.DBExecutor) error {
	if r.failOn == "qualitative" {
		return errBoom
	}
	return r.Repository.UpdateQualitative(ctx, id, q, exec...)
}

func TestService_Submit(t *testing.T) {
	f := setup(t)
	hook := new(recordingHook)
	svc := f.service(nil, hook)
	ctx := context.Background()

	form := fullForm(f.scheduled.ID, 4)
	form.Ratings.Set(evaluation.Communications, 0, evaluation.Rating{Value: 1, Comment: "inaudible"})

	id, err := svc.Submit(ctx, f.dean.RequestContext(), form)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	ev, err := svc.Get(ctx, f.dean.RequestContext(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ev.Status != evaluation.StatusSubmitted || ev.EvaluatorID != f.dean.ID || ev.TeacherID != f.scheduled.ID {
		t.Errorf("Get() = %+v", ev)
	}
	if len(ev.Details) != 23 {
		t.Errorf("Get() details = %d, want 23", len(ev.Details))
	}
	// communications: (1+4*4)/5, overall: (1+22*4)/23
	if ev.Communications.Float64 != 3.4 || ev.Management.Float64 != 4 || ev.Assessment.Float64 != 4 || ev.Overall.Float64 != 3.87 {
		t.Errorf("Get() averages = %+v", ev.Averages)
	}
	if ev.Strengths != "Pacing" || ev.AIRecommendations.Valid {
		t.Errorf("Get() qualitative = %+v, ai = %v", ev.Qualitative, ev.AIRecommendations)
	}

	defaults := evaluation.NewCatalog(evaluation.DefaultCriteria())
	for _, d := range ev.Details {
		if d.CriterionText != defaults.Lookup(d.Category, d.CriterionIndex) {
			t.Errorf("detail %s[%d] text = %q", d.Category, d.CriterionIndex, d.CriterionText)
		}
		if d.Category == evaluation.Communications && d.CriterionIndex == 0 && (d.Rating != 1 || d.Comment != "inaudible") {
			t.Errorf("detail communications[0] = %+v", d)
		}
	}

	if calls := hook.calls(); len(calls) != 1 || calls[0] != id {
		t.Errorf("hook calls = %v, want [%s]", calls, id)
	}
}

func TestService_SubmitChecks(t *testing.T) {
	f := setup(t)
	hook := new(recordingHook)
	svc := f.service(nil, hook)

	badRating := fullForm(f.scheduled.ID, 4)
	badRating.Ratings.Set(evaluation.Management, 2, evaluation.Rating{Value: 7})

	tests := []struct {
		name      string
		rc        user.RequestContext
		form      evaluation.Form
		wantErr   error
		wantValid bool // validation error expected
	}{
		{name: "anonymous", rc: user.RequestContext{}, form: fullForm(f.scheduled.ID, 4), wantErr: evaluation.ErrUnauthorized},
		{name: "teacher role", rc: f.tchrUsr.RequestContext(), form: fullForm(f.scheduled.ID, 4), wantErr: evaluation.ErrNotEvaluator},
		{name: "edp role", rc: f.edp.RequestContext(), form: fullForm(f.scheduled.ID, 4), wantErr: evaluation.ErrNotEvaluator},
		{name: "not assigned", rc: f.chair.RequestContext(), form: fullForm(f.roomOnly.ID, 4), wantErr: evaluation.ErrNotAssigned},
		{name: "outside program", rc: f.chair.RequestContext(), form: fullForm(f.none.ID, 4), wantErr: evaluation.ErrProgramMismatch},
		{name: "never scheduled", rc: f.dean.RequestContext(), form: fullForm(f.none.ID, 4), wantErr: evaluation.ErrNoScheduleSet},
		{name: "rating out of scale", rc: f.dean.RequestContext(), form: badRating, wantValid: true},
		{name: "unknown teacher", rc: f.dean.RequestContext(), form: fullForm("ghost", 4), wantValid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.rc, tt.form)
			switch {
			case tt.wantValid:
				if !core.IsValidationError(err) {
					t.Errorf("Submit() error = %v, want a validation error", err)
				}
			case errors.Cause(err) != tt.wantErr:
				t.Errorf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if n := f.count(t, "evaluations"); n != 0 {
		t.Errorf("rejected submissions wrote %d evaluations", n)
	}
	if calls := hook.calls(); len(calls) != 0 {
		t.Errorf("hooks ran for rejected submissions: %v", calls)
	}
}

func TestService_SubmitAllowed(t *testing.T) {
	f := setup(t)
	svc := f.service(nil)

	tests := []struct {
		name string
		rc   user.RequestContext
		tchr teacher.Teacher
	}{
		{name: "assigned chairperson", rc: f.chair.RequestContext(), tchr: f.scheduled},
		{name: "room without a date", rc: f.dean.RequestContext(), tchr: f.roomOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), tt.rc, fullForm(tt.tchr.ID, 3)); err != nil {
				t.Errorf("Submit() error = %v", err)
			}
		})
	}
}

func TestService_SubmitIsAtomic(t *testing.T) {
	f := setup(t)

	for _, step := range []string{"details", "averages", "qualitative"} {
		t.Run(step, func(t *testing.T) {
			hook := new(recordingHook)
			svc := f.service(failingRepo{Repository: f.repo, failOn: step}, hook)

			_, err := svc.Submit(context.Background(), f.dean.RequestContext(), fullForm(f.scheduled.ID, 5))
			if !evaluation.IsPersistenceError(err) {
				t.Fatalf("Submit() error = %v, want a persistence error", err)
			}
			if errors.Cause(err).(*evaluation.PersistenceError).Err == nil {
				t.Error("persistence error has no cause")
			}
			if n := f.count(t, "evaluations"); n != 0 {
				t.Errorf("evaluations = %d, want 0", n)
			}
			if n := f.count(t, "evaluation_details"); n != 0 {
				t.Errorf("evaluation_details = %d, want 0", n)
			}
			if calls := hook.calls(); len(calls) != 0 {
				t.Errorf("hooks ran after a rollback: %v", calls)
			}
		})
	}
}

func TestService_CriterionTextIsCaptured(t *testing.T) {
	f := setup(t)
	svc := f.service(nil)
	ctx := context.Background()

	form := evaluation.Form{Header: evaluation.Header{TeacherID: f.scheduled.ID}, Ratings: make(evaluation.Ratings)}
	form.Ratings.Set(evaluation.Assessment, 0, evaluation.Rating{Value: 5})

	before, err := svc.Submit(ctx, f.dean.RequestContext(), form)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err = evaluation.SetCriterionText(ctx, f.criteria, evaluation.Criterion{Category: evaluation.Assessment, Index: 0, Text: "Checks understanding"}); err != nil {
		t.Fatalf("SetCriterionText() error = %v", err)
	}
	after, err := svc.Submit(ctx, f.dean.RequestContext(), form)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	old := evaluation.NewCatalog(evaluation.DefaultCriteria()).Lookup(evaluation.Assessment, 0)
	for id, want := range map[string]string{before: old, after: "Checks understanding"} {
		details, err := f.repo.QueryDetails(ctx, id)
		if err != nil || len(details) != 1 {
			t.Fatalf("QueryDetails() = (%v, %v)", details, err)
		}
		if details[0].CriterionText != want {
			t.Errorf("evaluation %s text = %q, want %q", id, details[0].CriterionText, want)
		}
	}
}

func TestService_SaveDraft(t *testing.T) {
	f := setup(t)
	hook := new(recordingHook)
	svc := f.service(nil, hook)
	ctx := context.Background()

	form := fullForm(f.roomOnly.ID, 2)
	form.Ratings = make(evaluation.Ratings)
	form.Ratings.Set(evaluation.Management, 0, evaluation.Rating{Value: 2})

	// neither assigned nor in schedule checks
	id, err := svc.SaveDraft(ctx, f.chair.RequestContext(), form)
	if err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	ev, err := svc.Get(ctx, f.chair.RequestContext(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ev.Status != evaluation.StatusDraft || len(ev.Details) != 1 {
		t.Errorf("Get() = %+v", ev)
	}
	if ev.Communications.Valid || !ev.Management.Valid || ev.Management.Float64 != 2 || ev.Overall.Float64 != 2 {
		t.Errorf("Get() averages = %+v", ev.Averages)
	}
	if calls := hook.calls(); len(calls) != 0 {
		t.Errorf("hooks ran for a draft: %v", calls)
	}

	if _, err = svc.SaveDraft(ctx, f.tchrUsr.RequestContext(), form); errors.Cause(err) != evaluation.ErrNotEvaluator {
		t.Errorf("SaveDraft() error = %v, wantErr %v", err, evaluation.ErrNotEvaluator)
	}
}

func TestService_SubmitDraft(t *testing.T) {
	f := setup(t)
	hook := new(recordingHook)
	svc := f.service(nil, hook)
	ctx := context.Background()

	draftForm := fullForm(f.none.ID, 2)
	id, err := svc.SaveDraft(ctx, f.dean.RequestContext(), draftForm)
	if err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	final := evaluation.Form{Header: evaluation.Header{SubjectObserved: "Geometry"}, Ratings: make(evaluation.Ratings)}
	final.Ratings.Set(evaluation.Communications, 1, evaluation.Rating{Value: 5})

	t.Run("other evaluator", func(t *testing.T) {
		if _, err := svc.SubmitDraft(ctx, f.chair.RequestContext(), id, final); errors.Cause(err) != evaluation.ErrNotFound {
			t.Errorf("SubmitDraft() error = %v, wantErr %v", err, evaluation.ErrNotFound)
		}
	})
	t.Run("unknown draft", func(t *testing.T) {
		if _, err := svc.SubmitDraft(ctx, f.dean.RequestContext(), "ghost", final); errors.Cause(err) != evaluation.ErrNotFound {
			t.Errorf("SubmitDraft() error = %v, wantErr %v", err, evaluation.ErrNotFound)
		}
	})
	t.Run("teacher not scheduled", func(t *testing.T) {
		if _, err := svc.SubmitDraft(ctx, f.dean.RequestContext(), id, final); errors.Cause(err) != evaluation.ErrNoScheduleSet {
			t.Errorf("SubmitDraft() error = %v, wantErr %v", err, evaluation.ErrNoScheduleSet)
		}
	})

	if err = f.teachers.SetSchedule(ctx, f.none.ID, testutil.Schedule(time.Now())); err != nil {
		t.Fatalf("SetSchedule() error = %v", err)
	}

	t.Run("submit", func(t *testing.T) {
		if _, err := svc.SubmitDraft(ctx, f.dean.RequestContext(), id, final); err != nil {
			t.Fatalf("SubmitDraft() error = %v", err)
		}
		ev, err := svc.Get(ctx, f.dean.RequestContext(), id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ev.Status != evaluation.StatusSubmitted || ev.TeacherID != f.none.ID || ev.SubjectObserved != "Geometry" {
			t.Errorf("Get() = %+v", ev)
		}
		if len(ev.Details) != 1 || ev.Details[0].Rating != 5 {
			t.Errorf("Get() details = %+v, want the submitted ones only", ev.Details)
		}
		if ev.Overall.Float64 != 5 || ev.Management.Valid || ev.Strengths != "" {
			t.Errorf("Get() = %+v", ev)
		}
		if calls := hook.calls(); len(calls) != 1 || calls[0] != id {
			t.Errorf("hook calls = %v, want [%s]", calls, id)
		}
	})
	t.Run("already submitted", func(t *testing.T) {
		if _, err := svc.SubmitDraft(ctx, f.dean.RequestContext(), id, final); errors.Cause(err) != evaluation.ErrNotDraft {
			t.Errorf("SubmitDraft() error = %v, wantErr %v", err, evaluation.ErrNotDraft)
		}
	})
}

func TestService_Recommendations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		recommender fakeRecommender
		wantText    string
	}{
		{name: "stored", recommender: fakeRecommender{text: "Vary the activities."}, wantText: "Vary the activities."},
		{name: "failure does not fail the submission", recommender: fakeRecommender{err: errBoom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := f.service(nil, evaluation.NewRecommendationBridge(tt.recommender, f.repo))
			errsBefore := len(f.logger.Entries("error"))

			id, err := svc.Submit(ctx, f.dean.RequestContext(), fullForm(f.scheduled.ID, 4))
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			ev, err := f.repo.GetEvaluation(ctx, id)
			if err != nil {
				t.Fatalf("GetEvaluation() error = %v", err)
			}
			if ev.AIRecommendations.String != tt.wantText || ev.AIRecommendations.Valid != (tt.wantText != "") {
				t.Errorf("ai_recommendations = %v, want %q", ev.AIRecommendations, tt.wantText)
			}

			logged := f.logger.Entries("error")[errsBefore:]
			if tt.recommender.err == nil {
				if len(logged) != 0 {
					t.Errorf("unexpected errors logged: %v", logged)
				}
				return
			}
			if len(logged) != 1 {
				t.Fatalf("errors logged = %v, want 1", logged)
			}
			if _, ok := logged[0].Args[0].(*evaluation.RecommendationError); !ok {
				t.Errorf("logged %T, want a *evaluation.RecommendationError", logged[0].Args[0])
			}
		})
	}
}

func TestService_Visibility(t *testing.T) {
	f := setup(t)
	svc := f.service(nil)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, f.dean.RequestContext(), fullForm(f.scheduled.ID, 4))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	draft, err := svc.SaveDraft(ctx, f.dean.RequestContext(), fullForm(f.scheduled.ID, 3))
	if err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	other, err := svc.Submit(ctx, f.chair.RequestContext(), fullForm(f.scheduled.ID, 5))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	t.Run("get", func(t *testing.T) {
		tests := []struct {
			name    string
			rc      user.RequestContext
			id      string
			wantErr error
		}{
			{name: "owner draft", rc: f.dean.RequestContext(), id: draft},
			{name: "teacher submitted", rc: f.tchrUsr.RequestContext(), id: submitted},
			{name: "teacher draft", rc: f.tchrUsr.RequestContext(), id: draft, wantErr: evaluation.ErrNotFound},
			{name: "edp submitted", rc: f.edp.RequestContext(), id: other},
			{name: "edp draft", rc: f.edp.RequestContext(), id: draft, wantErr: evaluation.ErrNotFound},
			{name: "other evaluator", rc: f.chair.RequestContext(), id: submitted, wantErr: evaluation.ErrNotFound},
			{name: "anonymous", rc: user.RequestContext{}, id: submitted, wantErr: evaluation.ErrUnauthorized},
			{name: "unknown", rc: f.dean.RequestContext(), id: "ghost", wantErr: evaluation.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := svc.Get(ctx, tt.rc, tt.id); errors.Cause(err) != tt.wantErr {
					t.Errorf("Get() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			name   string
			rc     user.RequestContext
			filter evaluation.QueryFilter
			want   []string
		}{
			{name: "evaluator sees own", rc: f.dean.RequestContext(), want: []string{draft, submitted}},
			{name: "evaluator filters status", rc: f.dean.RequestContext(), filter: evaluation.QueryFilter{Status: evaluation.StatusDraft}, want: []string{draft}},
			{name: "evaluator filter cannot widen", rc: f.chair.RequestContext(), filter: evaluation.QueryFilter{EvaluatorID: f.dean.ID}, want: []string{other}},
			{name: "teacher sees submitted", rc: f.tchrUsr.RequestContext(), want: []string{other, submitted}},
			{name: "edp sees submitted", rc: f.edp.RequestContext(), filter: evaluation.QueryFilter{Status: evaluation.StatusDraft}, want: []string{other, submitted}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				evs, err := svc.Query(ctx, tt.rc, tt.filter, []core.DBOrdering{{Field: "created_at", Ascending: true}})
				if err != nil {
					t.Fatalf("Query() error = %v", err)
				}
				got := make(map[string]bool, len(evs))
				for _, ev := range evs {
					got[ev.ID] = true
				}
				if len(got) != len(tt.want) {
					t.Fatalf("Query() = %v, want %v", got, tt.want)
				}
				for _, id := range tt.want {
					if !got[id] {
						t.Errorf("Query() is missing %s", id)
					}
				}
			})
		}
	})

	t.Run("query ordering", func(t *testing.T) {
		_, err := svc.Query(ctx, f.dean.RequestContext(), evaluation.QueryFilter{}, []core.DBOrdering{{Field: "teacher_id; DROP TABLE users"}})
		if !core.IsValidationError(err) {
			t.Errorf("Query() error = %v, want a validation error", err)
		}
	})
}

func TestStore_SaveDetailsReplacesKeys(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := evaluation.NewStore(f.repo, f.criteria)

	id, err := store.CreateHeader(ctx, f.db, evaluation.Header{TeacherID: f.scheduled.ID}, f.dean.ID, evaluation.StatusDraft)
	if err != nil {
		t.Fatalf("CreateHeader() error = %v", err)
	}

	for _, value := range []int{2, 4} {
		ratings := make(evaluation.Ratings)
		ratings.Set(evaluation.Management, 3, evaluation.Rating{Value: value})
		ratings.Set(evaluation.Management, 12, evaluation.Rating{Value: value}) // outside the catalog
		if err = store.SaveDetails(ctx, f.db, id, ratings); err != nil {
			t.Fatalf("SaveDetails() error = %v", err)
		}
	}

	details, err := f.repo.QueryDetails(ctx, id)
	if err != nil {
		t.Fatalf("QueryDetails() error = %v", err)
	}
	if len(details) != 1 || details[0].CriterionIndex != 3 || details[0].Rating != 4 {
		t.Errorf("QueryDetails() = %+v, want one management[3] row rated 4", details)
	}

	avgs, err := store.ComputeAverages(ctx, f.db, id)
	if err != nil {
		t.Fatalf("ComputeAverages() error = %v", err)
	}
	if avgs.Management.Float64 != 4 || avgs.Communications.Valid || avgs.Overall.Float64 != 4 {
		t.Errorf("ComputeAverages() = %+v", avgs)
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status evaluation.Status
		want   evaluation.Result
	}{
		{name: "submitted", id: "e1", status: evaluation.StatusSubmitted, want: evaluation.Result{Success: true, EvaluationID: "e1", Message: "Evaluation submitted successfully"}},
		{name: "draft", id: "e2", status: evaluation.StatusDraft, want: evaluation.Result{Success: true, EvaluationID: "e2", Message: "Draft saved successfully"}},
		{name: "failure", err: evaluation.ErrNoScheduleSet, want: evaluation.Result{Message: evaluation.ErrNoScheduleSet.Error()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluation.NewResult(tt.id, tt.err, tt.status); got != tt.want {
				t.Errorf("NewResult() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
