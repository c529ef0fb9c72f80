package evaluation

import (
	"context"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
)

const (
	submittedMessage = "Evaluation submitted successfully"
	draftMessage     = "Draft saved successfully"
)

var (
	errTeacherNotFound = core.NewValidationError(
		teacher.ErrNotFound,
		core.FieldError{Field: "teacher_id", Error: teacher.ErrNotFound.Error()},
	)

	// orderingFields maps accepted ordering names to their column.
	orderingFields = map[string]string{
		"created_at":       "created_at",
		"updated_at":       "updated_at",
		"observation_date": "observation_date",
		"academic_year":    "academic_year",
		"overall_avg":      "overall_avg",
	}
)

type (
	ServiceInterface interface {
		Submit(ctx context.Context, rc user.RequestContext, form Form) (string, error)
		SaveDraft(ctx context.Context, rc user.RequestContext, form Form) (string, error)
		SubmitDraft(ctx context.Context, rc user.RequestContext, id string, form Form) (string, error)
		Get(ctx context.Context, rc user.RequestContext, id string) (Evaluation, error)
		Query(ctx context.Context, rc user.RequestContext, filter QueryFilter, ordering []core.DBOrdering) ([]Evaluation, error)
		Criteria(ctx context.Context) ([]Criterion, error)
	}

	ServiceDeps struct {
		DB             core.DB
		Repo           Repository
		CriteriaRepo   CriteriaRepository
		UserRepo       user.Repository
		TeacherRepo    teacher.Repository
		AssignmentRepo teacher.AssignmentRepository
		Validate       *validator.Validate
		Translator     ut.Translator
		Logger         core.Logger
		Hooks          []CompletionHook
		AsyncHooks     bool // run hooks in the background
	}

	// Service is the submission orchestrator: it checks, persists and completes evaluations.
	Service struct {
		db         core.DB
		repo       Repository
		criteria   CriteriaRepository
		teachers   teacher.Repository
		store      *Store
		resolver   *Resolver
		gate       *ScheduleGate
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
		hooks      []CompletionHook
		async      bool
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(deps ServiceDeps) *Service {
	return &Service{
		db:         deps.DB,
		repo:       deps.Repo,
		criteria:   deps.CriteriaRepo,
		teachers:   deps.TeacherRepo,
		store:      NewStore(deps.Repo, deps.CriteriaRepo),
		resolver:   NewResolver(deps.UserRepo, deps.TeacherRepo, deps.AssignmentRepo),
		gate:       NewScheduleGate(deps.TeacherRepo),
		validate:   deps.Validate,
		translator: deps.Translator,
		logger:     deps.Logger,
		hooks:      deps.Hooks,
		async:      deps.AsyncHooks,
	}
}

// NewResult builds the answer of a submission or draft operation.
func NewResult(id string, err error, status Status) Result {
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	msg := submittedMessage
	if status == StatusDraft {
		msg = draftMessage
	}
	return Result{Success: true, EvaluationID: id, Message: msg}
}

func (svc *Service) checkEvaluator(rc user.RequestContext) error {
	if !rc.IsAuthenticated() {
		return ErrUnauthorized
	}
	if !rc.Capabilities().CanEvaluate {
		return ErrNotEvaluator
	}
	return nil
}

func (svc *Service) checkForm(ctx context.Context, form *Form) error {
	if err := form.Validate(svc.validate, svc.translator); err != nil {
		return err
	}
	if _, err := svc.teachers.GetTeacher(ctx, form.TeacherID); err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			return errTeacherNotFound
		}
		return errors.Wrap(err, "getting teacher")
	}
	return nil
}

// authorize runs the checks a submission needs before any write.
func (svc *Service) authorize(ctx context.Context, rc user.RequestContext, teacherID string) error {
	if err := svc.resolver.Authorize(ctx, rc, teacherID); err != nil {
		return err
	}
	return svc.gate.AssertSchedulable(ctx, teacherID)
}

// Submit stores a submitted evaluation as a single transaction, then runs the completion hooks.
func (svc *Service) Submit(ctx context.Context, rc user.RequestContext, form Form) (string, error) {
	if err := svc.checkEvaluator(rc); err != nil {
		return "", err
	}
	if err := svc.checkForm(ctx, &form); err != nil {
		return "", err
	}
	if err := svc.authorize(ctx, rc, form.TeacherID); err != nil {
		return "", err
	}

	var id string
	err := core.InTx(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if id, err = svc.store.CreateHeader(ctx, tx, form.Header, rc.UserID, StatusSubmitted); err != nil {
			return err
		}
		return svc.fill(ctx, tx, id, form)
	})
	if err != nil {
		return "", &PersistenceError{Err: err}
	}

	svc.complete(ctx, id)
	return id, nil
}

// SaveDraft stores a draft without the authorization and schedule checks. Hooks do not run.
func (svc *Service) SaveDraft(ctx context.Context, rc user.RequestContext, form Form) (string, error) {
	if err := svc.checkEvaluator(rc); err != nil {
		return "", err
	}
	if err := svc.checkForm(ctx, &form); err != nil {
		return "", err
	}

	var id string
	err := core.InTx(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if id, err = svc.store.CreateHeader(ctx, tx, form.Header, rc.UserID, StatusDraft); err != nil {
			return err
		}
		return svc.fill(ctx, tx, id, form)
	})
	if err != nil {
		return "", &PersistenceError{Err: err}
	}
	return id, nil
}

// SubmitDraft submits a draft of the evaluator with the given form, which replaces the draft content.
// An empty form teacher keeps the draft's one.
func (svc *Service) SubmitDraft(ctx context.Context, rc user.RequestContext, id string, form Form) (string, error) {
	if err := svc.checkEvaluator(rc); err != nil {
		return "", err
	}
	draft, err := svc.repo.GetEvaluation(ctx, id)
	if err != nil {
		return "", err
	}
	if draft.EvaluatorID != rc.UserID {
		return "", ErrNotFound
	}
	if draft.Status != StatusDraft {
		return "", ErrNotDraft
	}

	if core.CleanString(form.TeacherID) == "" {
		form.TeacherID = draft.TeacherID
	}
	if err = svc.checkForm(ctx, &form); err != nil {
		return "", err
	}
	if err = svc.authorize(ctx, rc, form.TeacherID); err != nil {
		return "", err
	}

	err = core.InTx(ctx, svc.db, func(tx core.DBTransactor) error {
		updated, err := svc.repo.UpdateDraftHeader(ctx, id, form.Header, StatusSubmitted, tx)
		if err != nil {
			return errors.Wrap(err, "updating draft")
		}
		if !updated {
			return ErrNotDraft
		}
		if err = svc.store.ReplaceDetails(ctx, tx, id, form.Ratings); err != nil {
			return err
		}
		if _, err = svc.store.ComputeAverages(ctx, tx, id); err != nil {
			return err
		}
		return svc.store.UpdateQualitative(ctx, tx, id, form.Qualitative)
	})
	if err != nil {
		if errors.Cause(err) == ErrNotDraft {
			return "", ErrNotDraft
		}
		return "", &PersistenceError{Err: err}
	}

	svc.complete(ctx, id)
	return id, nil
}

// fill writes the details, averages and qualitative fields of a new evaluation.
func (svc *Service) fill(ctx context.Context, tx core.DBExecutor, id string, form Form) error {
	if err := svc.store.SaveDetails(ctx, tx, id, form.Ratings); err != nil {
		return err
	}
	if _, err := svc.store.ComputeAverages(ctx, tx, id); err != nil {
		return err
	}
	return svc.store.UpdateQualitative(ctx, tx, id, form.Qualitative)
}

// complete runs the completion hooks of a committed evaluation. Failures are logged only.
func (svc *Service) complete(ctx context.Context, id string) {
	if len(svc.hooks) == 0 {
		return
	}
	run := func(ctx context.Context) {
		ev, err := svc.load(ctx, id)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("evaluation.complete(%s): %v", id, err), err)
			return
		}
		for _, hook := range svc.hooks {
			if err = hook.OnSubmitted(ctx, ev); err != nil {
				svc.logger.Error(fmt.Sprintf("evaluation hook %q (%s): %v", hook.Name(), id, err), err)
			}
		}
	}

	ctx = context.WithoutCancel(ctx)
	if svc.async {
		go run(ctx)
		return
	}
	run(ctx)
}

func (svc *Service) load(ctx context.Context, id string) (Evaluation, error) {
	ev, err := svc.repo.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if ev.Details, err = svc.repo.QueryDetails(ctx, id); err != nil {
		return Evaluation{}, errors.Wrap(err, "querying details")
	}
	return ev, nil
}

func canView(rc user.RequestContext, ev Evaluation) bool {
	if ev.EvaluatorID == rc.UserID {
		return true
	}
	if ev.Status != StatusSubmitted {
		return false
	}
	if rc.Role == user.RoleTeacher {
		return rc.TeacherID != "" && rc.TeacherID == ev.TeacherID
	}
	return rc.Capabilities().CanViewAll
}

// Get returns the evaluation with its details. Evaluations the caller may not see are not found.
func (svc *Service) Get(ctx context.Context, rc user.RequestContext, id string) (Evaluation, error) {
	if !rc.IsAuthenticated() {
		return Evaluation{}, ErrUnauthorized
	}
	ev, err := svc.load(ctx, core.CleanString(id))
	if err != nil {
		return Evaluation{}, err
	}
	if !canView(rc, ev) {
		return Evaluation{}, ErrNotFound
	}
	return ev, nil
}

// Query lists the evaluations visible to the caller matching filter.
func (svc *Service) Query(ctx context.Context, rc user.RequestContext, filter QueryFilter, ordering []core.DBOrdering) ([]Evaluation, error) {
	if !rc.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	caps := rc.Capabilities()
	switch {
	case caps.CanEvaluate:
		filter.EvaluatorID = rc.UserID
	case rc.Role == user.RoleTeacher:
		if rc.TeacherID == "" {
			return nil, nil
		}
		filter.TeacherID = rc.TeacherID
		filter.Status = StatusSubmitted
	case caps.CanViewAll:
		filter.Status = StatusSubmitted
	default:
		return nil, ErrNotEvaluator
	}

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid status"})
	}
	ords := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := orderingFields[ord.Field]
		if !ok {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: fmt.Sprintf("cannot order by %q", ord.Field)})
		}
		ords = append(ords, core.DBOrdering{Field: col, Ascending: ord.Ascending})
	}
	return svc.repo.QueryEvaluations(ctx, filter, ords)
}

func (svc *Service) Criteria(ctx context.Context) ([]Criterion, error) {
	catalog, err := LoadCatalog(ctx, svc.criteria)
	if err != nil {
		return nil, err
	}
	return catalog.Criteria(), nil
}
