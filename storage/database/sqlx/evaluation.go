package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
)

const (
	evaluationColumns = "id, teacher_id, evaluator_id, status, " +
		"academic_year, semester, subject_observed, observation_date, observation_type, " +
		"seat_plan, course_syllabi, others_requirement, others_specify, " +
		"strengths, improvement_areas, recommendations, agreement, " +
		"rater_printed_name, rater_signature, rater_date, faculty_printed_name, faculty_signature, faculty_date, " +
		"communications_avg, management_avg, assessment_avg, overall_avg, ai_recommendations, created_at, updated_at"

	detailColumns = "evaluation_id, category, criterion_index, criterion_text, rating, comment"
)

type evaluationRow struct {
	ID                 string       `db:"id"`
	TeacherID          string       `db:"teacher_id"`
	EvaluatorID        string       `db:"evaluator_id"`
	Status             string       `db:"status"`
	AcademicYear       string       `db:"academic_year"`
	Semester           string       `db:"semester"`
	SubjectObserved    string       `db:"subject_observed"`
	ObservationDate    null.Time    `db:"observation_date"`
	ObservationType    string       `db:"observation_type"`
	SeatPlan           bool         `db:"seat_plan"`
	CourseSyllabi      bool         `db:"course_syllabi"`
	OthersRequirement  bool         `db:"others_requirement"`
	OthersSpecify      string       `db:"others_specify"`
	Strengths          string       `db:"strengths"`
	ImprovementAreas   string       `db:"improvement_areas"`
	Recommendations    string       `db:"recommendations"`
	Agreement          string       `db:"agreement"`
	RaterPrintedName   string       `db:"rater_printed_name"`
	RaterSignature     string       `db:"rater_signature"`
	RaterDate          null.Time    `db:"rater_date"`
	FacultyPrintedName string       `db:"faculty_printed_name"`
	FacultySignature   string       `db:"faculty_signature"`
	FacultyDate        null.Time    `db:"faculty_date"`
	CommunicationsAvg  null.Float64 `db:"communications_avg"`
	ManagementAvg      null.Float64 `db:"management_avg"`
	AssessmentAvg      null.Float64 `db:"assessment_avg"`
	OverallAvg         null.Float64 `db:"overall_avg"`
	AIRecommendations  null.String  `db:"ai_recommendations"`
	CreatedAt          null.Time    `db:"created_at"`
	UpdatedAt          null.Time    `db:"updated_at"`
}

type detailRow struct {
	EvaluationID   string `db:"evaluation_id"`
	Category       string `db:"category"`
	CriterionIndex int    `db:"criterion_index"`
	CriterionText  string `db:"criterion_text"`
	Rating         int    `db:"rating"`
	Comment        string `db:"comment"`
}

type evaluationRepository struct {
	repository
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(exec core.DBExecutor) *evaluationRepository {
	return &evaluationRepository{repository{exec: exec}}
}

func utcTime(t null.Time) null.Time {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}

func (repo evaluationRepository) boil(ev evaluation.Evaluation) evaluationRow {
	return evaluationRow{
		ID:                 ev.ID,
		TeacherID:          ev.TeacherID,
		EvaluatorID:        ev.EvaluatorID,
		Status:             string(ev.Status),
		AcademicYear:       ev.AcademicYear,
		Semester:           ev.Semester,
		SubjectObserved:    ev.SubjectObserved,
		ObservationDate:    utcTime(ev.ObservationDate),
		ObservationType:    string(ev.ObservationType),
		SeatPlan:           ev.SeatPlan,
		CourseSyllabi:      ev.CourseSyllabi,
		OthersRequirement:  ev.OthersRequirement,
		OthersSpecify:      ev.OthersSpecify,
		Strengths:          ev.Strengths,
		ImprovementAreas:   ev.ImprovementAreas,
		Recommendations:    ev.Recommendations,
		Agreement:          ev.Agreement,
		RaterPrintedName:   ev.RaterPrintedName,
		RaterSignature:     ev.RaterSignature,
		RaterDate:          utcTime(ev.RaterDate),
		FacultyPrintedName: ev.FacultyPrintedName,
		FacultySignature:   ev.FacultySignature,
		FacultyDate:        utcTime(ev.FacultyDate),
		CommunicationsAvg:  ev.Averages.Communications,
		ManagementAvg:      ev.Averages.Management,
		AssessmentAvg:      ev.Averages.Assessment,
		OverallAvg:         ev.Averages.Overall,
		AIRecommendations:  ev.AIRecommendations,
		CreatedAt:          null.NewTime(ev.CreatedAt.UTC(), !ev.CreatedAt.IsZero()),
		UpdatedAt:          null.NewTime(ev.UpdatedAt.UTC(), !ev.UpdatedAt.IsZero()),
	}
}

func (repo evaluationRepository) unboil(row evaluationRow) evaluation.Evaluation {
	return evaluation.Evaluation{
		ID:          row.ID,
		EvaluatorID: row.EvaluatorID,
		Status:      evaluation.Status(row.Status),
		Header: evaluation.Header{
			TeacherID:         row.TeacherID,
			AcademicYear:      row.AcademicYear,
			Semester:          row.Semester,
			SubjectObserved:   row.SubjectObserved,
			ObservationDate:   utcTime(row.ObservationDate),
			ObservationType:   evaluation.ObservationType(row.ObservationType),
			SeatPlan:          row.SeatPlan,
			CourseSyllabi:     row.CourseSyllabi,
			OthersRequirement: row.OthersRequirement,
			OthersSpecify:     row.OthersSpecify,
		},
		Qualitative: evaluation.Qualitative{
			Strengths:          row.Strengths,
			ImprovementAreas:   row.ImprovementAreas,
			Recommendations:    row.Recommendations,
			Agreement:          row.Agreement,
			RaterPrintedName:   row.RaterPrintedName,
			RaterSignature:     row.RaterSignature,
			RaterDate:          utcTime(row.RaterDate),
			FacultyPrintedName: row.FacultyPrintedName,
			FacultySignature:   row.FacultySignature,
			FacultyDate:        utcTime(row.FacultyDate),
		},
		Averages: evaluation.Averages{
			Communications: row.CommunicationsAvg,
			Management:     row.ManagementAvg,
			Assessment:     row.AssessmentAvg,
			Overall:        row.OverallAvg,
		},
		AIRecommendations: row.AIRecommendations,
		CreatedAt:         row.CreatedAt.Time.UTC(),
		UpdatedAt:         row.UpdatedAt.Time.UTC(),
	}
}

func (repo evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	ev.ID = uuid.New().String()
	r := repo.boil(ev)
	_, err := repo.exe(ctx, exec,
		"INSERT INTO evaluations ("+evaluationColumns+") VALUES "+
			"(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.TeacherID, r.EvaluatorID, r.Status,
		r.AcademicYear, r.Semester, r.SubjectObserved, r.ObservationDate, r.ObservationType,
		r.SeatPlan, r.CourseSyllabi, r.OthersRequirement, r.OthersSpecify,
		r.Strengths, r.ImprovementAreas, r.Recommendations, r.Agreement,
		r.RaterPrintedName, r.RaterSignature, r.RaterDate, r.FacultyPrintedName, r.FacultySignature, r.FacultyDate,
		r.CommunicationsAvg, r.ManagementAvg, r.AssessmentAvg, r.OverallAvg, r.AIRecommendations, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "inserting evaluation")
	}
	return repo.unboil(r), nil
}

func (repo evaluationRepository) UpdateDraftHeader(ctx context.Context, id string, hdr evaluation.Header, status evaluation.Status, exec ...core.DBExecutor) (bool, error) {
	r := repo.boil(evaluation.Evaluation{Header: hdr})
	cnt, err := repo.affected(ctx, exec,
		"UPDATE evaluations SET teacher_id = ?, status = ?, academic_year = ?, semester = ?, subject_observed = ?, "+
			"observation_date = ?, observation_type = ?, seat_plan = ?, course_syllabi = ?, others_requirement = ?, "+
			"others_specify = ?, updated_at = ? WHERE id = ? AND status = ?",
		r.TeacherID, string(status), r.AcademicYear, r.Semester, r.SubjectObserved,
		r.ObservationDate, r.ObservationType, r.SeatPlan, r.CourseSyllabi, r.OthersRequirement,
		r.OthersSpecify, nowUTC(), id, string(evaluation.StatusDraft),
	)
	if err != nil {
		return false, errors.Wrap(err, "updating evaluation header")
	}
	return cnt > 0, nil
}

// SaveDetails deletes the row of each key before inserting it, which works the same on every engine.
func (repo evaluationRepository) SaveDetails(ctx context.Context, details []evaluation.Detail, exec ...core.DBExecutor) error {
	for _, d := range details {
		_, err := repo.exe(ctx, exec,
			"DELETE FROM evaluation_details WHERE evaluation_id = ? AND category = ? AND criterion_index = ?",
			d.EvaluationID, string(d.Category), d.CriterionIndex,
		)
		if err != nil {
			return errors.Wrapf(err, "deleting detail %s[%d]", d.Category, d.CriterionIndex)
		}
		_, err = repo.exe(ctx, exec,
			"INSERT INTO evaluation_details ("+detailColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			d.EvaluationID, string(d.Category), d.CriterionIndex, d.CriterionText, d.Rating, d.Comment,
		)
		if err != nil {
			return errors.Wrapf(err, "inserting detail %s[%d]", d.Category, d.CriterionIndex)
		}
	}
	return nil
}

func (repo evaluationRepository) DeleteDetails(ctx context.Context, evaluationID string, exec ...core.DBExecutor) error {
	_, err := repo.exe(ctx, exec, "DELETE FROM evaluation_details WHERE evaluation_id = ?", evaluationID)
	return errors.Wrap(err, "deleting details")
}

func (repo evaluationRepository) QueryDetails(ctx context.Context, evaluationID string, exec ...core.DBExecutor) ([]evaluation.Detail, error) {
	var rows []detailRow
	err := repo.sel(ctx, exec, &rows,
		"SELECT "+detailColumns+" FROM evaluation_details WHERE evaluation_id = ? ORDER BY category, criterion_index",
		evaluationID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying details")
	}
	details := make([]evaluation.Detail, 0, len(rows))
	for _, row := range rows {
		details = append(details, evaluation.Detail{
			EvaluationID:   row.EvaluationID,
			Category:       evaluation.Category(row.Category),
			CriterionIndex: row.CriterionIndex,
			CriterionText:  row.CriterionText,
			Rating:         row.Rating,
			Comment:        row.Comment,
		})
	}
	return details, nil
}

func (repo evaluationRepository) update(ctx context.Context, exec []core.DBExecutor, id, set string, args ...interface{}) error {
	args = append(args, nowUTC(), id)
	cnt, err := repo.affected(ctx, exec, "UPDATE evaluations SET "+set+", updated_at = ? WHERE id = ?", args...)
	if err != nil {
		return err
	}
	if cnt == 0 {
		return evaluation.ErrNotFound
	}
	return nil
}

func (repo evaluationRepository) SetAverages(ctx context.Context, id string, avgs evaluation.Averages, exec ...core.DBExecutor) error {
	err := repo.update(ctx, exec, id,
		"communications_avg = ?, management_avg = ?, assessment_avg = ?, overall_avg = ?",
		avgs.Communications, avgs.Management, avgs.Assessment, avgs.Overall,
	)
	return errors.Wrap(err, "updating averages")
}

func (repo evaluationRepository) UpdateQualitative(ctx context.Context, id string, q evaluation.Qualitative, exec ...core.DBExecutor) error {
	err := repo.update(ctx, exec, id,
		"strengths = ?, improvement_areas = ?, recommendations = ?, agreement = ?, rater_printed_name = ?, "+
			"rater_signature = ?, rater_date = ?, faculty_printed_name = ?, faculty_signature = ?, faculty_date = ?",
		q.Strengths, q.ImprovementAreas, q.Recommendations, q.Agreement, q.RaterPrintedName,
		q.RaterSignature, utcTime(q.RaterDate), q.FacultyPrintedName, q.FacultySignature, utcTime(q.FacultyDate),
	)
	return errors.Wrap(err, "updating qualitative fields")
}

func (repo evaluationRepository) SetAIRecommendations(ctx context.Context, id string, text string, exec ...core.DBExecutor) error {
	err := repo.update(ctx, exec, id, "ai_recommendations = ?", null.StringFrom(text))
	return errors.Wrap(err, "updating ai recommendations")
}

func (repo evaluationRepository) GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	var row evaluationRow
	if err := repo.get(ctx, exec, &row, "SELECT "+evaluationColumns+" FROM evaluations WHERE id = ?", id); err != nil {
		return evaluation.Evaluation{}, trapNoRowsErr(err, evaluation.ErrNotFound, "finding evaluation")
	}
	return repo.unboil(row), nil
}

func (repo evaluationRepository) QueryEvaluations(ctx context.Context, filter evaluation.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]evaluation.Evaluation, error) {
	var w where
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.EvaluatorID != "" {
		w.add("evaluator_id = ?", filter.EvaluatorID)
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	if filter.AcademicYear != "" {
		w.add("academic_year = ?", filter.AcademicYear)
	}
	if filter.Semester != "" {
		w.add("semester = ?", filter.Semester)
	}

	var rows []evaluationRow
	q := "SELECT " + evaluationColumns + " FROM evaluations" + w.String() + orderBy(ordering, "created_at DESC, id")
	if err := repo.sel(ctx, exec, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	evs := make([]evaluation.Evaluation, 0, len(rows))
	for _, row := range rows {
		evs = append(evs, repo.unboil(row))
	}
	return evs, nil
}
