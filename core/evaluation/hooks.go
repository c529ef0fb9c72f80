package evaluation

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
)

// CompletionHook runs after a submitted evaluation is committed. Its errors are only logged.
type CompletionHook interface {
	Name() string
	OnSubmitted(ctx context.Context, ev Evaluation) error
}

type (
	RatedCriterion struct {
		Category Category `json:"category"`
		Index    int      `json:"index"`
		Text     string   `json:"text"`
		Rating   int      `json:"rating"`
		Comment  string   `json:"comment,omitempty"`
	}

	// RecommendationRequest is the evaluation content sent to the recommendation service.
	RecommendationRequest struct {
		EvaluationID     string           `json:"evaluation_id"`
		TeacherID        string           `json:"teacher_id"`
		SubjectObserved  string           `json:"subject_observed"`
		AcademicYear     string           `json:"academic_year"`
		Semester         string           `json:"semester"`
		Ratings          []RatedCriterion `json:"ratings"`
		Averages         Averages         `json:"averages"`
		Strengths        string           `json:"strengths"`
		ImprovementAreas string           `json:"improvement_areas"`
		Recommendations  string           `json:"recommendations"`
	}

	// Recommender generates recommendation text for an evaluation.
	Recommender interface {
		Generate(ctx context.Context, req RecommendationRequest) (string, error)
	}
)

func newRecommendationRequest(ev Evaluation) RecommendationRequest {
	ratings := make([]RatedCriterion, 0, len(ev.Details))
	for _, d := range ev.Details {
		ratings = append(ratings, RatedCriterion{
			Category: d.Category,
			Index:    d.CriterionIndex,
			Text:     d.CriterionText,
			Rating:   d.Rating,
			Comment:  d.Comment,
		})
	}
	return RecommendationRequest{
		EvaluationID:     ev.ID,
		TeacherID:        ev.TeacherID,
		SubjectObserved:  ev.SubjectObserved,
		AcademicYear:     ev.AcademicYear,
		Semester:         ev.Semester,
		Ratings:          ratings,
		Averages:         ev.Averages,
		Strengths:        ev.Strengths,
		ImprovementAreas: ev.ImprovementAreas,
		Recommendations:  ev.Recommendations,
	}
}

// RecommendationBridge stores generated recommendations on submitted evaluations.
type RecommendationBridge struct {
	recommender Recommender
	repo        Repository
}

var _ CompletionHook = (*RecommendationBridge)(nil) // interface compliance check

func NewRecommendationBridge(recommender Recommender, repo Repository) *RecommendationBridge {
	return &RecommendationBridge{recommender: recommender, repo: repo}
}

func (b *RecommendationBridge) Name() string { return "recommendations" }

func (b *RecommendationBridge) OnSubmitted(ctx context.Context, ev Evaluation) error {
	text, err := b.recommender.Generate(ctx, newRecommendationRequest(ev))
	if err != nil {
		return &RecommendationError{EvaluationID: ev.ID, Err: err}
	}
	if err = b.repo.SetAIRecommendations(ctx, ev.ID, text); err != nil {
		return &RecommendationError{EvaluationID: ev.ID, Err: errors.Wrap(err, "storing recommendations")}
	}
	return nil
}

const submittedTemplate = "evaluation_submitted"

// TeacherNotifier emails teachers when an evaluation about them is submitted.
type TeacherNotifier struct {
	teachers teacher.Repository
	users    user.Repository
	mailSvc  core.EmailService
}

var _ CompletionHook = (*TeacherNotifier)(nil) // interface compliance check

func NewTeacherNotifier(teachers teacher.Repository, users user.Repository, mailSvc core.EmailService) *TeacherNotifier {
	return &TeacherNotifier{teachers: teachers, users: users, mailSvc: mailSvc}
}

func (n *TeacherNotifier) Name() string { return "teacher notice" }

// OnSubmitted does nothing for teachers without an email address.
func (n *TeacherNotifier) OnSubmitted(ctx context.Context, ev Evaluation) error {
	tchr, err := n.teachers.GetTeacher(ctx, ev.TeacherID)
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	if tchr.Email == "" {
		return nil
	}

	var evaluatorName string
	if usr, err := n.users.GetUser(ctx, user.GetFilter{ID: ev.EvaluatorID}); err == nil {
		evaluatorName = usr.Name
	}
	overall := "n/a"
	if ev.Overall.Valid {
		overall = fmt.Sprintf("%.2f", ev.Overall.Float64)
	}

	n.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: tchr.Name, Address: tchr.Email}},
		Subject:      "Classroom evaluation submitted",
		TemplateName: submittedTemplate,
		TemplateData: map[string]interface{}{
			"Name":          tchr.Name,
			"Subject":       ev.SubjectObserved,
			"Semester":      ev.Semester,
			"AcademicYear":  ev.AcademicYear,
			"EvaluatorName": evaluatorName,
			"Overall":       overall,
			"EvaluationID":  ev.ID,
		},
	})
	return nil
}
