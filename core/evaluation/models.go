package evaluation

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type Status string

// Statuses
const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusSubmitted
}

type ObservationType string

// Observation types
const (
	ObservationFormal   ObservationType = "formal"
	ObservationInformal ObservationType = "informal"
)

// Header is the identifying part of an observation form.
type Header struct {
	TeacherID         string          `json:"teacher_id" validate:"required,notblank"`
	AcademicYear      string          `json:"academic_year" validate:"max=20"`
	Semester          string          `json:"semester" validate:"max=20"`
	SubjectObserved   string          `json:"subject_observed" validate:"max=255"`
	ObservationDate   null.Time       `json:"observation_date"`
	ObservationType   ObservationType `json:"observation_type" validate:"obstype"`
	SeatPlan          bool            `json:"seat_plan"`
	CourseSyllabi     bool            `json:"course_syllabi"`
	OthersRequirement bool            `json:"others_requirement"`
	OthersSpecify     string          `json:"others_specify"`
}

// Qualitative holds the free-text and signature fields. It is always written as a whole.
type Qualitative struct {
	Strengths          string    `json:"strengths"`
	ImprovementAreas   string    `json:"improvement_areas"`
	Recommendations    string    `json:"recommendations"`
	Agreement          string    `json:"agreement"`
	RaterPrintedName   string    `json:"rater_printed_name"`
	RaterSignature     string    `json:"rater_signature"`
	RaterDate          null.Time `json:"rater_date"`
	FacultyPrintedName string    `json:"faculty_printed_name"`
	FacultySignature   string    `json:"faculty_signature"`
	FacultyDate        null.Time `json:"faculty_date"`
}

// Averages are rounded to 2 decimals. A category without ratings has a null average.
type Averages struct {
	Communications null.Float64 `json:"communications_avg"`
	Management     null.Float64 `json:"management_avg"`
	Assessment     null.Float64 `json:"assessment_avg"`
	Overall        null.Float64 `json:"overall_avg"`
}

type Evaluation struct {
	ID          string `json:"id"`
	EvaluatorID string `json:"evaluator_id"`
	Status      Status `json:"status"`
	Header
	Qualitative
	Averages
	AIRecommendations null.String `json:"ai_recommendations"`
	CreatedAt         time.Time   `json:"created_at"` // UTC
	UpdatedAt         time.Time   `json:"updated_at"` // UTC

	Details []Detail `json:"details,omitempty"`
}

// Detail is one rated criterion. CriterionText is captured when the row is written.
type Detail struct {
	EvaluationID   string   `json:"evaluation_id"`
	Category       Category `json:"category"`
	CriterionIndex int      `json:"criterion_index"`
	CriterionText  string   `json:"criterion_text"`
	Rating         int      `json:"rating"`
	Comment        string   `json:"comment"`
}

type Rating struct {
	Value   int    `json:"rating"`
	Comment string `json:"comment"`
}

// Ratings holds the answered criteria by category and index.
type Ratings map[Category]map[int]Rating

func (r Ratings) Set(cat Category, idx int, rating Rating) {
	if r[cat] == nil {
		r[cat] = make(map[int]Rating)
	}
	r[cat][idx] = rating
}

func (r Ratings) Get(cat Category, idx int) (Rating, bool) {
	rating, ok := r[cat][idx]
	return rating, ok
}

// Form is a normalized observation form, see NormalizePayload.
type Form struct {
	Header
	Ratings Ratings `json:"ratings"`
	Qualitative
}

type QueryFilter struct {
	TeacherID    string `query:"teacher_id"`
	EvaluatorID  string `query:"evaluator_id"`
	Status       Status `query:"status"`
	AcademicYear string `query:"academic_year"`
	Semester     string `query:"semester"`
}

// Result is what submission and draft operations answer with.
type Result struct {
	Success      bool   `json:"success"`
	EvaluationID string `json:"evaluation_id,omitempty"`
	Message      string `json:"message"`
}
