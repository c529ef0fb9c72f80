package evaluation

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
)

type Category string

// Categories
const (
	Communications Category = "communications"
	Management     Category = "management"
	Assessment     Category = "assessment"
)

// Categories lists every Category in form order.
var Categories = []Category{Communications, Management, Assessment}

// criteriaCount is the number of criteria of each Category. Indexes run from 0 to count-1.
var criteriaCount = map[Category]int{
	Communications: 5,
	Management:     12,
	Assessment:     6,
}

func ParseCategory(s string) (Category, bool) {
	cat := Category(core.CleanString(s, true /* lower */))
	_, ok := criteriaCount[cat]
	return cat, ok
}

// CriteriaCount returns 0 for unknown categories.
func (c Category) CriteriaCount() int {
	return criteriaCount[c]
}

func (c Category) HasIndex(idx int) bool {
	return idx >= 0 && idx < criteriaCount[c]
}

type Criterion struct {
	Category Category `json:"category"`
	Index    int      `json:"index"`
	Text     string   `json:"text"`
}

var defaultTexts = map[Category][]string{
	Communications: {
		"Uses an audible voice that can be heard at the back of the room.",
		"Speaks fluently in the language of instruction.",
		"Facilitates a dynamic discussion.",
		"Uses engaging non-verbal cues (facial expression, gestures).",
		"Uses words and expressions suited to the level of the students.",
	},
	Management: {
		"The TILO (Topic Intended Learning Outcomes) are clearly presented.",
		"Recall and connects previous lessons to the new lessons.",
		"The topic/lesson is introduced in an interesting and engaging way.",
		"Uses current issues, real life and local examples to enrich class discussion.",
		"Focuses class discussion on key concepts of the lesson.",
		"Encourages active participation among students and asks questions about the topic.",
		"Uses current instructional strategies and resources.",
		"Designs teaching aids that facilitate understanding of key concepts.",
		"Adapts teaching approach in the light of student feedback and reactions.",
		"Aids students using thought-provoking questions (Art of Questioning).",
		"Integrate the institutional core values in the lessons.",
		"Conduct the lesson using the principle of SMART.",
	},
	Assessment: {
		"Monitors students' understanding on key concepts discussed.",
		"Uses assessment tool that relates specific course competencies stated in the syllabus.",
		"Design test/quarter/assignments and other assessment tasks that are criterion-referenced.",
		"Introduces varied activities that will answer the differentiated needs to the learners with varied learning style.",
		"Conducts normative assessment before evaluating and grading the learner's performance outcome.",
		"Monitors the formative assessment results and find ways to ensure learning for the learners.",
	},
}

// DefaultCriteria returns the built-in catalog, ordered by category and index.
func DefaultCriteria() []Criterion {
	var criteria []Criterion
	for _, cat := range Categories {
		for idx, text := range defaultTexts[cat] {
			criteria = append(criteria, Criterion{Category: cat, Index: idx, Text: text})
		}
	}
	return criteria
}

type criterionKey struct {
	category Category
	index    int
}

// Catalog is a read-only snapshot of criterion texts.
type Catalog struct {
	texts map[criterionKey]string
}

func NewCatalog(criteria []Criterion) *Catalog {
	texts := make(map[criterionKey]string, len(criteria))
	for _, c := range criteria {
		texts[criterionKey{c.Category, c.Index}] = c.Text
	}
	return &Catalog{texts: texts}
}

// Lookup returns "" when the catalog has no such criterion.
func (cat *Catalog) Lookup(category Category, index int) string {
	if cat == nil {
		return ""
	}
	return cat.texts[criterionKey{category, index}]
}

// Criteria returns the catalog entries, ordered by category and index.
func (cat *Catalog) Criteria() []Criterion {
	criteria := make([]Criterion, 0, len(cat.texts))
	for key, text := range cat.texts {
		criteria = append(criteria, Criterion{Category: key.category, Index: key.index, Text: text})
	}
	order := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		order[c] = i
	}
	sort.Slice(criteria, func(i, j int) bool {
		if criteria[i].Category != criteria[j].Category {
			return order[criteria[i].Category] < order[criteria[j].Category]
		}
		return criteria[i].Index < criteria[j].Index
	})
	return criteria
}

type CriteriaRepository interface {
	QueryCriteria(ctx context.Context, exec ...core.DBExecutor) ([]Criterion, error)
	CreateCriterion(ctx context.Context, c Criterion, exec ...core.DBExecutor) error
	UpdateCriterionText(ctx context.Context, c Criterion, exec ...core.DBExecutor) error
}

// LoadCatalog reads the stored catalog.
func LoadCatalog(ctx context.Context, repo CriteriaRepository, exec ...core.DBExecutor) (*Catalog, error) {
	criteria, err := repo.QueryCriteria(ctx, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "querying criteria")
	}
	return NewCatalog(criteria), nil
}

// SeedCriteria stores the DefaultCriteria that are missing. Existing texts are left untouched.
func SeedCriteria(ctx context.Context, repo CriteriaRepository) (int, error) {
	catalog, err := LoadCatalog(ctx, repo)
	if err != nil {
		return 0, err
	}
	var created int
	for _, c := range DefaultCriteria() {
		if _, ok := catalog.texts[criterionKey{c.Category, c.Index}]; ok {
			continue
		}
		if err = repo.CreateCriterion(ctx, c); err != nil {
			return created, errors.Wrapf(err, "creating criterion %s[%d]", c.Category, c.Index)
		}
		created++
	}
	return created, nil
}

// SetCriterionText changes the text future evaluations capture.
func SetCriterionText(ctx context.Context, repo CriteriaRepository, c Criterion) error {
	c.Text = core.CleanString(c.Text)
	if !c.Category.HasIndex(c.Index) {
		return core.NewValidationError(nil, core.FieldError{Field: "index", Error: "no such criterion"})
	}
	if c.Text == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "text", Error: "this field cannot be blank"})
	}
	return repo.UpdateCriterionText(ctx, c)
}
