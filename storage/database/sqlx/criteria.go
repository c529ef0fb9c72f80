package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
)

type criterionRow struct {
	Category string `db:"category"`
	Index    int    `db:"criterion_index"`
	Text     string `db:"criterion_text"`
}

type criteriaRepository struct {
	repository
}

var _ evaluation.CriteriaRepository = (*criteriaRepository)(nil) // interface compliance check

func NewCriteriaRepository(exec core.DBExecutor) *criteriaRepository {
	return &criteriaRepository{repository{exec: exec}}
}

func (repo criteriaRepository) QueryCriteria(ctx context.Context, exec ...core.DBExecutor) ([]evaluation.Criterion, error) {
	var rows []criterionRow
	err := repo.sel(ctx, exec, &rows,
		"SELECT category, criterion_index, criterion_text FROM evaluation_criteria ORDER BY category, criterion_index",
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying criteria")
	}
	criteria := make([]evaluation.Criterion, 0, len(rows))
	for _, row := range rows {
		criteria = append(criteria, evaluation.Criterion{
			Category: evaluation.Category(row.Category),
			Index:    row.Index,
			Text:     row.Text,
		})
	}
	return criteria, nil
}

func (repo criteriaRepository) CreateCriterion(ctx context.Context, c evaluation.Criterion, exec ...core.DBExecutor) error {
	_, err := repo.exe(ctx, exec,
		"INSERT INTO evaluation_criteria (category, criterion_index, criterion_text) VALUES (?, ?, ?)",
		string(c.Category), c.Index, c.Text,
	)
	return errors.Wrap(err, "inserting criterion")
}

// UpdateCriterionText creates the criterion when it does not exist yet.
func (repo criteriaRepository) UpdateCriterionText(ctx context.Context, c evaluation.Criterion, exec ...core.DBExecutor) error {
	cnt, err := repo.affected(ctx, exec,
		"UPDATE evaluation_criteria SET criterion_text = ? WHERE category = ? AND criterion_index = ?",
		c.Text, string(c.Category), c.Index,
	)
	if err != nil {
		return errors.Wrap(err, "updating criterion")
	}
	if cnt == 0 {
		return repo.CreateCriterion(ctx, c, exec...)
	}
	return nil
}
