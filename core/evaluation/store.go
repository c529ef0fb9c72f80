package evaluation

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
)

var nowFunc = func() time.Time { return time.Now().UTC() }

type Repository interface {
	CreateEvaluation(ctx context.Context, ev Evaluation, exec ...core.DBExecutor) (Evaluation, error)
	// UpdateDraftHeader rewrites the header and status of a draft and reports whether one was updated.
	UpdateDraftHeader(ctx context.Context, id string, hdr Header, status Status, exec ...core.DBExecutor) (bool, error)
	// SaveDetails writes rows keyed by (evaluation, category, index), replacing existing ones.
	SaveDetails(ctx context.Context, details []Detail, exec ...core.DBExecutor) error
	DeleteDetails(ctx context.Context, evaluationID string, exec ...core.DBExecutor) error
	QueryDetails(ctx context.Context, evaluationID string, exec ...core.DBExecutor) ([]Detail, error)
	SetAverages(ctx context.Context, id string, avgs Averages, exec ...core.DBExecutor) error
	UpdateQualitative(ctx context.Context, id string, q Qualitative, exec ...core.DBExecutor) error
	SetAIRecommendations(ctx context.Context, id string, text string, exec ...core.DBExecutor) error
	GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (Evaluation, error)
	QueryEvaluations(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Evaluation, error)
}

// Store writes an evaluation and its derived values. Every method runs on the given executor,
// normally the transaction of the submission.
type Store struct {
	repo     Repository
	criteria CriteriaRepository
}

func NewStore(repo Repository, criteria CriteriaRepository) *Store {
	return &Store{repo: repo, criteria: criteria}
}

// CreateHeader inserts the evaluation row with empty qualitative fields and null averages.
func (s *Store) CreateHeader(ctx context.Context, exec core.DBExecutor, hdr Header, evaluatorID string, status Status) (string, error) {
	now := nowFunc()
	ev, err := s.repo.CreateEvaluation(ctx, Evaluation{
		EvaluatorID: evaluatorID,
		Status:      status,
		Header:      hdr,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, exec)
	if err != nil {
		return "", errors.Wrap(err, "creating evaluation")
	}
	return ev.ID, nil
}

// SaveDetails writes one row per rated criterion of the catalog ranges, capturing the current
// criterion text. Unrated criteria and unknown indexes are skipped.
func (s *Store) SaveDetails(ctx context.Context, exec core.DBExecutor, evaluationID string, ratings Ratings) error {
	catalog, err := LoadCatalog(ctx, s.criteria, exec)
	if err != nil {
		return err
	}

	var details []Detail
	for _, cat := range Categories {
		for idx := 0; idx < cat.CriteriaCount(); idx++ {
			rating, ok := ratings.Get(cat, idx)
			if !ok {
				continue
			}
			details = append(details, Detail{
				EvaluationID:   evaluationID,
				Category:       cat,
				CriterionIndex: idx,
				CriterionText:  catalog.Lookup(cat, idx),
				Rating:         rating.Value,
				Comment:        rating.Comment,
			})
		}
	}
	if len(details) == 0 {
		return nil
	}
	return errors.Wrap(s.repo.SaveDetails(ctx, details, exec), "saving details")
}

// ReplaceDetails drops every detail row of the evaluation before saving the new ones.
func (s *Store) ReplaceDetails(ctx context.Context, exec core.DBExecutor, evaluationID string, ratings Ratings) error {
	if err := s.repo.DeleteDetails(ctx, evaluationID, exec); err != nil {
		return errors.Wrap(err, "deleting details")
	}
	return s.SaveDetails(ctx, exec, evaluationID, ratings)
}

// ComputeAverages recomputes the averages from the stored detail rows and persists them.
func (s *Store) ComputeAverages(ctx context.Context, exec core.DBExecutor, evaluationID string) (Averages, error) {
	details, err := s.repo.QueryDetails(ctx, evaluationID, exec)
	if err != nil {
		return Averages{}, errors.Wrap(err, "querying details")
	}
	avgs := averagesOf(details)
	if err = s.repo.SetAverages(ctx, evaluationID, avgs, exec); err != nil {
		return Averages{}, errors.Wrap(err, "setting averages")
	}
	return avgs, nil
}

// UpdateQualitative overwrites every qualitative field; what q leaves empty is cleared.
func (s *Store) UpdateQualitative(ctx context.Context, exec core.DBExecutor, evaluationID string, q Qualitative) error {
	return errors.Wrap(s.repo.UpdateQualitative(ctx, evaluationID, q, exec), "updating qualitative fields")
}
