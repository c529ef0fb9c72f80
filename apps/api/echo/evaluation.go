package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/observa/core/evaluation"
)

type (
	evaluationAPI struct {
		service evaluation.ServiceInterface
	}

	criteriaGroup struct {
		Category evaluation.Category    `json:"category"`
		Criteria []evaluation.Criterion `json:"criteria"`
	}
)

func registerEvaluationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc evaluation.ServiceInterface) {
	api := evaluationAPI{service: svc}

	g.GET("/criteria", api.criteria, jwt, authenticatedMiddleware)

	evals := g.Group("/evaluations")
	evals.GET("", api.query, jwt, authenticatedMiddleware)
	evals.GET("/:id", api.retrieve, jwt, authenticatedMiddleware)
	evals.POST("", api.submit, resultMiddleware, jwt, evaluatorMiddleware)
	evals.POST("/drafts", api.saveDraft, resultMiddleware, jwt, evaluatorMiddleware)
	evals.POST("/:id/submit", api.submitDraft, resultMiddleware, jwt, evaluatorMiddleware)
}

func (api evaluationAPI) criteria(ctx echo.Context) error {
	criteria, err := api.service.Criteria(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading criteria")
	}

	groups := make([]criteriaGroup, 0, len(evaluation.Categories))
	for _, cat := range evaluation.Categories {
		grp := criteriaGroup{Category: cat, Criteria: []evaluation.Criterion{}}
		for _, c := range criteria {
			if c.Category == cat {
				grp.Criteria = append(grp.Criteria, c)
			}
		}
		groups = append(groups, grp)
	}
	return ctx.JSON(http.StatusOK, groups)
}

// bindForm reads and normalizes the observation form of the request.
func bindForm(ctx echo.Context) (evaluation.Form, error) {
	payload, err := bindPayload(ctx)
	if err != nil {
		return evaluation.Form{}, err
	}
	return evaluation.NormalizePayload(payload)
}

func respondResult(ctx echo.Context, code int, id string, err error, status evaluation.Status) error {
	if err != nil {
		return err
	}
	return ctx.JSON(code, evaluation.NewResult(id, nil, status))
}

func (api evaluationAPI) submit(ctx echo.Context) error {
	rc, err := contextRequestContext(ctx)
	if err != nil {
		return evaluation.ErrUnauthorized
	}
	form, err := bindForm(ctx)
	if err != nil {
		return err
	}

	id, err := api.service.Submit(ctx.Request().Context(), rc, form)
	return respondResult(ctx, http.StatusCreated, id, err, evaluation.StatusSubmitted)
}

func (api evaluationAPI) saveDraft(ctx echo.Context) error {
	rc, err := contextRequestContext(ctx)
	if err != nil {
		return evaluation.ErrUnauthorized
	}
	form, err := bindForm(ctx)
	if err != nil {
		return err
	}

	id, err := api.service.SaveDraft(ctx.Request().Context(), rc, form)
	return respondResult(ctx, http.StatusCreated, id, err, evaluation.StatusDraft)
}

func (api evaluationAPI) submitDraft(ctx echo.Context) error {
	rc, err := contextRequestContext(ctx)
	if err != nil {
		return evaluation.ErrUnauthorized
	}
	form, err := bindForm(ctx)
	if err != nil {
		return err
	}

	id, err := api.service.SubmitDraft(ctx.Request().Context(), rc, ctx.Param("id"), form)
	return respondResult(ctx, http.StatusOK, id, err, evaluation.StatusSubmitted)
}

func (api evaluationAPI) query(ctx echo.Context) error {
	rc, err := contextRequestContext(ctx)
	if err != nil {
		return err
	}

	var filter evaluation.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	evals, err := api.service.Query(ctx.Request().Context(), rc, filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api evaluationAPI) retrieve(ctx echo.Context) error {
	rc, err := contextRequestContext(ctx)
	if err != nil {
		return err
	}

	ev, err := api.service.Get(ctx.Request().Context(), rc, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting evaluation")
	}
	return ctx.JSON(http.StatusOK, ev)
}
