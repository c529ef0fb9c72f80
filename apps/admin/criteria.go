package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core/evaluation"
)

func (cli *commandLine) seedCriteria() error {
	n, err := evaluation.SeedCriteria(context.Background(), cli.criteriaRepo)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%d criteria seeded\n", n)
	return nil
}

func (cli *commandLine) setCriterion(category string, index int, text string) error {
	cat, ok := evaluation.ParseCategory(category)
	if !ok {
		return errors.Errorf("unknown category %q", category)
	}
	c := evaluation.Criterion{Category: cat, Index: index, Text: text}
	if err := evaluation.SetCriterionText(context.Background(), cli.criteriaRepo, c); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s criterion %d updated\n", cat, index)
	return nil
}
