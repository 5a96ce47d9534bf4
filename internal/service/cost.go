package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/shopspring/decimal"
)

// CostRepository reads global per-activity costs.
type CostRepository interface {
	GetGlobalCosts(ctx context.Context, activityIDs []string) (map[string]decimal.Decimal, error)
}

// CostAttributor derives a group's billable cost.
type CostAttributor struct {
	costs CostRepository
}

// NewCostAttributor creates a cost attributor over the cost store.
func NewCostAttributor(costs CostRepository) *CostAttributor {
	return &CostAttributor{costs: costs}
}

// GroupCost returns the cost of the most expensive activity among
// activityIDs. Only global cost rows are considered.
func (a *CostAttributor) GroupCost(ctx context.Context, activityIDs []string) (decimal.Decimal, error) {
	ids := distinct(activityIDs)
	if len(ids) == 0 {
		return decimal.Zero, nil
	}

	costs, err := a.costs.GetGlobalCosts(ctx, ids)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load activity costs: %w", err)
	}
	return MaxActivityCost(ids, costs), nil
}

// Attribute sets CalculatedCost on every group with a single cost lookup.
func (a *CostAttributor) Attribute(ctx context.Context, groups []*model.ServiceGroup) error {
	var all []string
	for _, g := range groups {
		all = append(all, g.ActivityIDs()...)
	}
	ids := distinct(all)
	if len(ids) == 0 {
		for _, g := range groups {
			g.CalculatedCost = decimal.Zero
		}
		return nil
	}

	costs, err := a.costs.GetGlobalCosts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load activity costs: %w", err)
	}
	for _, g := range groups {
		g.CalculatedCost = MaxActivityCost(g.ActivityIDs(), costs)
	}
	return nil
}

// MaxActivityCost is the maximum cost over activityIDs. An activity without a
// cost contributes zero. Costs are never summed.
func MaxActivityCost(activityIDs []string, costs map[string]decimal.Decimal) decimal.Decimal {
	highest := decimal.Zero
	for _, id := range activityIDs {
		if c, ok := costs[id]; ok && c.GreaterThan(highest) {
			highest = c
		}
	}
	return highest
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
