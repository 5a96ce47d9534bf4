package repository

import (
	"context"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/shopspring/decimal"
)

// CostRepository reads the cost configuration store.
type CostRepository struct {
	db database.Database
}

// NewCostRepository creates a new cost repository
func NewCostRepository(db database.Database) *CostRepository {
	return &CostRepository{db: db}
}

// GetGlobalCosts returns the global cost of each activity that has one.
// Guide specific rows are ignored.
func (r *CostRepository) GetGlobalCosts(ctx context.Context, activityIDs []string) (map[string]decimal.Decimal, error) {
	costs := make(map[string]decimal.Decimal, len(activityIDs))
	if len(activityIDs) == 0 {
		return costs, nil
	}

	query := `
		SELECT activity_id, amount FROM activity_cost
		WHERE activity_id IN $activity_ids
			AND (guide_id = NONE OR guide_id = NULL)
	`
	vars := map[string]interface{}{"activity_ids": activityIDs}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	for _, row := range statementRows(result, 0) {
		id := getString(row, "activity_id")
		amount := getDecimal(row, "amount")
		// Several global rows for one activity: keep the highest.
		if current, ok := costs[id]; !ok || amount.GreaterThan(current) {
			costs[id] = amount
		}
	}
	return costs, nil
}
