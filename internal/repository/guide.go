package repository

import (
	"context"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
)

// GuideRepository reads the guide directory.
type GuideRepository struct {
	db database.Database
}

// NewGuideRepository creates a new guide repository
func NewGuideRepository(db database.Database) *GuideRepository {
	return &GuideRepository{db: db}
}

// GetGuideNames maps guide ids to display names. Unknown ids are absent.
func (r *GuideRepository) GetGuideNames(ctx context.Context, guideIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(guideIDs))
	if len(guideIDs) == 0 {
		return names, nil
	}

	query := `SELECT id, name FROM guide WHERE record::id(id) IN $guide_ids`
	vars := map[string]interface{}{"guide_ids": guideIDs}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	for _, row := range statementRows(result, 0) {
		names[recordKey(row["id"], "guide")] = getString(row, "name")
	}
	return names, nil
}
