package repository

import (
	"context"
	"fmt"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// InventoryRepository reads the booking feed for a service date.
type InventoryRepository struct {
	db database.Database
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db database.Database) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// GetInventory loads availabilities, splits, bookings and activity titles
// for one date in a single round trip.
func (r *InventoryRepository) GetInventory(ctx context.Context, serviceDate string) (*model.Inventory, error) {
	query := `
		LET $avs = (SELECT * FROM availability WHERE local_date = $date);
		LET $av_ids = (SELECT VALUE record::id(id) FROM $avs);
		SELECT * FROM $avs ORDER BY local_time;
		SELECT * FROM split WHERE availability_id IN $av_ids ORDER BY name;
		SELECT * FROM booking_allocation WHERE availability_id IN $av_ids;
		SELECT * FROM activity WHERE record::id(id) IN $avs.activity_id;
	`
	vars := map[string]interface{}{"date": serviceDate}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("load inventory for %s: %w", serviceDate, err)
	}

	// LET statements produce results too; the SELECTs follow them.
	inv := &model.Inventory{
		ServiceDate: serviceDate,
		Activities:  make(map[string]*model.Activity),
	}

	for _, row := range statementRows(result, 2) {
		inv.Availabilities = append(inv.Availabilities, parseAvailabilityRow(row))
	}
	for _, row := range statementRows(result, 3) {
		inv.Splits = append(inv.Splits, parseSplitRow(row))
	}
	for _, row := range statementRows(result, 4) {
		inv.Allocations = append(inv.Allocations, parseAllocationRow(row))
	}
	for _, row := range statementRows(result, 5) {
		a := &model.Activity{
			ID:    recordKey(row["id"], "activity"),
			Title: getString(row, "title"),
		}
		inv.Activities[a.ID] = a
	}

	return inv, nil
}

func parseAvailabilityRow(row map[string]interface{}) *model.Availability {
	return &model.Availability{
		ID:               recordKey(row["id"], "availability"),
		ActivityID:       getString(row, "activity_id"),
		LocalDate:        getString(row, "local_date"),
		LocalTime:        getString(row, "local_time"),
		ConsumedCapacity: getInt(row, "consumed_capacity"),
	}
}

func parseSplitRow(row map[string]interface{}) *model.Split {
	return &model.Split{
		ID:             recordKey(row["id"], "split"),
		AvailabilityID: getString(row, "availability_id"),
		Name:           getString(row, "name"),
		GuideID:        getStringPtr(row, "guide_id"),
	}
}

func parseAllocationRow(row map[string]interface{}) *model.BookingAllocation {
	return &model.BookingAllocation{
		BookingID:      getString(row, "booking_id"),
		AvailabilityID: getString(row, "availability_id"),
		SplitID:        getStringPtr(row, "split_id"),
		Quantity:       getInt(row, "quantity"),
		Status:         getString(row, "status"),
	}
}
