package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/shopspring/decimal"
)

// ServiceGroupRepository persists service groups and their members.
// Membership exclusivity is enforced by the UNIQUE index on
// service_group_member.unit_key.
type ServiceGroupRepository struct {
	db database.Database
}

// NewServiceGroupRepository creates a new service group repository
func NewServiceGroupRepository(db database.Database) *ServiceGroupRepository {
	return &ServiceGroupRepository{db: db}
}

// CreateGroup inserts the group and all members in one transaction. A member
// already claimed by another group, directly or through its bare availability
// or one of its splits, aborts the whole transaction with
// database.ErrDuplicate. Losing an optimistic commit to a concurrent writer
// surfaces as database.ErrConflict.
func (r *ServiceGroupRepository) CreateGroup(ctx context.Context, g *model.ServiceGroup) error {
	batch := database.NewAtomicBatch()

	batch.Add(`
		CREATE type::thing("service_group", $gid) SET
			service_date = $service_date,
			service_time = $service_time,
			group_name = $group_name,
			guide_id = $guide_id,
			total_pax = $total_pax,
			calculated_cost = $calculated_cost,
			created_on = $created_on,
			updated_on = $created_on
	`, map[string]interface{}{
		"gid":             g.ID,
		"service_date":    g.ServiceDate,
		"service_time":    g.ServiceTime,
		"group_name":      g.GroupName,
		"guide_id":        ptrToNone(g.GuideID),
		"total_pax":       g.TotalPax,
		"calculated_cost": g.CalculatedCost.String(),
		"created_on":      g.CreatedOn,
	})

	for i, m := range g.Members {
		batch.Add(overlapGuard(m.Unit), map[string]interface{}{
			"avid":     m.Unit.AvailabilityID(),
			"unit_key": m.Unit.Key(),
		})
		batch.Add(`CREATE type::thing("service_group_member", $mid) CONTENT $member`, map[string]interface{}{
			"mid": m.ID,
			"member": map[string]interface{}{
				"group_id":        g.ID,
				"service_date":    g.ServiceDate,
				"unit_key":        m.Unit.Key(),
				"availability_id": m.Unit.AvailabilityID(),
				"split_id":        ptrToNone(m.Unit.SplitIDPtr()),
				"activity_id":     m.ActivityID,
				"activity_title":  m.ActivityTitle,
				"split_name":      m.SplitName,
				"pax":             m.Pax,
				"position":        i,
				"created_on":      g.CreatedOn,
			},
		})
	}

	if err := batch.Execute(ctx, r.db); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("create service group: %w", database.ErrDuplicate)
		}
		return err
	}
	return nil
}

// overlapGuardQuery aborts the transaction when the unit's bare availability,
// or any split of it, is already a member. The thrown message reads like a
// unique index violation so it classifies as database.ErrDuplicate.
const overlapGuardQuery = `
	IF array::len((SELECT VALUE id FROM service_group_member WHERE availability_id = $avid AND %s)) > 0 {
		THROW "Database index service_group_member_overlap already contains " + $unit_key;
	}
`

func overlapGuard(unit model.UnitRef) string {
	if unit.Kind() == model.UnitKindSplit {
		return fmt.Sprintf(overlapGuardQuery, "!split_id")
	}
	return fmt.Sprintf(overlapGuardQuery, "split_id")
}

// GetGroup returns the group with its members, or nil when it does not exist.
func (r *ServiceGroupRepository) GetGroup(ctx context.Context, id string) (*model.ServiceGroup, error) {
	query := `
		SELECT * FROM type::thing("service_group", $gid);
		SELECT * FROM service_group_member WHERE group_id = $gid ORDER BY position;
	`
	vars := map[string]interface{}{"gid": id}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	groupRows := statementRows(result, 0)
	if len(groupRows) == 0 {
		return nil, nil
	}

	g := parseServiceGroupRow(groupRows[0])
	for _, row := range statementRows(result, 1) {
		g.Members = append(g.Members, parseMemberRow(row))
	}
	return g, nil
}

// GetGroupsByDate returns every group of a service date ordered by time and
// creation, members included.
func (r *ServiceGroupRepository) GetGroupsByDate(ctx context.Context, serviceDate string) ([]*model.ServiceGroup, error) {
	query := `
		SELECT * FROM service_group WHERE service_date = $date ORDER BY service_time, created_on;
		SELECT * FROM service_group_member WHERE service_date = $date ORDER BY group_id, position;
	`
	vars := map[string]interface{}{"date": serviceDate}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	groups := make([]*model.ServiceGroup, 0)
	byID := make(map[string]*model.ServiceGroup)
	for _, row := range statementRows(result, 0) {
		g := parseServiceGroupRow(row)
		groups = append(groups, g)
		byID[g.ID] = g
	}
	for _, row := range statementRows(result, 1) {
		m := parseMemberRow(row)
		if g, ok := byID[m.GroupID]; ok {
			g.Members = append(g.Members, m)
		}
	}
	return groups, nil
}

// DeleteGroup removes the group and its members atomically.
// Returns database.ErrNotFound when the group does not exist.
func (r *ServiceGroupRepository) DeleteGroup(ctx context.Context, id string) error {
	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return database.ErrNotFound
	}

	vars := map[string]interface{}{"gid": id}
	return database.NewAtomicBatch().
		Add(`DELETE service_group_member WHERE group_id = $gid`, vars).
		Add(`DELETE type::thing("service_group", $gid)`, vars).
		Execute(ctx, r.db)
}

// UpdateGuide sets or clears the guide. Returns database.ErrNotFound when the
// group does not exist.
func (r *ServiceGroupRepository) UpdateGuide(ctx context.Context, id string, guideID *string, at time.Time) error {
	query := `
		UPDATE service_group SET
			guide_id = $guide_id,
			guide_updated_on = $at,
			updated_on = $at
		WHERE id = type::thing("service_group", $gid)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"gid":      id,
		"guide_id": ptrToNone(guideID),
		"at":       at,
	}

	_, err := r.db.QueryOne(ctx, query, vars)
	return err
}

// UpdateTotals stores freshly computed pax and cost. Returns
// database.ErrNotFound when the group does not exist.
func (r *ServiceGroupRepository) UpdateTotals(ctx context.Context, id string, totalPax int, cost decimal.Decimal, at time.Time) error {
	query := `
		UPDATE service_group SET
			total_pax = $total_pax,
			calculated_cost = $calculated_cost,
			updated_on = $at
		WHERE id = type::thing("service_group", $gid)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"gid":             id,
		"total_pax":       totalPax,
		"calculated_cost": cost.String(),
		"at":              at,
	}

	_, err := r.db.QueryOne(ctx, query, vars)
	return err
}

// GetClaimedUnits maps each grouped unit key of the date to its group id.
func (r *ServiceGroupRepository) GetClaimedUnits(ctx context.Context, serviceDate string) (map[string]string, error) {
	query := `SELECT unit_key, group_id FROM service_group_member WHERE service_date = $date`
	vars := map[string]interface{}{"date": serviceDate}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]string)
	for _, row := range statementRows(result, 0) {
		claimed[getString(row, "unit_key")] = getString(row, "group_id")
	}
	return claimed, nil
}

func (r *ServiceGroupRepository) exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT id FROM type::thing("service_group", $gid)`
	_, err := r.db.QueryOne(ctx, query, map[string]interface{}{"gid": id})
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func parseServiceGroupRow(row map[string]interface{}) *model.ServiceGroup {
	g := &model.ServiceGroup{
		ID:             recordKey(row["id"], "service_group"),
		ServiceDate:    getString(row, "service_date"),
		ServiceTime:    getString(row, "service_time"),
		GroupName:      getString(row, "group_name"),
		GuideID:        getStringPtr(row, "guide_id"),
		GuideUpdatedOn: getTime(row, "guide_updated_on"),
		TotalPax:       getInt(row, "total_pax"),
		CalculatedCost: getDecimal(row, "calculated_cost"),
		Members:        make([]*model.ServiceGroupMember, 0),
	}
	if createdOn := getTime(row, "created_on"); createdOn != nil {
		g.CreatedOn = *createdOn
	}
	if updatedOn := getTime(row, "updated_on"); updatedOn != nil {
		g.UpdatedOn = *updatedOn
	}
	return g
}

func parseMemberRow(row map[string]interface{}) *model.ServiceGroupMember {
	unit, err := model.ParseUnitKey(getString(row, "unit_key"))
	if err != nil {
		unit = model.NewUnitRef(getString(row, "availability_id"), getStringPtr(row, "split_id"))
	}
	return &model.ServiceGroupMember{
		ID:            recordKey(row["id"], "service_group_member"),
		GroupID:       getString(row, "group_id"),
		Unit:          unit,
		ActivityID:    getString(row, "activity_id"),
		ActivityTitle: getString(row, "activity_title"),
		SplitName:     getString(row, "split_name"),
		Pax:           getInt(row, "pax"),
	}
}
