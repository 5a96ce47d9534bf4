package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/shopspring/decimal"
)

// InventoryRepository reads the booking feed.
type InventoryRepository interface {
	GetInventory(ctx context.Context, serviceDate string) (*model.Inventory, error)
}

// GuideRepository resolves guide display names.
type GuideRepository interface {
	GetGuideNames(ctx context.Context, guideIDs []string) (map[string]string, error)
}

// ServiceGroupRepository defines the interface for the group ledger
type ServiceGroupRepository interface {
	// CreateGroup must insert the group and all members atomically and fail
	// with database.ErrDuplicate when any member unit is already claimed.
	CreateGroup(ctx context.Context, group *model.ServiceGroup) error
	GetGroup(ctx context.Context, groupID string) (*model.ServiceGroup, error)
	GetGroupsByDate(ctx context.Context, serviceDate string) ([]*model.ServiceGroup, error)
	DeleteGroup(ctx context.Context, groupID string) error
	UpdateGuide(ctx context.Context, groupID string, guideID *string, at time.Time) error
	UpdateTotals(ctx context.Context, groupID string, totalPax int, cost decimal.Decimal, at time.Time) error
	GetClaimedUnits(ctx context.Context, serviceDate string) (map[string]string, error)
}

// AssignmentPublisher hands guide assignments to the component that mirrors
// them onto each member's own assignment record.
type AssignmentPublisher interface {
	PublishGuideAssignment(ctx context.Context, msg *model.GuideAssignmentMessage) error
}

// EventPublisher receives group change notifications for live dashboards.
type EventPublisher interface {
	Publish(event *Event)
}

// ServiceGroupService handles service group business logic
type ServiceGroupService struct {
	inventory InventoryRepository
	groups    ServiceGroupRepository
	guides    GuideRepository
	costs     *CostAttributor
	publisher AssignmentPublisher
	events    EventPublisher
	now       func() time.Time
	newID     func() string
}

// ServiceGroupServiceConfig holds configuration for the service group service
type ServiceGroupServiceConfig struct {
	InventoryRepo InventoryRepository
	GroupRepo     ServiceGroupRepository
	CostRepo      CostRepository
	GuideRepo     GuideRepository     // Optional, guide names are left empty if nil
	Publisher     AssignmentPublisher // Optional
	Events        EventPublisher      // Optional
	Now           func() time.Time    // Optional, defaults to time.Now
	NewID         func() string       // Optional, defaults to uuid.NewString
}

// NewServiceGroupService creates a new service group service
func NewServiceGroupService(cfg ServiceGroupServiceConfig) *ServiceGroupService {
	s := &ServiceGroupService{
		inventory: cfg.InventoryRepo,
		groups:    cfg.GroupRepo,
		guides:    cfg.GuideRepo,
		costs:     NewCostAttributor(cfg.CostRepo),
		publisher: cfg.Publisher,
		events:    cfg.Events,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// ListCandidateUnits returns the time buckets of a date with their groups,
// grouped units and units still eligible for grouping.
func (s *ServiceGroupService) ListCandidateUnits(ctx context.Context, serviceDate string) ([]*model.TimeBucket, error) {
	catalog, err := s.loadCatalog(ctx, serviceDate)
	if err != nil {
		return nil, err
	}

	groups, err := s.groups.GetGroupsByDate(ctx, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("load service groups: %w", err)
	}
	if err := s.hydrate(ctx, catalog, groups); err != nil {
		return nil, err
	}

	return ResolveBuckets(catalog, groups), nil
}

// ListGroups returns the groups of a date with live pax and cost.
func (s *ServiceGroupService) ListGroups(ctx context.Context, serviceDate string) ([]*model.ServiceGroup, error) {
	catalog, err := s.loadCatalog(ctx, serviceDate)
	if err != nil {
		return nil, err
	}

	groups, err := s.groups.GetGroupsByDate(ctx, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("load service groups: %w", err)
	}
	if err := s.hydrate(ctx, catalog, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroup returns one group with live pax and cost.
func (s *ServiceGroupService) GetGroup(ctx context.Context, groupID string) (*model.ServiceGroup, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, &GroupNotFoundError{GroupID: groupID}
	}

	catalog, err := s.loadCatalog(ctx, group.ServiceDate)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, catalog, []*model.ServiceGroup{group}); err != nil {
		return nil, err
	}
	return group, nil
}

// CreateGroup validates the selection and persists a new group.
//
// Every member must be a groupable unit of the requested bucket and must not
// be grouped yet. The final say on exclusivity belongs to the repository's
// atomic insert, so of two concurrent requests claiming the same unit exactly
// one succeeds and the other gets ErrUnitAlreadyGrouped.
func (s *ServiceGroupService) CreateGroup(ctx context.Context, req *model.CreateServiceGroupRequest) (*model.ServiceGroup, error) {
	req.Normalize()
	if fields := req.Validate(); len(fields) > 0 {
		return nil, &RequestValidationError{Fields: fields, Cause: causeForFields(fields)}
	}

	refs := make([]model.UnitRef, 0, len(req.Members))
	seen := make(map[string]bool, len(req.Members))
	for _, m := range req.Members {
		ref := m.Ref()
		if seen[ref.Key()] {
			return nil, &UnitError{UnitKey: ref.Key(), Err: ErrDuplicateMember}
		}
		seen[ref.Key()] = true
		refs = append(refs, ref)
	}

	catalog, err := s.loadCatalog(ctx, req.ServiceDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	group := &model.ServiceGroup{
		ID:          s.newID(),
		ServiceDate: req.ServiceDate,
		ServiceTime: req.ServiceTime,
		GroupName:   req.GroupName,
		Members:     make([]*model.ServiceGroupMember, 0, len(refs)),
		CreatedOn:   now,
		UpdatedOn:   now,
	}

	for _, ref := range refs {
		unit, ok := catalog.Lookup(ref)
		if !ok {
			return nil, &UnitError{UnitKey: ref.Key(), Err: ErrInvalidUnit}
		}
		if !catalog.IsGroupable(ref) {
			return nil, &UnitError{UnitKey: ref.Key(), Err: ErrUnitNotGroupable}
		}
		if unit.ServiceTime != req.ServiceTime {
			return nil, &UnitError{UnitKey: ref.Key(), Err: ErrUnitNotInBucket}
		}

		group.Members = append(group.Members, &model.ServiceGroupMember{
			ID:            s.newID(),
			GroupID:       group.ID,
			Unit:          ref,
			ActivityID:    unit.ActivityID,
			ActivityTitle: unit.ActivityTitle,
			SplitName:     unit.SplitName,
			Pax:           unit.Pax,
		})
		group.TotalPax += unit.Pax
	}

	claimed, err := s.groups.GetClaimedUnits(ctx, req.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("load claimed units: %w", err)
	}
	if conflict := firstConflict(refs, claimed); conflict != nil {
		return nil, conflict
	}

	group.CalculatedCost, err = s.costs.GroupCost(ctx, group.ActivityIDs())
	if err != nil {
		return nil, err
	}

	if err := s.insertGroup(ctx, group, refs); err != nil {
		return nil, err
	}

	slog.Info("service group created",
		slog.String("group_id", group.ID),
		slog.String("service_date", group.ServiceDate),
		slog.String("service_time", group.ServiceTime),
		slog.Int("members", len(group.Members)),
		slog.Int("total_pax", group.TotalPax),
		slog.String("calculated_cost", group.CalculatedCost.StringFixed(2)),
	)
	s.publishEvent(NewGroupEvent(EventGroupCreated, group.ServiceDate, group))

	return group, nil
}

// DeleteGroup removes a group; its units become eligible again.
func (s *ServiceGroupService) DeleteGroup(ctx context.Context, groupID string) error {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return &GroupNotFoundError{GroupID: groupID}
	}

	if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &GroupNotFoundError{GroupID: groupID}
		}
		return fmt.Errorf("delete service group: %w", err)
	}

	slog.Info("service group deleted",
		slog.String("group_id", groupID),
		slog.String("service_date", group.ServiceDate),
		slog.String("service_time", group.ServiceTime),
		slog.Int("members", len(group.Members)),
	)
	s.publishEvent(NewGroupEvent(EventGroupDeleted, group.ServiceDate, map[string]interface{}{
		"id":           groupID,
		"service_time": group.ServiceTime,
		"members":      group.UnitRefs(),
	}))
	return nil
}

// AssignGuide sets or clears (nil) the group's guide and publishes the
// assignment for propagation to the member units. The returned group's
// members are the propagation payload.
func (s *ServiceGroupService) AssignGuide(ctx context.Context, groupID string, req *model.AssignGuideRequest) (*model.ServiceGroup, error) {
	var guideID *string
	if req != nil {
		if req.GuideID != nil {
			trimmed := strings.TrimSpace(*req.GuideID)
			req.GuideID = &trimmed
		}
		if fields := req.Validate(); len(fields) > 0 {
			return nil, &RequestValidationError{Fields: fields, Cause: ErrInvalidGuideID}
		}
		guideID = req.GuideID
	}

	if err := s.groups.UpdateGuide(ctx, groupID, guideID, s.now().UTC()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &GroupNotFoundError{GroupID: groupID}
		}
		return nil, fmt.Errorf("update guide: %w", err)
	}

	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	msg := model.NewGuideAssignmentMessage(group, s.now())
	if s.publisher != nil {
		if err := s.publisher.PublishGuideAssignment(ctx, msg); err != nil {
			slog.Warn("failed to publish guide assignment",
				slog.String("group_id", groupID),
				slog.String("error", err.Error()),
			)
		}
	}

	guide := "none"
	if guideID != nil {
		guide = *guideID
	}
	slog.Info("guide assigned",
		slog.String("group_id", groupID),
		slog.String("guide_id", guide),
		slog.String("service_date", group.ServiceDate),
		slog.String("service_time", group.ServiceTime),
		slog.Int("members", len(group.Members)),
	)
	s.publishEvent(NewGroupEvent(EventGroupGuideAssigned, group.ServiceDate, msg))

	return group, nil
}

// RefreshTotals recomputes pax and cost from the current feed and stores them.
func (s *ServiceGroupService) RefreshTotals(ctx context.Context, groupID string) (*model.ServiceGroup, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.groups.UpdateTotals(ctx, groupID, group.TotalPax, group.CalculatedCost, now); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &GroupNotFoundError{GroupID: groupID}
		}
		return nil, fmt.Errorf("update totals: %w", err)
	}
	group.UpdatedOn = now

	s.publishEvent(NewGroupEvent(EventGroupRefreshed, group.ServiceDate, group))
	return group, nil
}

// SyncTotals persists live totals for every group of serviceDate whose stored
// pax or cost drifted from the feed. It returns the number of groups updated.
func (s *ServiceGroupService) SyncTotals(ctx context.Context, serviceDate string) (int, error) {
	catalog, err := s.loadCatalog(ctx, serviceDate)
	if err != nil {
		return 0, err
	}

	groups, err := s.groups.GetGroupsByDate(ctx, serviceDate)
	if err != nil {
		return 0, fmt.Errorf("load service groups: %w", err)
	}

	type stored struct {
		pax  int
		cost decimal.Decimal
	}
	before := make(map[string]stored, len(groups))
	for _, g := range groups {
		before[g.ID] = stored{pax: g.TotalPax, cost: g.CalculatedCost}
	}

	if err := s.hydrate(ctx, catalog, groups); err != nil {
		return 0, err
	}

	updated := 0
	now := s.now().UTC()
	for _, g := range groups {
		prev := before[g.ID]
		if prev.pax == g.TotalPax && prev.cost.Equal(g.CalculatedCost) {
			continue
		}
		if err := s.groups.UpdateTotals(ctx, g.ID, g.TotalPax, g.CalculatedCost, now); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue // deleted meanwhile
			}
			return updated, fmt.Errorf("update totals of %s: %w", g.ID, err)
		}
		g.UpdatedOn = now
		updated++

		slog.Info("service group totals synced",
			slog.String("group_id", g.ID),
			slog.String("service_date", g.ServiceDate),
			slog.Int("total_pax", g.TotalPax),
			slog.Int("previous_pax", prev.pax),
			slog.String("calculated_cost", g.CalculatedCost.String()),
		)
		s.publishEvent(NewGroupEvent(EventGroupRefreshed, g.ServiceDate, g))
	}
	return updated, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *ServiceGroupService) loadCatalog(ctx context.Context, serviceDate string) (*UnitCatalog, error) {
	if !model.ValidServiceDate(serviceDate) {
		return nil, ErrInvalidServiceDate
	}
	inv, err := s.inventory.GetInventory(ctx, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return BuildCatalog(inv), nil
}

// hydrate replaces stored member pax with live values and recomputes the
// group totals. Units that vanished from the feed count zero pax.
func (s *ServiceGroupService) hydrate(ctx context.Context, catalog *UnitCatalog, groups []*model.ServiceGroup) error {
	guideIDs := make([]string, 0)
	for _, g := range groups {
		g.TotalPax = 0
		for _, m := range g.Members {
			if u, ok := catalog.Lookup(m.Unit); ok {
				m.Pax = u.Pax
				m.ActivityID = u.ActivityID
				m.ActivityTitle = u.ActivityTitle
				m.SplitName = u.SplitName
			} else {
				m.Pax = 0
			}
			if m.ActivityTitle == "" {
				m.ActivityTitle = model.UnknownActivityTitle
			}
			g.TotalPax += m.Pax
		}
		if g.HasGuide() {
			guideIDs = append(guideIDs, *g.GuideID)
		}
	}

	if err := s.costs.Attribute(ctx, groups); err != nil {
		return err
	}

	if s.guides == nil || len(guideIDs) == 0 {
		return nil
	}
	names, err := s.guides.GetGuideNames(ctx, distinct(guideIDs))
	if err != nil {
		// Names are presentation only.
		slog.Warn("failed to resolve guide names", slog.String("error", err.Error()))
		return nil
	}
	for _, g := range groups {
		if g.HasGuide() {
			g.GuideName = names[*g.GuideID]
		}
	}
	return nil
}

// insertGroup runs the atomic insert. A commit lost to a concurrent writer
// names the unit that writer claimed; when it claimed none of ours the
// conflict is returned for the caller to retry.
func (s *ServiceGroupService) insertGroup(ctx context.Context, group *model.ServiceGroup, refs []model.UnitRef) error {
	err := s.groups.CreateGroup(ctx, group)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrDuplicate):
		return s.conflictAfterRace(ctx, group.ServiceDate, refs)
	case errors.Is(err, database.ErrConflict):
		if conflict := s.claimedConflict(ctx, group.ServiceDate, refs); conflict != nil {
			return conflict
		}
	}
	return fmt.Errorf("create service group: %w", err)
}

// conflictAfterRace identifies which unit lost the race once the atomic
// insert has been rejected.
func (s *ServiceGroupService) conflictAfterRace(ctx context.Context, serviceDate string, refs []model.UnitRef) error {
	if conflict := s.claimedConflict(ctx, serviceDate, refs); conflict != nil {
		return conflict
	}
	return ErrUnitAlreadyGrouped
}

func (s *ServiceGroupService) claimedConflict(ctx context.Context, serviceDate string, refs []model.UnitRef) *UnitConflictError {
	claimed, err := s.groups.GetClaimedUnits(ctx, serviceDate)
	if err != nil {
		return nil
	}
	return firstConflict(refs, claimed)
}

func (s *ServiceGroupService) publishEvent(event *Event) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

// causeForFields picks the sentinel matching the first failing field.
func causeForFields(fields []model.FieldError) error {
	if len(fields) == 0 {
		return ErrInvalidGroupRequest
	}
	f := fields[0]
	switch {
	case f.Field == "members" && f.Rule == "max":
		return ErrTooManyMembers
	case f.Field == "members":
		return ErrTooFewMembers
	case strings.HasPrefix(f.Field, "members["):
		return ErrInvalidUnit
	case f.Field == "group_name" && f.Rule == "required":
		return ErrGroupNameRequired
	case f.Field == "group_name":
		return ErrGroupNameTooLong
	case f.Field == "service_date":
		return ErrInvalidServiceDate
	case f.Field == "service_time":
		return ErrInvalidServiceTime
	}
	return ErrInvalidGroupRequest
}
