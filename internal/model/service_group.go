package model

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service group constraints
const (
	MinGroupMembers    = 2
	MaxGroupMembers    = 50
	MaxGroupNameLength = 100
	MaxGuideIDLength   = 100
)

// ServiceGroup bundles units of one time bucket so they can share a guide
// and be billed at the cost of their most expensive activity.
type ServiceGroup struct {
	ID             string                `json:"id"`
	ServiceDate    string                `json:"service_date"`
	ServiceTime    string                `json:"service_time"`
	GroupName      string                `json:"group_name"`
	GuideID        *string               `json:"guide_id"`
	GuideName      string                `json:"guide_name,omitempty"`
	GuideUpdatedOn *time.Time            `json:"guide_updated_on,omitempty"` // nil until a guide was ever set
	TotalPax       int                   `json:"total_pax"`
	CalculatedCost decimal.Decimal       `json:"calculated_cost"`
	Members        []*ServiceGroupMember `json:"members"`
	CreatedOn      time.Time             `json:"created_on"`
	UpdatedOn      time.Time             `json:"updated_on"`
}

// ServiceGroupMember links a group to one unit.
type ServiceGroupMember struct {
	ID            string  `json:"id"`
	GroupID       string  `json:"group_id"`
	Unit          UnitRef `json:"unit"`
	ActivityID    string  `json:"activity_id"`
	ActivityTitle string  `json:"activity_title"`
	SplitName     string  `json:"split_name,omitempty"`
	Pax           int     `json:"pax"`
}

// UnitRefs returns the member units in member order.
func (g *ServiceGroup) UnitRefs() []UnitRef {
	refs := make([]UnitRef, 0, len(g.Members))
	for _, m := range g.Members {
		refs = append(refs, m.Unit)
	}
	return refs
}

// ActivityIDs returns the distinct activities represented by the members,
// sorted.
func (g *ServiceGroup) ActivityIDs() []string {
	seen := make(map[string]struct{}, len(g.Members))
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m.ActivityID == "" {
			continue
		}
		if _, ok := seen[m.ActivityID]; ok {
			continue
		}
		seen[m.ActivityID] = struct{}{}
		ids = append(ids, m.ActivityID)
	}
	sort.Strings(ids)
	return ids
}

// HasGuide reports whether a guide is currently assigned.
func (g *ServiceGroup) HasGuide() bool {
	return g.GuideID != nil
}

// MemberRequest selects one unit for a new group.
type MemberRequest struct {
	AvailabilityID string  `json:"availability_id" validate:"required"`
	SplitID        *string `json:"split_id,omitempty" validate:"omitempty,min=1"`
}

// Ref converts the request into a unit reference.
func (m MemberRequest) Ref() UnitRef {
	return NewUnitRef(m.AvailabilityID, m.SplitID)
}

// CreateServiceGroupRequest is the input of group creation.
type CreateServiceGroupRequest struct {
	ServiceDate string          `json:"service_date" validate:"required,datetime=2006-01-02"`
	ServiceTime string          `json:"service_time" validate:"required,service_time"`
	GroupName   string          `json:"group_name" validate:"required,max=100"`
	Members     []MemberRequest `json:"members" validate:"required,min=2,max=50,dive"`
}

// Normalize trims the name and canonicalizes the service time in place.
func (r *CreateServiceGroupRequest) Normalize() {
	r.GroupName = strings.TrimSpace(r.GroupName)
	r.ServiceDate = strings.TrimSpace(r.ServiceDate)
	if t, err := NormalizeServiceTime(r.ServiceTime); err == nil {
		r.ServiceTime = t
	}
}

// Validate checks the request shape.
func (r *CreateServiceGroupRequest) Validate() []FieldError {
	return validateStruct(r)
}

// AssignGuideRequest sets or clears a group's guide. A null guide_id
// unassigns.
type AssignGuideRequest struct {
	GuideID *string `json:"guide_id" validate:"omitempty,min=1,max=100"`
}

// Validate checks the request shape.
func (r *AssignGuideRequest) Validate() []FieldError {
	return validateStruct(r)
}

// GuideAssignmentMessage is what the assignment propagation collaborator
// consumes to mirror a group's guide onto each member's own assignment row.
type GuideAssignmentMessage struct {
	GroupID     string    `json:"group_id"`
	GuideID     *string   `json:"guide_id"`
	ServiceDate string    `json:"service_date"`
	ServiceTime string    `json:"service_time"`
	Members     []UnitRef `json:"members"`
	IssuedOn    time.Time `json:"issued_on"`
}

// NewGuideAssignmentMessage captures the group's current guide and members.
func NewGuideAssignmentMessage(g *ServiceGroup, now time.Time) *GuideAssignmentMessage {
	var guideID *string
	if g.GuideID != nil {
		id := *g.GuideID
		guideID = &id
	}
	return &GuideAssignmentMessage{
		GroupID:     g.ID,
		GuideID:     guideID,
		ServiceDate: g.ServiceDate,
		ServiceTime: g.ServiceTime,
		Members:     g.UnitRefs(),
		IssuedOn:    now.UTC(),
	}
}
