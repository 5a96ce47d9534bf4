package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// ServiceGroupService is the service group engine as seen by HTTP.
type ServiceGroupService interface {
	ListCandidateUnits(ctx context.Context, serviceDate string) ([]*model.TimeBucket, error)
	ListGroups(ctx context.Context, serviceDate string) ([]*model.ServiceGroup, error)
	GetGroup(ctx context.Context, groupID string) (*model.ServiceGroup, error)
	CreateGroup(ctx context.Context, req *model.CreateServiceGroupRequest) (*model.ServiceGroup, error)
	DeleteGroup(ctx context.Context, groupID string) error
	AssignGuide(ctx context.Context, groupID string, req *model.AssignGuideRequest) (*model.ServiceGroup, error)
	RefreshTotals(ctx context.Context, groupID string) (*model.ServiceGroup, error)
}

// ServiceGroupHandler handles service group HTTP requests
type ServiceGroupHandler struct {
	service ServiceGroupService
}

// NewServiceGroupHandler creates a new service group handler
func NewServiceGroupHandler(svc ServiceGroupService) *ServiceGroupHandler {
	return &ServiceGroupHandler{service: svc}
}

// RegisterRoutes registers service group routes
func (h *ServiceGroupHandler) RegisterRoutes(mux *http.ServeMux) {
	// Per-date views
	mux.HandleFunc("GET /v1/service-dates/{date}/units", h.ListCandidateUnits)
	mux.HandleFunc("GET /v1/service-dates/{date}/groups", h.ListGroups)

	// Groups
	mux.HandleFunc("POST /v1/service-groups", h.CreateGroup)
	mux.HandleFunc("GET /v1/service-groups/{groupId}", h.GetGroup)
	mux.HandleFunc("DELETE /v1/service-groups/{groupId}", h.DeleteGroup)
	mux.HandleFunc("PUT /v1/service-groups/{groupId}/guide", h.AssignGuide)
	mux.HandleFunc("POST /v1/service-groups/{groupId}/refresh", h.RefreshTotals)
}

// ListCandidateUnits handles GET /v1/service-dates/{date}/units
func (h *ServiceGroupHandler) ListCandidateUnits(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	buckets, err := h.service.ListCandidateUnits(r.Context(), date)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list units"))
		return
	}

	WriteCollection(w, http.StatusOK, buckets, &CollectionMeta{ServiceDate: date, Count: len(buckets)}, map[string]string{
		"self":   "/v1/service-dates/" + date + "/units",
		"groups": "/v1/service-dates/" + date + "/groups",
		"events": "/v1/service-dates/" + date + "/events",
	})
}

// ListGroups handles GET /v1/service-dates/{date}/groups
func (h *ServiceGroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	groups, err := h.service.ListGroups(r.Context(), date)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list groups"))
		return
	}

	WriteCollection(w, http.StatusOK, groups, &CollectionMeta{ServiceDate: date, Count: len(groups)}, map[string]string{
		"self":  "/v1/service-dates/" + date + "/groups",
		"units": "/v1/service-dates/" + date + "/units",
	})
}

// CreateGroup handles POST /v1/service-groups
func (h *ServiceGroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req model.CreateServiceGroupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	group, err := h.service.CreateGroup(r.Context(), &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create group"))
		return
	}

	w.Header().Set("Location", groupPath(group.ID))
	WriteData(w, http.StatusCreated, group, groupLinks(group))
}

// GetGroup handles GET /v1/service-groups/{groupId}
func (h *ServiceGroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.service.GetGroup(r.Context(), r.PathValue("groupId"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get group"))
		return
	}

	WriteData(w, http.StatusOK, group, groupLinks(group))
}

// DeleteGroup handles DELETE /v1/service-groups/{groupId}
func (h *ServiceGroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGroup(r.Context(), r.PathValue("groupId")); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete group"))
		return
	}

	WriteNoContent(w)
}

// AssignGuide handles PUT /v1/service-groups/{groupId}/guide. A null or
// missing guide_id unassigns the guide. The response carries the members so
// callers can mirror the assignment onto each unit.
func (h *ServiceGroupHandler) AssignGuide(w http.ResponseWriter, r *http.Request) {
	var req model.AssignGuideRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	group, err := h.service.AssignGuide(r.Context(), r.PathValue("groupId"), &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "assign guide"))
		return
	}

	WriteData(w, http.StatusOK, group, groupLinks(group))
}

// RefreshTotals handles POST /v1/service-groups/{groupId}/refresh
func (h *ServiceGroupHandler) RefreshTotals(w http.ResponseWriter, r *http.Request) {
	group, err := h.service.RefreshTotals(r.Context(), r.PathValue("groupId"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "refresh group"))
		return
	}

	WriteData(w, http.StatusOK, group, groupLinks(group))
}

func groupPath(id string) string {
	return "/v1/service-groups/" + id
}

func groupLinks(g *model.ServiceGroup) map[string]string {
	self := groupPath(g.ID)
	return map[string]string{
		"self":    self,
		"guide":   self + "/guide",
		"refresh": self + "/refresh",
		"units":   "/v1/service-dates/" + g.ServiceDate + "/units",
	}
}
