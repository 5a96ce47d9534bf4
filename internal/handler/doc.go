// Package handler provides HTTP request handlers for the service group API.
//
// # Routes
//
//	GET    /health
//	GET    /v1/service-dates/{date}/units    time buckets with eligible and grouped units
//	GET    /v1/service-dates/{date}/groups   groups of the date with live pax and cost
//	GET    /v1/service-dates/{date}/events   SSE stream of group changes
//	POST   /v1/service-groups                create a group
//	GET    /v1/service-groups/{groupId}
//	DELETE /v1/service-groups/{groupId}
//	PUT    /v1/service-groups/{groupId}/guide
//	POST   /v1/service-groups/{groupId}/refresh
//
// # Response Format
//
//   - WriteData: single resource with optional HATEOAS links
//   - WriteCollection: list with per-date metadata
//   - WriteError: RFC 9457 Problem Details error response
//
// Service errors are translated in one place, MapServiceError.
package handler
