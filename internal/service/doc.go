// Package service implements the service group engine.
//
// The engine derives groupable units from the booking feed, partitions them
// into time buckets, and manages service groups: creation with exclusive unit
// membership, deletion, guide assignment and cost attribution.
//
// # Service Pattern
//
// Services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods validate input, load a UnitCatalog for the date, then call repositories
//   - Errors are sentinel errors or typed errors that unwrap to a sentinel
//   - Context is passed through for cancellation and request-scoped values
//
// # Derived Values
//
// Unit pax, group totals and group cost are never trusted from storage. They
// are recomputed from the feed on every read so bookings made after a group
// was created show up immediately. RefreshTotals writes the live values back
// for one group; SyncTotals does it for every drifted group of a date and is
// driven by the jobs package.
//
// # Exclusivity
//
// A unit belongs to at most one group. The service rejects known conflicts
// before writing, but the repository's unique unit_key constraint decides
// concurrent races; a rejected insert surfaces as ErrUnitAlreadyGrouped.
//
// # Example Usage
//
//	svc := NewServiceGroupService(ServiceGroupServiceConfig{
//	    InventoryRepo: store,
//	    GroupRepo:     store,
//	    CostRepo:      store,
//	    GuideRepo:     store,
//	    Events:        hub,
//	})
//	buckets, err := svc.ListCandidateUnits(ctx, "2025-06-01")
package service
