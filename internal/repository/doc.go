// Package repository implements SurrealDB data access for the service group
// engine.
//
// Each repository takes a database.Database and satisfies one of the
// interfaces declared by the service package:
//
//   - InventoryRepository: activities, availabilities, splits and booking
//     allocations of a service date (read only, owned by ingestion)
//   - CostRepository: global activity costs
//   - GuideRepository: guide display names
//   - ServiceGroupRepository: the group ledger
//
// # Query Patterns
//
//   - Parameterized queries with $variable syntax
//   - type::thing() for safe record ids
//   - Multi-statement writes go through database.AtomicBatch so a group and
//     its members are created or removed together
//
// # Exclusivity
//
// service_group_member.unit_key carries a UNIQUE index (see
// migrations/001_service_groups.surql). A unit claimed twice makes the
// whole create batch fail, which surfaces as database.ErrDuplicate:
//
//	repo := NewServiceGroupRepository(db)
//	if err := repo.CreateGroup(ctx, group); err != nil {
//	    if errors.Is(err, database.ErrDuplicate) {
//	        // another group already holds one of the units
//	    }
//	    return err
//	}
//
// The sqlite subpackage implements the same interfaces over database/sql.
package repository
