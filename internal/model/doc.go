// Package model defines the domain entities and request types of the service
// group engine.
//
// # Units
//
// A Unit is the smallest groupable thing: a whole Availability or one of its
// Splits. UnitRef is the tagged identity of a unit and its Key is the value
// on which membership exclusivity is enforced:
//
//	AvailabilityUnit("A1").Key()    // availability:A1
//	SplitUnit("A1", "S1").Key()     // availability:A1/split:S1
//
// # Service Groups
//
// A ServiceGroup bundles at least MinGroupMembers units of one time bucket.
// TotalPax and CalculatedCost are derived; CalculatedCost is the maximum of
// the member activities' global costs, never their sum.
//
// # Validation
//
// Request types carry go-playground/validator tags and expose
// Validate() []FieldError. Field names in errors follow the json tags.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
