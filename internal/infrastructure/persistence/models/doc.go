// Package models holds the GORM persistence models backing the fee
// ledger tables. Domain entities stay free of ORM tags; these models
// own the table mappings and convert to and from the domain layer.
//
// base.go carries the shared column sets (BaseModel, AggregateModel,
// TenantAggregateModel); ledger.go maps the fee obligation, payment
// record, fee schedule item and discount code aggregates.
package models
