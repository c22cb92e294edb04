// Package core provides the business logic for browsing sales records.
//
// This package holds all domain logic independent of any transport or
// storage engine. Web handlers, the seed loader and tests use it unchanged.
//
// # Architecture
//
//   - Records: [Record] is one sales transaction with text, integer and
//     decimal fields. The empty string stands for a missing value.
//   - Parser: [ParseCSV] turns loosely formatted CSV text into records.
//   - Query engine: [Query] filters, sorts and paginates a record slice as a
//     pure function of its inputs.
//   - Options: [CollectOptions] lists the distinct values behind each filter.
//   - Service: [Service] ties a [Store] to the engine and runs imports.
//
// # Storage
//
// The service depends only on the [Store] interface. Stores that can answer
// filter options or health checks natively also implement [OptionsSource]
// and [Pinger]:
//
//	store := memory.New()
//	svc := core.NewService(store, core.ServiceConfig{BatchSize: 500})
//	page, err := svc.Query(ctx, core.Criteria{Regions: []string{"North"}})
//
// # CSV Import
//
// [Service.ImportCSV] reads the upload, strips a UTF-8 BOM, optionally
// archives the raw bytes, parses it and appends the records in batches of
// [ServiceConfig.BatchSize]. Concurrent imports are bounded by an
// [ImportLimiter]. A file that yields no records fails with [ErrNoRecords].
//
// # Dates
//
// Dates keep their original text. [ParseDate] reads ISO dates first and
// falls back to day-month-year; a date that parses neither way never matches
// a date range and sorts before every valid date.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - IMP001-IMP002: Import errors (no records, empty batch)
//   - VAL001-VAL003: Validation errors (records, criteria, JSON)
//   - FILE001-FILE004: File errors (size, form, missing file)
//   - UPL002-UPL005: Import concurrency and cancellation
//   - DB001-DB006: Database errors
package core
