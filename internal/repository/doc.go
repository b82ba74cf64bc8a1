// Package repository implements the EventUp data access layer on SurrealDB.
//
// Each repository wraps a database.Database and owns the SurrQL for one
// record table: user, ctv_profile, btc_profile, event, application, review,
// notification, payment and refresh_token.
//
// # Conventions
//
//   - Record IDs travel as "table:id" strings and are bound with type::record($id)
//   - Lookups return (nil, nil) when the record does not exist
//   - Counter updates (applied_count, approved_count, usage) are single
//     UPDATE statements so concurrent requests cannot lose increments
//   - IncrementApproved and Transition guard with WHERE and return
//     database.ErrConflict when the guard fails
//
//	events := NewEventRepository(db)
//	if err := events.IncrementApproved(ctx, eventID, capacity); errors.Is(err, database.ErrConflict) {
//	    // event is full
//	}
package repository
