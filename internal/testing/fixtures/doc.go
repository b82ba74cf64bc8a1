// Package fixtures builds EventUp records in a test database.
//
// Factories go through the real repositories, so fixtures exercise the same
// SurrQL the API runs. Option funcs override the defaults:
//
//	f := fixtures.New(tdb.DB)
//	btc := f.CreateOrganizer(t)
//	ctv := f.CreateCollaborator(t)
//	event := f.CreateEvent(t, btc, fixtures.WithUrgent())
//	app := f.CreateApplication(t, event, ctv)
package fixtures
