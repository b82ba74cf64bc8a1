// Package service implements the business logic layer for the EventUp API.
//
// Services hold the rules for organizers (BTC) posting events, collaborators
// (CTV) applying to them, reviews, subscriptions and payments. HTTP handlers
// and background jobs call into services; services call repositories.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with its dependencies
//   - Methods validate input, enforce ownership, and return sentinel errors from errors.go
//   - Side effects such as notifications and emails are logged and never fail the operation
//
// # Repository Interfaces
//
// Services define the repository interfaces they need, so tests can swap in
// in-memory fakes and the package does not depend on the database layer.
//
// # Example Usage
//
//	events := NewEventService(EventServiceConfig{
//	    EventRepo: eventRepository,
//	    AppRepo:   applicationRepository,
//	    UserRepo:  userRepository,
//	    Plans:     DefaultPlanConfig(),
//	})
//	event, err := events.Create(ctx, organizerID, CreateEventRequest{
//	    Title: "Summer Festival",
//	})
package service
