// Package model defines domain entities and data structures for the EventUp API.
//
// The model package contains the marketplace entities, the request/response
// shapes shared by services and handlers, and the RFC 9457 error types.
//
// # Domain Entities
//
//   - User: account with role (CTV, BTC, ADMIN), status and subscription
//   - CTVProfile / BTCProfile: role profiles with reputation and trust
//   - Event: gig posted by an organizer, with recruiting rules
//   - Application: collaborator request to work an event
//   - Review: post-event feedback driving running averages
//   - Notification: in-app message, also pushed over WebSocket
//   - Payment: gateway purchase of a premium subscription
//
// # JSON Serialization
//
// Models use snake_case json tags. The same tags are used when records are
// decoded from SurrealDB, so field names in SurrQL match the tags.
//
// Small domain rules live next to the data they guard, for example
// Event.CanApply, ApplicationStatus.CanTransition and CTVProfile.AdjustTrust.
package model
