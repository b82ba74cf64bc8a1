// Package jobs runs the periodic maintenance work of the EventUp API.
//
// Every job is a Runner: a ticker loop with Start, Stop and RunOnce. A run
// takes a cache lock named after the job so only one instance acts when
// several API processes share Redis. Failures are logged and counted; the
// loop keeps going.
//
// Jobs:
//
//   - auto-complete: completes approved applications of events that ended
//     more than three days ago
//   - completion-reminders: nudges organizers one day after an event ended
//   - event-reminders: reminds organizers and approved collaborators a day
//     before an event starts
//   - event-status: moves events along PREPARING and COMPLETED by the clock
//   - monthly-reset: clears post and urgent counters when a month turns
//   - expired-subscriptions: downgrades lapsed premium plans
//   - token-cleanup: drops expired refresh tokens
package jobs
