package model

import "time"

// ApplicationStatus is the state of a collaborator's application
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "PENDING"
	ApplicationApproved  ApplicationStatus = "APPROVED"
	ApplicationRejected  ApplicationStatus = "REJECTED"
	ApplicationCompleted ApplicationStatus = "COMPLETED"
	ApplicationCancelled ApplicationStatus = "CANCELLED"
	ApplicationNoShow    ApplicationStatus = "NO_SHOW"
)

// ApplicationStatuses lists every status, in dashboard order
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending, ApplicationApproved, ApplicationRejected,
	ApplicationCompleted, ApplicationCancelled, ApplicationNoShow,
}

// DefaultViolationNote is recorded when an organizer reports a no-show without a reason
const DefaultViolationNote = "No-show / Violation reported by Organizer"

// applicationTransitions lists the statuses reachable from each status
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:  {ApplicationApproved, ApplicationRejected, ApplicationCancelled},
	ApplicationApproved: {ApplicationCompleted, ApplicationNoShow},
}

// CanTransition reports whether the status may move to next
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsFinished reports whether the collaborator took part (or failed to) and can be reviewed
func (s ApplicationStatus) IsFinished() bool {
	return s == ApplicationCompleted || s == ApplicationNoShow
}

// Application is a collaborator's request to work an event
type Application struct {
	ID              string            `json:"id"`
	EventID         string            `json:"event_id"`
	CTVID           string            `json:"ctv_id"`
	CoverLetter     string            `json:"cover_letter,omitempty"`
	Status          ApplicationStatus `json:"status"`
	AssignedRole    *string           `json:"assigned_role,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedOn       time.Time         `json:"created_on"`
	UpdatedOn       time.Time         `json:"updated_on"`
}

// ApplicationWithEvent is the collaborator's view of an application
type ApplicationWithEvent struct {
	*Application
	Event *Event `json:"event,omitempty"`
}

// ApplicationWithProfile is the organizer's view of an application
type ApplicationWithProfile struct {
	*Application
	Email   string          `json:"email,omitempty"`
	Phone   *string         `json:"phone,omitempty"`
	Profile *ProfileSummary `json:"profile,omitempty"`
}

// CTVDashboardStats summarizes a collaborator's activity
type CTVDashboardStats struct {
	Total          int                       `json:"total"`
	ByStatus       map[ApplicationStatus]int `json:"by_status"`
	EventsJoined   int                       `json:"events_joined"`
	UpcomingEvents []*ApplicationWithEvent   `json:"upcoming_events"`
	Chart          []ChartPoint              `json:"chart"`
}

// BulkResult reports the outcome of a bulk approve or reject
type BulkResult struct {
	Updated int      `json:"updated"`
	IDs     []string `json:"ids"`
}

// TransitionFields are the optional values written with a status change
type TransitionFields struct {
	AssignedRole    *string
	RejectionReason *string
	Notes           *string
}
