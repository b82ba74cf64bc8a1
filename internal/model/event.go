package model

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EventType is the category of a gig
type EventType string

const (
	EventTypeConcert    EventType = "Concert"
	EventTypeWorkshop   EventType = "Workshop"
	EventTypeFestival   EventType = "Festival"
	EventTypeConference EventType = "Conference"
	EventTypeSports     EventType = "Sports"
	EventTypeExhibition EventType = "Exhibition"
	EventTypeOther      EventType = "Other"
)

// EventTypes lists every accepted event type
var EventTypes = []EventType{
	EventTypeConcert, EventTypeWorkshop, EventTypeFestival, EventTypeConference,
	EventTypeSports, EventTypeExhibition, EventTypeOther,
}

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventStatusPreparing  EventStatus = "PREPARING"
	EventStatusRecruiting EventStatus = "RECRUITING"
	EventStatusCompleted  EventStatus = "COMPLETED"
	EventStatusCancelled  EventStatus = "CANCELLED"
)

// Field limits
const (
	MaxEventTitleLength = 200
	MaxCoverLetter      = 1000
	MaxReviewComment    = 500
)

// SalaryRange buckets used by the public search
type SalaryRange string

const (
	SalaryLow    SalaryRange = "low"    // below 500k
	SalaryMedium SalaryRange = "medium" // 500k to 1M
	SalaryHigh   SalaryRange = "high"   // above 1M
)

// Salary bucket boundaries in VND
const (
	SalaryMediumFloor = 500000
	SalaryHighFloor   = 1000000
)

// JobDetail is one role an event is recruiting for
type JobDetail struct {
	Role     string `json:"role"`
	Task     string `json:"task,omitempty"`
	WorkTime string `json:"work_time,omitempty"`
	Quantity int    `json:"quantity"`
	Salary   string `json:"salary,omitempty"`
}

// Event represents a gig posted by an organizer
type Event struct {
	ID             string      `json:"id"`
	BTCID          string      `json:"btc_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Location       string      `json:"location"`
	EventType      EventType   `json:"event_type"`
	Salary         string      `json:"salary"`
	SalaryValue    int64       `json:"salary_value"` // digits of Salary, indexed for range search
	Benefits       string      `json:"benefits,omitempty"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        time.Time   `json:"end_time"`
	Deadline       time.Time   `json:"deadline"`
	Quantity       int         `json:"quantity"`
	JobDetailItems []JobDetail `json:"job_details_items"`
	AppliedCount   int         `json:"applied_count"`
	ApprovedCount  int         `json:"approved_count"`
	Poster         *string     `json:"poster,omitempty"`
	Urgent         bool        `json:"urgent"`
	Status         EventStatus `json:"status"`
	Views          int         `json:"views"`
	Requirements   []string    `json:"requirements"`
	CreatedOn      time.Time   `json:"created_on"`
	UpdatedOn      time.Time   `json:"updated_on"`
}

// TotalQuantity is the number of collaborators the event needs
func (e *Event) TotalQuantity() int {
	if len(e.JobDetailItems) == 0 {
		return e.Quantity
	}
	total := 0
	for _, item := range e.JobDetailItems {
		total += item.Quantity
	}
	return total
}

// IsFull reports whether every slot has an approved collaborator
func (e *Event) IsFull() bool {
	return e.ApprovedCount >= e.TotalQuantity()
}

// CanApply reports whether the event accepts new applications at now
func (e *Event) CanApply(now time.Time) bool {
	return e.Status == EventStatusRecruiting && now.Before(e.Deadline) && !e.IsFull()
}

// ValidateSchedule checks the ordering of deadline, start and end
func (e *Event) ValidateSchedule() []FieldError {
	var errs []FieldError
	if !e.EndTime.After(e.StartTime) {
		errs = append(errs, FieldError{Field: "end_time", Message: "end time must be after start time"})
	}
	if !e.Deadline.Before(e.StartTime) {
		errs = append(errs, FieldError{Field: "deadline", Message: "deadline must be before start time"})
	}
	return errs
}

// Phase classifies the event relative to now for public profiles
func (e *Event) Phase(now time.Time) string {
	switch {
	case e.Status == EventStatusCompleted || now.After(e.EndTime):
		return "past"
	case now.Before(e.StartTime):
		return "upcoming"
	default:
		return "ongoing"
	}
}

var firstNumber = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// SalaryAmount reads the first number of the free-text salary, treating "."
// and "," as thousands separators. "500.000 VND/day" becomes 500000 and a
// range like "500.000 - 700.000" reads as its lower bound. Text without
// digits yields 0; numbers beyond int64 saturate.
func SalaryAmount(salary string) int64 {
	match := firstNumber.FindString(salary)
	if match == "" {
		return 0
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(match)
	v, err := strconv.ParseInt(digits, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64
	}
	if err != nil {
		return 0
	}
	return v
}

// Matches reports whether the salary falls inside the bucket
func (r SalaryRange) Matches(salary string) bool {
	amount := SalaryAmount(salary)
	switch r {
	case SalaryLow:
		return amount < SalaryMediumFloor
	case SalaryMedium:
		return amount >= SalaryMediumFloor && amount <= SalaryHighFloor
	case SalaryHigh:
		return amount > SalaryHighFloor
	}
	return true
}

// EventSearchFilters holds the public search parameters
type EventSearchFilters struct {
	Keyword     string
	Location    string
	EventType   EventType
	Urgent      *bool
	TimeFrom    *time.Time
	TimeTo      *time.Time
	SalaryRange SalaryRange
}

// EventDetail is the public detail view of an event
type EventDetail struct {
	*Event
	Organizer             *BTCProfile `json:"organizer,omitempty"`
	SuccessfulEventsCount int         `json:"successful_events_count"`
	IsApplied             bool        `json:"is_applied"`
}

// ChartPoint is one day of a 7-day dashboard chart
type ChartPoint struct {
	Name     string `json:"name"`      // D/M
	FullDate string `json:"full_date"` // YYYY-MM-DD
	Value    int    `json:"value"`
}

// BTCDashboardStats summarizes an organizer's activity
type BTCDashboardStats struct {
	ActiveEvents        int          `json:"active_events"`
	TotalViews          int          `json:"total_views"`
	PendingApplications int          `json:"pending_applications"`
	Chart               []ChartPoint `json:"chart"`
}

// EventsByPhase groups events for public profiles
type EventsByPhase struct {
	Past     []*Event `json:"past"`
	Ongoing  []*Event `json:"ongoing"`
	Upcoming []*Event `json:"upcoming"`
	All      []*Event `json:"all"`
}

// GroupByPhase splits events into past, ongoing and upcoming
func GroupByPhase(events []*Event, now time.Time) EventsByPhase {
	out := EventsByPhase{
		Past:     []*Event{},
		Ongoing:  []*Event{},
		Upcoming: []*Event{},
		All:      events,
	}
	if out.All == nil {
		out.All = []*Event{}
	}
	for _, e := range events {
		switch e.Phase(now) {
		case "past":
			out.Past = append(out.Past, e)
		case "upcoming":
			out.Upcoming = append(out.Upcoming, e)
		default:
			out.Ongoing = append(out.Ongoing, e)
		}
	}
	return out
}

// WeekChart builds seven daily buckets ending today from the given timestamps
func WeekChart(now time.Time, stamps []time.Time) []ChartPoint {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	points := make([]ChartPoint, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i-6)
		key := day.Format("2006-01-02")
		points[i] = ChartPoint{
			Name:     strconv.Itoa(day.Day()) + "/" + strconv.Itoa(int(day.Month())),
			FullDate: key,
		}
		index[key] = i
	}
	for _, ts := range stamps {
		if i, ok := index[ts.In(loc).Format("2006-01-02")]; ok {
			points[i].Value++
		}
	}
	return points
}
