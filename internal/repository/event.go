package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
)

// EventRepository handles event data access
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

func eventVars(e *model.Event) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(e.JobDetailItems))
	for _, item := range e.JobDetailItems {
		items = append(items, map[string]interface{}{
			"role":      item.Role,
			"task":      item.Task,
			"work_time": item.WorkTime,
			"quantity":  item.Quantity,
			"salary":    item.Salary,
		})
	}
	requirements := e.Requirements
	if requirements == nil {
		requirements = []string{}
	}
	return map[string]interface{}{
		"btc_id":         e.BTCID,
		"title":          e.Title,
		"description":    e.Description,
		"location":       e.Location,
		"event_type":     e.EventType,
		"salary":         e.Salary,
		"salary_value":   model.SalaryAmount(e.Salary),
		"benefits":       e.Benefits,
		"start_time":     datetime(e.StartTime),
		"end_time":       datetime(e.EndTime),
		"deadline":       datetime(e.Deadline),
		"quantity":       e.Quantity,
		"items":          items,
		"poster":         optional(e.Poster),
		"urgent":         e.Urgent,
		"status":         e.Status,
		"requirements":   requirements,
		"applied_count":  e.AppliedCount,
		"approved_count": e.ApprovedCount,
	}
}

const eventSetClause = `
	btc_id = $btc_id,
	title = $title,
	description = $description,
	location = $location,
	event_type = $event_type,
	salary = $salary,
	salary_value = $salary_value,
	benefits = $benefits,
	start_time = <datetime>$start_time,
	end_time = <datetime>$end_time,
	deadline = <datetime>$deadline,
	quantity = $quantity,
	job_details_items = $items,
	poster = $poster,
	urgent = $urgent,
	status = $status,
	requirements = $requirements,
	updated_on = time::now()`

// Create creates a new event with zeroed counters
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	query := `CREATE event SET ` + eventSetClause + `,
		applied_count = 0, approved_count = 0, views = 0, created_on = time::now()`
	raw, err := r.db.QueryOne(ctx, query, eventVars(e))
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	created, err := decodeRecord[model.Event](raw)
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

// Save writes the editable fields of an existing event; counters are left alone
func (r *EventRepository) Save(ctx context.Context, e *model.Event) error {
	vars := eventVars(e)
	vars["id"] = e.ID
	if err := r.db.Execute(ctx, `UPDATE type::record($id) SET `+eventSetClause, vars); err != nil {
		return fmt.Errorf("saving event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return decodeOne[model.Event](r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id}))
}

// Delete removes an event
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id})
}

// IncrementViews adds one view and returns the new count
func (r *EventRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `UPDATE type::record($id) SET views += 1`, map[string]interface{}{"id": id})
}

// AdjustApplied moves applied_count by delta, never below zero
func (r *EventRepository) AdjustApplied(ctx context.Context, id string, delta int) error {
	query := `UPDATE type::record($id) SET applied_count = math::max([0, applied_count + $delta]), updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": id, "delta": delta})
}

// IncrementApproved reserves one slot. It returns database.ErrConflict when the
// event is already full so two organizers' clicks cannot overfill it.
func (r *EventRepository) IncrementApproved(ctx context.Context, id string, capacity int) error {
	query := `UPDATE type::record($id) SET approved_count += 1, updated_on = time::now()
		WHERE approved_count < $capacity RETURN id`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"id": id, "capacity": capacity})
	if err != nil {
		return fmt.Errorf("reserving slot: %w", err)
	}
	if len(statementResult(results, 0)) == 0 {
		return database.ErrConflict
	}
	return nil
}

// ReleaseApproved gives back a slot reserved by IncrementApproved
func (r *EventRepository) ReleaseApproved(ctx context.Context, id string) error {
	query := `UPDATE type::record($id) SET approved_count = math::max([0, approved_count - 1]), updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": id})
}

// searchWhere builds the WHERE clause for public search
func searchWhere(f *model.EventSearchFilters) (string, map[string]interface{}) {
	conds := []string{"status = $status"}
	vars := map[string]interface{}{"status": model.EventStatusRecruiting}

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		conds = append(conds, "(string::lowercase(title) CONTAINS $keyword OR string::lowercase(description) CONTAINS $keyword)")
		vars["keyword"] = strings.ToLower(kw)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		conds = append(conds, "string::lowercase(location) CONTAINS $location")
		vars["location"] = strings.ToLower(loc)
	}
	if f.EventType != "" {
		conds = append(conds, "event_type = $event_type")
		vars["event_type"] = f.EventType
	}
	if f.Urgent != nil {
		conds = append(conds, "urgent = $urgent")
		vars["urgent"] = *f.Urgent
	}
	if f.TimeFrom != nil {
		conds = append(conds, "start_time >= <datetime>$time_from")
		vars["time_from"] = datetime(*f.TimeFrom)
	}
	if f.TimeTo != nil {
		conds = append(conds, "start_time <= <datetime>$time_to")
		vars["time_to"] = datetime(*f.TimeTo)
	}
	switch f.SalaryRange {
	case model.SalaryLow:
		conds = append(conds, "salary_value < $salary_mid")
		vars["salary_mid"] = model.SalaryMediumFloor
	case model.SalaryMedium:
		conds = append(conds, "salary_value >= $salary_mid AND salary_value <= $salary_high")
		vars["salary_mid"] = model.SalaryMediumFloor
		vars["salary_high"] = model.SalaryHighFloor
	case model.SalaryHigh:
		conds = append(conds, "salary_value > $salary_high")
		vars["salary_high"] = model.SalaryHighFloor
	}
	return strings.Join(conds, " AND "), vars
}

// Search lists recruiting events matching the filters, urgent first then newest
func (r *EventRepository) Search(ctx context.Context, f *model.EventSearchFilters, page model.Page) (*model.PageResult[*model.Event], error) {
	where, vars := searchWhere(f)
	vars["limit"] = page.Limit
	vars["start"] = page.Offset()

	query := `SELECT * FROM event WHERE ` + where + ` ORDER BY urgent DESC, created_on DESC LIMIT $limit START $start;
		SELECT count() FROM event WHERE ` + where + ` GROUP ALL;`
	return r.pageQuery(ctx, query, vars, page)
}

// ListByBTC lists an organizer's events, optionally by status, newest first
func (r *EventRepository) ListByBTC(ctx context.Context, btcID string, status model.EventStatus, page model.Page) (*model.PageResult[*model.Event], error) {
	where := "btc_id = $btc_id"
	vars := map[string]interface{}{"btc_id": btcID, "limit": page.Limit, "start": page.Offset()}
	if status != "" {
		where += " AND status = $status"
		vars["status"] = status
	}
	query := `SELECT * FROM event WHERE ` + where + ` ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() FROM event WHERE ` + where + ` GROUP ALL;`
	return r.pageQuery(ctx, query, vars, page)
}

func (r *EventRepository) pageQuery(ctx context.Context, query string, vars map[string]interface{}, page model.Page) (*model.PageResult[*model.Event], error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	events, err := decodeList[model.Event](results, 0)
	if err != nil {
		return nil, err
	}
	return &model.PageResult[*model.Event]{Items: events, Total: extractCount(results, 1), Page: page}, nil
}

// AllByBTC returns every event of an organizer ordered by start time
func (r *EventRepository) AllByBTC(ctx context.Context, btcID string) ([]*model.Event, error) {
	return r.list(ctx, `SELECT * FROM event WHERE btc_id = $btc_id ORDER BY start_time DESC`, map[string]interface{}{"btc_id": btcID})
}

// ListByIDs returns the events with the given IDs
func (r *EventRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT * FROM event WHERE <string> id IN $ids ORDER BY start_time DESC`, map[string]interface{}{"ids": ids})
}

// CountCreatedSince counts an organizer's posts since t; urgentOnly restricts to urgent posts
func (r *EventRepository) CountCreatedSince(ctx context.Context, btcID string, since time.Time, urgentOnly bool) (int, error) {
	where := "btc_id = $btc_id AND created_on >= <datetime>$since"
	if urgentOnly {
		where += " AND urgent = true"
	}
	results, err := r.db.Query(ctx, `SELECT count() FROM event WHERE `+where+` GROUP ALL`,
		map[string]interface{}{"btc_id": btcID, "since": datetime(since)})
	if err != nil {
		return 0, err
	}
	return extractCount(results, 0), nil
}

// CountCreatedThisMonth counts an organizer's posts since the start of the current month
func (r *EventRepository) CountCreatedThisMonth(ctx context.Context, btcID string, now time.Time, urgentOnly bool) (int, error) {
	return r.CountCreatedSince(ctx, btcID, monthStart(now), urgentOnly)
}

// CountByStatus counts an organizer's events in a status
func (r *EventRepository) CountByStatus(ctx context.Context, btcID string, status model.EventStatus) (int, error) {
	results, err := r.db.Query(ctx, `SELECT count() FROM event WHERE btc_id = $btc_id AND status = $status GROUP ALL`,
		map[string]interface{}{"btc_id": btcID, "status": status})
	if err != nil {
		return 0, err
	}
	return extractCount(results, 0), nil
}

// EndedBetween returns non-cancelled events whose end time falls in [from, to)
func (r *EventRepository) EndedBetween(ctx context.Context, from, to time.Time) ([]*model.Event, error) {
	query := `SELECT * FROM event WHERE end_time >= <datetime>$from AND end_time < <datetime>$to AND status != $cancelled`
	return r.list(ctx, query, map[string]interface{}{"from": datetime(from), "to": datetime(to), "cancelled": model.EventStatusCancelled})
}

// EndedBefore returns non-cancelled events that ended before cutoff
func (r *EventRepository) EndedBefore(ctx context.Context, cutoff time.Time) ([]*model.Event, error) {
	query := `SELECT * FROM event WHERE end_time < <datetime>$cutoff AND status != $cancelled`
	return r.list(ctx, query, map[string]interface{}{"cutoff": datetime(cutoff), "cancelled": model.EventStatusCancelled})
}

// StartingBetween returns non-cancelled events whose start falls in [from, to)
func (r *EventRepository) StartingBetween(ctx context.Context, from, to time.Time) ([]*model.Event, error) {
	query := `SELECT * FROM event WHERE start_time >= <datetime>$from AND start_time < <datetime>$to AND status != $cancelled`
	return r.list(ctx, query, map[string]interface{}{"from": datetime(from), "to": datetime(to), "cancelled": model.EventStatusCancelled})
}

// MarkStarted moves recruiting events that have started to PREPARING
func (r *EventRepository) MarkStarted(ctx context.Context, now time.Time) (int, error) {
	query := `UPDATE event SET status = $preparing, updated_on = time::now()
		WHERE status = $recruiting AND start_time <= <datetime>$now RETURN id`
	return r.bulkUpdate(ctx, query, map[string]interface{}{
		"preparing":  model.EventStatusPreparing,
		"recruiting": model.EventStatusRecruiting,
		"now":        datetime(now),
	})
}

// MarkEnded completes recruiting or preparing events whose end time passed
func (r *EventRepository) MarkEnded(ctx context.Context, now time.Time) (int, error) {
	query := `UPDATE event SET status = $completed, updated_on = time::now()
		WHERE status IN [$recruiting, $preparing] AND end_time <= <datetime>$now RETURN id`
	return r.bulkUpdate(ctx, query, map[string]interface{}{
		"completed":  model.EventStatusCompleted,
		"recruiting": model.EventStatusRecruiting,
		"preparing":  model.EventStatusPreparing,
		"now":        datetime(now),
	})
}

func (r *EventRepository) bulkUpdate(ctx context.Context, query string, vars map[string]interface{}) (int, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, fmt.Errorf("updating event status: %w", err)
	}
	return len(statementResult(results, 0)), nil
}

func (r *EventRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Event, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return decodeList[model.Event](results, 0)
}
