package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
)

// ApplicationRepository handles application data access
type ApplicationRepository struct {
	db database.Database
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db database.Database) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create stores a PENDING application. A second application for the same
// event by the same collaborator returns database.ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	query := `
		CREATE application CONTENT {
			event_id: $event_id,
			ctv_id: $ctv_id,
			cover_letter: $cover_letter,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	raw, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"event_id":     app.EventID,
		"ctv_id":       app.CTVID,
		"cover_letter": app.CoverLetter,
		"status":       model.ApplicationPending,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("creating application: %w", err)
	}
	created, err := decodeRecord[model.Application](raw)
	if err != nil {
		return err
	}
	*app = *created
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*model.Application, error) {
	return decodeOne[model.Application](r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id}))
}

// GetByEventAndCTV retrieves the application of a collaborator for an event
func (r *ApplicationRepository) GetByEventAndCTV(ctx context.Context, eventID, ctvID string) (*model.Application, error) {
	return decodeOne[model.Application](r.db.QueryOne(ctx,
		`SELECT * FROM application WHERE event_id = $event_id AND ctv_id = $ctv_id LIMIT 1`,
		map[string]interface{}{"event_id": eventID, "ctv_id": ctvID}))
}

// ListByIDs returns the applications with the given IDs
func (r *ApplicationRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Application, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT * FROM application WHERE <string> id IN $ids`, map[string]interface{}{"ids": ids})
}

// Transition moves an application from one status to another and records the
// optional fields. It returns database.ErrConflict when the stored status is
// no longer from.
func (r *ApplicationRepository) Transition(ctx context.Context, id string, from, to model.ApplicationStatus, fields model.TransitionFields) (*model.Application, error) {
	query := `UPDATE type::record($id) SET
			status = $to,
			assigned_role = IF $assigned_role != NONE AND $assigned_role != NULL THEN $assigned_role ELSE assigned_role END,
			rejection_reason = IF $reason != NONE AND $reason != NULL THEN $reason ELSE rejection_reason END,
			notes = IF $notes != NONE AND $notes != NULL THEN $notes ELSE notes END,
			updated_on = time::now()
		WHERE status = $from
		RETURN AFTER`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"id":            id,
		"from":          from,
		"to":            to,
		"assigned_role": optional(fields.AssignedRole),
		"reason":        optional(fields.RejectionReason),
		"notes":         optional(fields.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("updating application: %w", err)
	}
	apps, err := decodeList[model.Application](results, 0)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, database.ErrConflict
	}
	return apps[0], nil
}

// ListByCTV lists a collaborator's applications, newest first
func (r *ApplicationRepository) ListByCTV(ctx context.Context, ctvID string, status model.ApplicationStatus, page model.Page) (*model.PageResult[*model.Application], error) {
	where := "ctv_id = $ctv_id"
	vars := map[string]interface{}{"ctv_id": ctvID, "limit": page.Limit, "start": page.Offset()}
	if status != "" {
		where += " AND status = $status"
		vars["status"] = status
	}
	query := `SELECT * FROM application WHERE ` + where + ` ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() FROM application WHERE ` + where + ` GROUP ALL;`
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	apps, err := decodeList[model.Application](results, 0)
	if err != nil {
		return nil, err
	}
	return &model.PageResult[*model.Application]{Items: apps, Total: extractCount(results, 1), Page: page}, nil
}

// AllByCTV returns every application of a collaborator
func (r *ApplicationRepository) AllByCTV(ctx context.Context, ctvID string) ([]*model.Application, error) {
	return r.list(ctx, `SELECT * FROM application WHERE ctv_id = $ctv_id ORDER BY created_on DESC`, map[string]interface{}{"ctv_id": ctvID})
}

// ListByEvent returns every application for an event, newest first
func (r *ApplicationRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Application, error) {
	return r.list(ctx, `SELECT * FROM application WHERE event_id = $event_id ORDER BY created_on DESC`, map[string]interface{}{"event_id": eventID})
}

// ListByEventAndStatus returns the applications of an event in a status
func (r *ApplicationRepository) ListByEventAndStatus(ctx context.Context, eventID string, status model.ApplicationStatus) ([]*model.Application, error) {
	return r.list(ctx, `SELECT * FROM application WHERE event_id = $event_id AND status = $status`,
		map[string]interface{}{"event_id": eventID, "status": status})
}

// CountByEvent counts applications for an event
func (r *ApplicationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	results, err := r.db.Query(ctx, `SELECT count() FROM application WHERE event_id = $event_id GROUP ALL`,
		map[string]interface{}{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return extractCount(results, 0), nil
}

// CountPendingForEvents counts PENDING applications across the given events
func (r *ApplicationRepository) CountPendingForEvents(ctx context.Context, eventIDs []string) (int, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	results, err := r.db.Query(ctx, `SELECT count() FROM application WHERE event_id IN $ids AND status = $status GROUP ALL`,
		map[string]interface{}{"ids": eventIDs, "status": model.ApplicationPending})
	if err != nil {
		return 0, err
	}
	return extractCount(results, 0), nil
}

// CreatedSinceForEvents returns creation times of applications for the given events since t
func (r *ApplicationRepository) CreatedSinceForEvents(ctx context.Context, eventIDs []string, since time.Time) ([]time.Time, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	apps, err := r.list(ctx, `SELECT * FROM application WHERE event_id IN $ids AND created_on >= <datetime>$since`,
		map[string]interface{}{"ids": eventIDs, "since": datetime(since)})
	if err != nil {
		return nil, err
	}
	stamps := make([]time.Time, 0, len(apps))
	for _, a := range apps {
		stamps = append(stamps, a.CreatedOn)
	}
	return stamps, nil
}

func (r *ApplicationRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Application, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return decodeList[model.Application](results, 0)
}
