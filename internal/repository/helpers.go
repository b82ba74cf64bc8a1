package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eventup/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// normalize converts SurrealDB driver values into plain JSON-friendly values:
// record IDs become "table:id" strings and datetimes become time.Time.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID:
		return convertSurrealID(t)
	case *models.RecordID:
		if t == nil {
			return nil
		}
		return convertSurrealID(*t)
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

// decodeRecord converts one SurrealDB record into T via its json tags
func decodeRecord[T any](raw interface{}) (*T, error) {
	data, ok := normalize(raw).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected record type %T", raw)
	}
	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeList converts the records of the statement at index into []*T
func decodeList[T any](results []interface{}, index int) ([]*T, error) {
	records := statementResult(results, index)
	out := make([]*T, 0, len(records))
	for _, rec := range records {
		item, err := decodeRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// statementResult returns the record list of the statement at index
func statementResult(results []interface{}, index int) []interface{} {
	if index >= len(results) {
		return nil
	}
	resp, ok := results[index].(map[string]interface{})
	if !ok {
		return nil
	}
	if list, ok := resp["result"].([]interface{}); ok {
		return list
	}
	return nil
}

// decodeOne runs the common "first record or nil" lookup pattern
func decodeOne[T any](raw interface{}, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[T](raw)
}

// extractCount reads `count` from a `SELECT count() ... GROUP ALL` statement
func extractCount(results []interface{}, index int) int {
	records := statementResult(results, index)
	if len(records) == 0 {
		return 0
	}
	if data, ok := records[0].(map[string]interface{}); ok {
		return toInt(data["count"])
	}
	return 0
}

// toInt converts the numeric types the driver may produce
func toInt(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	case uint32:
		return int(c)
	case int32:
		return int(c)
	}
	return 0
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		tb, _ := v["tb"].(string)
		if tb == "" {
			tb, _ = v["Table"].(string)
		}
		idPart := v["id"]
		if idPart == nil {
			idPart = v["ID"]
		}
		if tb != "" && idPart != nil {
			return fmt.Sprintf("%s:%v", tb, idPart)
		}
	}
	return fmt.Sprintf("%v", id)
}

// optional converts a nil pointer to SurrealDB NONE (nil) and dereferences otherwise
func optional[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// datetime formats t for a `<datetime>$var` cast in SurrQL
func datetime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// monthStart returns the first instant of the month containing t
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
