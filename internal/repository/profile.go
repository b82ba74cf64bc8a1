package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
)

// ProfileRepository handles collaborator and organizer profiles
type ProfileRepository struct {
	db database.Database
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.Database) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ============================================================================
// Collaborator (CTV) profiles
// ============================================================================

func ctvVars(p *model.CTVProfile) map[string]interface{} {
	joined := make([]map[string]interface{}, 0, len(p.JoinedEvents))
	for _, je := range p.JoinedEvents {
		joined = append(joined, map[string]interface{}{
			"event_id":  je.EventID,
			"role":      je.Role,
			"joined_at": datetime(je.JoinedAt),
		})
	}
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	experiences := p.Experiences
	if experiences == nil {
		experiences = []string{}
	}
	vars := map[string]interface{}{
		"user_id":       p.UserID,
		"full_name":     p.FullName,
		"avatar":        optional(p.Avatar),
		"gender":        p.Gender,
		"address":       optional(p.Address),
		"skills":        skills,
		"experiences":   experiences,
		"joined_events": joined,
		"rep_score":     p.Reputation.Score,
		"rep_total":     p.Reputation.TotalReviews,
		"trust_score":   p.TrustScore,
		"dob":           nil,
	}
	if p.DateOfBirth != nil {
		vars["dob"] = datetime(*p.DateOfBirth)
	}
	return vars
}

const ctvSetClause = `
	user_id = $user_id,
	full_name = $full_name,
	avatar = $avatar,
	gender = $gender,
	address = $address,
	date_of_birth = IF $dob != NONE AND $dob != NULL THEN <datetime>$dob ELSE NONE END,
	skills = $skills,
	experiences = $experiences,
	joined_events = $joined_events,
	reputation = { score: $rep_score, total_reviews: $rep_total },
	trust_score = $trust_score,
	updated_on = time::now()`

// CreateCTV creates a collaborator profile
func (r *ProfileRepository) CreateCTV(ctx context.Context, p *model.CTVProfile) error {
	if p.Gender == "" {
		p.Gender = model.GenderOther
	}
	raw, err := r.db.QueryOne(ctx, `CREATE ctv_profile SET `+ctvSetClause+`, created_on = time::now()`, ctvVars(p))
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("creating ctv profile: %w", err)
	}
	created, err := decodeRecord[model.CTVProfile](raw)
	if err != nil {
		return err
	}
	p.ID = created.ID
	p.CreatedOn = created.CreatedOn
	p.UpdatedOn = created.UpdatedOn
	return nil
}

// SaveCTV writes every field of an existing profile
func (r *ProfileRepository) SaveCTV(ctx context.Context, p *model.CTVProfile) error {
	vars := ctvVars(p)
	vars["id"] = p.ID
	if err := r.db.Execute(ctx, `UPDATE type::record($id) SET `+ctvSetClause, vars); err != nil {
		return fmt.Errorf("saving ctv profile: %w", err)
	}
	return nil
}

// GetCTVByUserID retrieves the collaborator profile of a user
func (r *ProfileRepository) GetCTVByUserID(ctx context.Context, userID string) (*model.CTVProfile, error) {
	return decodeOne[model.CTVProfile](r.db.QueryOne(ctx,
		`SELECT * FROM ctv_profile WHERE user_id = $user_id LIMIT 1`,
		map[string]interface{}{"user_id": userID}))
}

// ListCTVByUserIDs retrieves collaborator profiles keyed by user ID
func (r *ProfileRepository) ListCTVByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.CTVProfile, error) {
	out := make(map[string]*model.CTVProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	results, err := r.db.Query(ctx, `SELECT * FROM ctv_profile WHERE user_id IN $ids`, map[string]interface{}{"ids": userIDs})
	if err != nil {
		return nil, err
	}
	profiles, err := decodeList[model.CTVProfile](results, 0)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// ============================================================================
// Organizer (BTC) profiles
// ============================================================================

func btcVars(p *model.BTCProfile) map[string]interface{} {
	successful := p.SuccessfulEvents
	if successful == nil {
		successful = []string{}
	}
	return map[string]interface{}{
		"user_id":           p.UserID,
		"agency_name":       p.AgencyName,
		"logo":              optional(p.Logo),
		"address":           optional(p.Address),
		"website":           optional(p.Website),
		"fanpage":           optional(p.Fanpage),
		"description":       optional(p.Description),
		"verified":          p.Verified,
		"successful_events": successful,
		"rating_avg":        p.Rating.Average,
		"rating_total":      p.Rating.TotalReviews,
	}
}

const btcSetClause = `
	user_id = $user_id,
	agency_name = $agency_name,
	logo = $logo,
	address = $address,
	website = $website,
	fanpage = $fanpage,
	description = $description,
	verified = $verified,
	successful_events = $successful_events,
	rating = { average: $rating_avg, total_reviews: $rating_total },
	updated_on = time::now()`

// CreateBTC creates an organizer profile
func (r *ProfileRepository) CreateBTC(ctx context.Context, p *model.BTCProfile) error {
	raw, err := r.db.QueryOne(ctx, `CREATE btc_profile SET `+btcSetClause+`, created_on = time::now()`, btcVars(p))
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("creating btc profile: %w", err)
	}
	created, err := decodeRecord[model.BTCProfile](raw)
	if err != nil {
		return err
	}
	p.ID = created.ID
	p.CreatedOn = created.CreatedOn
	p.UpdatedOn = created.UpdatedOn
	return nil
}

// SaveBTC writes every field of an existing profile
func (r *ProfileRepository) SaveBTC(ctx context.Context, p *model.BTCProfile) error {
	vars := btcVars(p)
	vars["id"] = p.ID
	if err := r.db.Execute(ctx, `UPDATE type::record($id) SET `+btcSetClause, vars); err != nil {
		return fmt.Errorf("saving btc profile: %w", err)
	}
	return nil
}

// GetBTCByUserID retrieves the organizer profile of a user
func (r *ProfileRepository) GetBTCByUserID(ctx context.Context, userID string) (*model.BTCProfile, error) {
	return decodeOne[model.BTCProfile](r.db.QueryOne(ctx,
		`SELECT * FROM btc_profile WHERE user_id = $user_id LIMIT 1`,
		map[string]interface{}{"user_id": userID}))
}

// ListBTCByUserIDs retrieves organizer profiles keyed by user ID
func (r *ProfileRepository) ListBTCByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.BTCProfile, error) {
	out := make(map[string]*model.BTCProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	results, err := r.db.Query(ctx, `SELECT * FROM btc_profile WHERE user_id IN $ids`, map[string]interface{}{"ids": userIDs})
	if err != nil {
		return nil, err
	}
	profiles, err := decodeList[model.BTCProfile](results, 0)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}
