package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, discord_id, guild_id, age, gender, bio, looking_for, attracted_genders,
	preferred_min_age, preferred_max_age, matched_with, created_at, updated_at`

type profileRow struct {
	ID               int64          `db:"id"`
	UserID           string         `db:"discord_id"`
	GuildID          string         `db:"guild_id"`
	Age              int            `db:"age"`
	Gender           string         `db:"gender"`
	Bio              string         `db:"bio"`
	LookingFor       string         `db:"looking_for"`
	AttractedGenders string         `db:"attracted_genders"`
	PreferredMinAge  int            `db:"preferred_min_age"`
	PreferredMaxAge  int            `db:"preferred_max_age"`
	MatchedWith      sql.NullString `db:"matched_with"`
	CreatedAt        int64          `db:"created_at"`
	UpdatedAt        int64          `db:"updated_at"`
}

func (r profileRow) toDomain() *domain.Profile {
	return &domain.Profile{
		ID:               r.ID,
		GuildID:          r.GuildID,
		UserID:           r.UserID,
		Age:              r.Age,
		Gender:           domain.Gender(r.Gender),
		Bio:              r.Bio,
		LookingFor:       domain.LookingFor(r.LookingFor),
		AttractedGenders: decodeGenders(r.AttractedGenders),
		PreferredMinAge:  r.PreferredMinAge,
		PreferredMaxAge:  r.PreferredMaxAge,
		MatchedWith:      nullToPtr(r.MatchedWith),
		CreatedAt:        fromMillis(r.CreatedAt),
		UpdatedAt:        fromMillis(r.UpdatedAt),
	}
}

type profileRepository struct {
	db  sqlx.ExtContext
	now func() time.Time
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	now := r.now()
	query := `
		INSERT INTO user_profiles (
			discord_id, guild_id, age, gender, bio, looking_for, attracted_genders,
			preferred_min_age, preferred_max_age, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.GuildID, profile.Age, string(profile.Gender), profile.Bio,
		string(profile.LookingFor), encodeGenders(profile.AttractedGenders),
		profile.PreferredMinAge, profile.PreferredMaxAge, toMillis(now), toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProfileAlreadyExists
		}
		return classify("create profile", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return classify("create profile", err)
	}
	profile.ID = id
	profile.MatchedWith = nil
	profile.CreatedAt = fromMillis(toMillis(now))
	profile.UpdatedAt = profile.CreatedAt
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE user_profiles
		SET age = ?, gender = ?, bio = ?, looking_for = ?, attracted_genders = ?,
		    preferred_min_age = ?, preferred_max_age = ?, updated_at = ?
		WHERE guild_id = ? AND discord_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.Age, string(profile.Gender), profile.Bio, string(profile.LookingFor),
		encodeGenders(profile.AttractedGenders), profile.PreferredMinAge, profile.PreferredMaxAge,
		toMillis(r.now()), profile.GuildID, profile.UserID,
	)
	if err != nil {
		return classify("update profile", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify("update profile", err)
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return r.refresh(ctx, profile)
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	now := toMillis(r.now())
	query := `
		INSERT INTO user_profiles (
			discord_id, guild_id, age, gender, bio, looking_for, attracted_genders,
			preferred_min_age, preferred_max_age, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (discord_id, guild_id) DO UPDATE
		SET age = excluded.age, gender = excluded.gender, bio = excluded.bio,
		    looking_for = excluded.looking_for, attracted_genders = excluded.attracted_genders,
		    preferred_min_age = excluded.preferred_min_age,
		    preferred_max_age = excluded.preferred_max_age,
		    updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.GuildID, profile.Age, string(profile.Gender), profile.Bio,
		string(profile.LookingFor), encodeGenders(profile.AttractedGenders),
		profile.PreferredMinAge, profile.PreferredMaxAge, now, now,
	)
	if err != nil {
		return classify("upsert profile", err)
	}
	return r.refresh(ctx, profile)
}

// refresh copies the store-owned columns back onto profile.
func (r *profileRepository) refresh(ctx context.Context, profile *domain.Profile) error {
	stored, err := r.Get(ctx, profile.GuildID, profile.UserID)
	if err != nil {
		return err
	}
	profile.ID = stored.ID
	profile.MatchedWith = stored.MatchedWith
	profile.CreatedAt = stored.CreatedAt
	profile.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *profileRepository) Get(ctx context.Context, guildID, userID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE guild_id = ? AND discord_id = ?`
	var row profileRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, guildID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, classify("get profile", err)
	}
	return row.toDomain(), nil
}

// GetForUpdate is a plain read: the single connection already serializes writers.
func (r *profileRepository) GetForUpdate(ctx context.Context, guildID, userID string) (*domain.Profile, error) {
	return r.Get(ctx, guildID, userID)
}

func (r *profileRepository) Delete(ctx context.Context, guildID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_profiles WHERE guild_id = ? AND discord_id = ?`, guildID, userID)
	if err != nil {
		return classify("delete profile", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify("delete profile", err)
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) SetMatchedWith(ctx context.Context, guildID, userID string, partnerID *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET matched_with = ?, updated_at = ? WHERE guild_id = ? AND discord_id = ?`,
		ptrToNull(partnerID), toMillis(r.now()), guildID, userID)
	if err != nil {
		return classify("set matched_with", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify("set matched_with", err)
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) ListCandidates(ctx context.Context, q repository.CandidateQuery) ([]*domain.Profile, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT ` + profileColumns + `
		FROM user_profiles p
		WHERE p.guild_id = ?
		  AND p.discord_id <> ?
		  AND p.matched_with IS NULL
		  AND p.age BETWEEN ? AND ?
		  AND NOT EXISTS (
		      SELECT 1 FROM swipes s
		      WHERE s.guild_id = p.guild_id AND s.swiper_id = ? AND s.swiped_id = p.discord_id
		  )
		ORDER BY p.created_at, p.id
		LIMIT ? OFFSET ?
	`
	var rows []profileRow
	err := sqlx.SelectContext(ctx, r.db, &rows, query,
		q.GuildID, q.RequesterID, q.MinAge, q.MaxAge, q.RequesterID, limit, q.Offset)
	if err != nil {
		return nil, classify("list candidates", err)
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toDomain())
	}
	return profiles, nil
}
