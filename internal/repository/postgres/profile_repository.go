package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
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
	AttractedGenders pq.StringArray `db:"attracted_genders"`
	PreferredMinAge  int            `db:"preferred_min_age"`
	PreferredMaxAge  int            `db:"preferred_max_age"`
	MatchedWith      sql.NullString `db:"matched_with"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r profileRow) toDomain() *domain.Profile {
	profile := &domain.Profile{
		ID:              r.ID,
		GuildID:         r.GuildID,
		UserID:          r.UserID,
		Age:             r.Age,
		Gender:          domain.Gender(r.Gender),
		Bio:             r.Bio,
		LookingFor:      domain.LookingFor(r.LookingFor),
		PreferredMinAge: r.PreferredMinAge,
		PreferredMaxAge: r.PreferredMaxAge,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	for _, g := range r.AttractedGenders {
		profile.AttractedGenders = append(profile.AttractedGenders, domain.Gender(g))
	}
	if r.MatchedWith.Valid {
		partner := r.MatchedWith.String
		profile.MatchedWith = &partner
	}
	return profile
}

func genderArray(genders []domain.Gender) pq.StringArray {
	out := make(pq.StringArray, 0, len(genders))
	for _, g := range genders {
		out = append(out, string(g))
	}
	return out
}

type profileRepository struct {
	db sqlx.ExtContext
	// locking is set inside transactions so GetForUpdate takes row locks.
	locking bool
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO user_profiles (
			discord_id, guild_id, age, gender, bio, looking_for, attracted_genders,
			preferred_min_age, preferred_max_age
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, matched_with, created_at, updated_at
	`
	var matchedWith sql.NullString
	err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.GuildID, profile.Age, string(profile.Gender), profile.Bio,
		string(profile.LookingFor), genderArray(profile.AttractedGenders),
		profile.PreferredMinAge, profile.PreferredMaxAge,
	).Scan(&profile.ID, &matchedWith, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProfileAlreadyExists
		}
		return classify("create profile", err)
	}
	profile.MatchedWith = nullToPtr(matchedWith)
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE user_profiles
		SET age = $1, gender = $2, bio = $3, looking_for = $4, attracted_genders = $5,
		    preferred_min_age = $6, preferred_max_age = $7, updated_at = CURRENT_TIMESTAMP
		WHERE guild_id = $8 AND discord_id = $9
		RETURNING id, matched_with, created_at, updated_at
	`
	var matchedWith sql.NullString
	err := r.db.QueryRowxContext(
		ctx, query,
		profile.Age, string(profile.Gender), profile.Bio, string(profile.LookingFor),
		genderArray(profile.AttractedGenders), profile.PreferredMinAge, profile.PreferredMaxAge,
		profile.GuildID, profile.UserID,
	).Scan(&profile.ID, &matchedWith, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProfileNotFound
		}
		return classify("update profile", err)
	}
	profile.MatchedWith = nullToPtr(matchedWith)
	return nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO user_profiles (
			discord_id, guild_id, age, gender, bio, looking_for, attracted_genders,
			preferred_min_age, preferred_max_age
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (discord_id, guild_id) DO UPDATE
		SET age = EXCLUDED.age, gender = EXCLUDED.gender, bio = EXCLUDED.bio,
		    looking_for = EXCLUDED.looking_for, attracted_genders = EXCLUDED.attracted_genders,
		    preferred_min_age = EXCLUDED.preferred_min_age,
		    preferred_max_age = EXCLUDED.preferred_max_age,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id, matched_with, created_at, updated_at
	`
	var matchedWith sql.NullString
	err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.GuildID, profile.Age, string(profile.Gender), profile.Bio,
		string(profile.LookingFor), genderArray(profile.AttractedGenders),
		profile.PreferredMinAge, profile.PreferredMaxAge,
	).Scan(&profile.ID, &matchedWith, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return classify("upsert profile", err)
	}
	profile.MatchedWith = nullToPtr(matchedWith)
	return nil
}

func (r *profileRepository) Get(ctx context.Context, guildID, userID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE guild_id = $1 AND discord_id = $2`
	return r.getOne(ctx, "get profile", query, guildID, userID)
}

func (r *profileRepository) GetForUpdate(ctx context.Context, guildID, userID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE guild_id = $1 AND discord_id = $2`
	if r.locking {
		query += ` FOR UPDATE`
	}
	return r.getOne(ctx, "lock profile", query, guildID, userID)
}

func (r *profileRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*domain.Profile, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, r.db, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, classify(op, err)
	}
	return row.toDomain(), nil
}

func (r *profileRepository) Delete(ctx context.Context, guildID, userID string) error {
	query := `DELETE FROM user_profiles WHERE guild_id = $1 AND discord_id = $2`
	result, err := r.db.ExecContext(ctx, query, guildID, userID)
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
	query := `
		UPDATE user_profiles
		SET matched_with = $1, updated_at = CURRENT_TIMESTAMP
		WHERE guild_id = $2 AND discord_id = $3
	`
	result, err := r.db.ExecContext(ctx, query, ptrToNull(partnerID), guildID, userID)
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
	query := `
		SELECT ` + profileColumns + `
		FROM user_profiles p
		WHERE p.guild_id = $1
		  AND p.discord_id <> $2
		  AND p.matched_with IS NULL
		  AND p.age BETWEEN $3 AND $4
		  AND NOT EXISTS (
		      SELECT 1 FROM swipes s
		      WHERE s.guild_id = p.guild_id AND s.swiper_id = $2 AND s.swiped_id = p.discord_id
		  )
		ORDER BY p.created_at, p.id
		LIMIT $5 OFFSET $6
	`
	var rows []profileRow
	err := sqlx.SelectContext(ctx, r.db, &rows, query,
		q.GuildID, q.RequesterID, q.MinAge, q.MaxAge, q.Limit, q.Offset)
	if err != nil {
		return nil, classify("list candidates", err)
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toDomain())
	}
	return profiles, nil
}

func nullToPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func ptrToNull(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
