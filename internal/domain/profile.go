package domain

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale      Gender = "Male"
	GenderFemale    Gender = "Female"
	GenderTrans     Gender = "Trans"
	GenderNonBinary Gender = "Non-Binary"
)

// Genders lists every accepted gender in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderTrans, GenderNonBinary}

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderTrans, GenderNonBinary:
		return true
	}
	return false
}

// ParseGender accepts the canonical names case-insensitively, plus "NonBinary".
func ParseGender(raw string) (Gender, bool) {
	value := strings.TrimSpace(raw)
	if strings.EqualFold(value, "nonbinary") {
		return GenderNonBinary, true
	}
	for _, g := range Genders {
		if strings.EqualFold(value, string(g)) {
			return g, true
		}
	}
	return "", false
}

type LookingFor string

const (
	LookingForDating    LookingFor = "Dating"
	LookingForFriends   LookingFor = "Friends"
	LookingForPromNight LookingFor = "Prom Night"
)

var LookingForOptions = []LookingFor{LookingForDating, LookingForFriends, LookingForPromNight}

func (l LookingFor) Valid() bool {
	switch l {
	case LookingForDating, LookingForFriends, LookingForPromNight:
		return true
	}
	return false
}

func ParseLookingFor(raw string) (LookingFor, bool) {
	value := strings.TrimSpace(raw)
	for _, l := range LookingForOptions {
		if strings.EqualFold(value, string(l)) {
			return l, true
		}
	}
	return "", false
}

type Profile struct {
	ID               int64      `json:"id"`
	GuildID          string     `json:"guild_id"`
	UserID           string     `json:"user_id"`
	Age              int        `json:"age"`
	Gender           Gender     `json:"gender"`
	Bio              string     `json:"bio"`
	LookingFor       LookingFor `json:"looking_for"`
	AttractedGenders []Gender   `json:"attracted_genders"`
	PreferredMinAge  int        `json:"preferred_min_age"`
	PreferredMaxAge  int        `json:"preferred_max_age"`
	MatchedWith      *string    `json:"matched_with"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ProfileAttrs holds the user-editable part of a profile.
type ProfileAttrs struct {
	Age              int        `json:"age" validate:"required"`
	Gender           Gender     `json:"gender" validate:"required,gender"`
	Bio              string     `json:"bio" validate:"required"`
	LookingFor       LookingFor `json:"looking_for" validate:"omitempty,looking_for"`
	AttractedGenders []Gender   `json:"attracted_genders" validate:"required,min=1,unique,dive,gender"`
	PreferredMinAge  int        `json:"preferred_min_age"`
	PreferredMaxAge  int        `json:"preferred_max_age"`
}

// ProfilePatch is a partial update; nil fields keep their stored value.
type ProfilePatch struct {
	Age              *int        `json:"age"`
	Gender           *Gender     `json:"gender"`
	Bio              *string     `json:"bio"`
	LookingFor       *LookingFor `json:"looking_for"`
	AttractedGenders *[]Gender   `json:"attracted_genders"`
	PreferredMinAge  *int        `json:"preferred_min_age"`
	PreferredMaxAge  *int        `json:"preferred_max_age"`
}

func (p *Profile) Attrs() ProfileAttrs {
	return ProfileAttrs{
		Age:              p.Age,
		Gender:           p.Gender,
		Bio:              p.Bio,
		LookingFor:       p.LookingFor,
		AttractedGenders: append([]Gender(nil), p.AttractedGenders...),
		PreferredMinAge:  p.PreferredMinAge,
		PreferredMaxAge:  p.PreferredMaxAge,
	}
}

// Apply copies attrs onto the profile, leaving identity, match and timestamps alone.
func (p *Profile) Apply(attrs ProfileAttrs) {
	p.Age = attrs.Age
	p.Gender = attrs.Gender
	p.Bio = attrs.Bio
	p.LookingFor = attrs.LookingFor
	p.AttractedGenders = append([]Gender(nil), attrs.AttractedGenders...)
	p.PreferredMinAge = attrs.PreferredMinAge
	p.PreferredMaxAge = attrs.PreferredMaxAge
}

func (a ProfileAttrs) Merge(patch ProfilePatch) ProfileAttrs {
	if patch.Age != nil {
		a.Age = *patch.Age
	}
	if patch.Gender != nil {
		a.Gender = *patch.Gender
	}
	if patch.Bio != nil {
		a.Bio = *patch.Bio
	}
	if patch.LookingFor != nil {
		a.LookingFor = *patch.LookingFor
	}
	if patch.AttractedGenders != nil {
		a.AttractedGenders = append([]Gender(nil), (*patch.AttractedGenders)...)
	}
	if patch.PreferredMinAge != nil {
		a.PreferredMinAge = *patch.PreferredMinAge
	}
	if patch.PreferredMaxAge != nil {
		a.PreferredMaxAge = *patch.PreferredMaxAge
	}
	return a
}

func (p *Profile) IsMatched() bool {
	return p.MatchedWith != nil && *p.MatchedWith != ""
}

func (p *Profile) IsMatchedWith(userID string) bool {
	return p.MatchedWith != nil && *p.MatchedWith == userID
}

func (p *Profile) AcceptsAge(age int) bool {
	return age >= p.PreferredMinAge && age <= p.PreferredMaxAge
}

func (p *Profile) AttractedTo(g Gender) bool {
	for _, attracted := range p.AttractedGenders {
		if attracted == g {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate it freely.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.AttractedGenders = append([]Gender(nil), p.AttractedGenders...)
	if p.MatchedWith != nil {
		partner := *p.MatchedWith
		cp.MatchedWith = &partner
	}
	return &cp
}
