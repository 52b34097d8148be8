package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdugdh24/guildmatch/internal/domain"
)

type optionSet map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptionSet(opts []*discordgo.ApplicationCommandInteractionDataOption) optionSet {
	set := make(optionSet, len(opts))
	for _, opt := range opts {
		set[opt.Name] = opt
	}
	return set
}

func (s optionSet) str(name string) (string, bool) {
	opt, ok := s[name]
	if !ok {
		return "", false
	}
	v, ok := opt.Value.(string)
	return v, ok
}

func (s optionSet) integer(name string) (int, bool) {
	opt, ok := s[name]
	if !ok {
		return 0, false
	}
	switch v := opt.Value.(type) {
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// parseGenders splits a comma-separated list. Unknown names are kept as-is so
// profile validation reports them alongside any other problem.
func parseGenders(raw string) []domain.Gender {
	var genders []domain.Gender
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if g, ok := domain.ParseGender(part); ok {
			genders = append(genders, g)
			continue
		}
		genders = append(genders, domain.Gender(part))
	}
	return genders
}

func parseGender(raw string) domain.Gender {
	if g, ok := domain.ParseGender(raw); ok {
		return g
	}
	return domain.Gender(strings.TrimSpace(raw))
}

func parseLookingFor(raw string) domain.LookingFor {
	if l, ok := domain.ParseLookingFor(raw); ok {
		return l
	}
	return domain.LookingFor(strings.TrimSpace(raw))
}

func attrsFromOptions(s optionSet) domain.ProfileAttrs {
	var attrs domain.ProfileAttrs
	attrs.Age, _ = s.integer(optAge)
	if v, ok := s.str(optGender); ok {
		attrs.Gender = parseGender(v)
	}
	if v, ok := s.str(optAttracted); ok {
		attrs.AttractedGenders = parseGenders(v)
	}
	attrs.Bio, _ = s.str(optBio)
	if v, ok := s.str(optLookingFor); ok {
		attrs.LookingFor = parseLookingFor(v)
	}
	attrs.PreferredMinAge, _ = s.integer(optPreferredMinAge)
	attrs.PreferredMaxAge, _ = s.integer(optPreferredMaxAge)
	return attrs
}

// patchFromOptions reports false when no profile field was supplied.
func patchFromOptions(s optionSet) (domain.ProfilePatch, bool) {
	var patch domain.ProfilePatch
	changed := false
	if v, ok := s.integer(optAge); ok {
		patch.Age = &v
		changed = true
	}
	if v, ok := s.str(optGender); ok {
		g := parseGender(v)
		patch.Gender = &g
		changed = true
	}
	if v, ok := s.str(optAttracted); ok {
		genders := parseGenders(v)
		patch.AttractedGenders = &genders
		changed = true
	}
	if v, ok := s.str(optBio); ok {
		patch.Bio = &v
		changed = true
	}
	if v, ok := s.str(optLookingFor); ok {
		l := parseLookingFor(v)
		patch.LookingFor = &l
		changed = true
	}
	if v, ok := s.integer(optPreferredMinAge); ok {
		patch.PreferredMinAge = &v
		changed = true
	}
	if v, ok := s.integer(optPreferredMaxAge); ok {
		patch.PreferredMaxAge = &v
		changed = true
	}
	return patch, changed
}

const swipePrefix = "swipe"

func swipeCustomID(right bool, targetID string) string {
	direction := "left"
	if right {
		direction = "right"
	}
	return fmt.Sprintf("%s:%s:%s", swipePrefix, direction, targetID)
}

// parseSwipeCustomID decodes ids built by swipeCustomID.
func parseSwipeCustomID(customID string) (targetID string, right bool, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != swipePrefix || parts[2] == "" {
		return "", false, false
	}
	switch parts[1] {
	case "right":
		return parts[2], true, true
	case "left":
		return parts[2], false, true
	}
	return "", false, false
}
