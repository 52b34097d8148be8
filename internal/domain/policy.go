package domain

const (
	DefaultMinAge       = 18
	DefaultMaxAge       = 120
	DefaultBioMaxLength = 1000
)

// Policy holds the per-guild rules applied to profiles.
type Policy struct {
	MinAge       int `mapstructure:"min_age"`
	MaxAge       int `mapstructure:"max_age"`
	BioMaxLength int `mapstructure:"bio_max_length"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinAge:       DefaultMinAge,
		MaxAge:       DefaultMaxAge,
		BioMaxLength: DefaultBioMaxLength,
	}
}

// PolicySet resolves the policy for a guild, falling back to Default.
type PolicySet struct {
	Default Policy
	Guilds  map[string]Policy
}

func NewPolicySet(def Policy, guilds map[string]Policy) PolicySet {
	return PolicySet{Default: def.withDefaults(DefaultPolicy()), Guilds: guilds}
}

func (s PolicySet) For(guildID string) Policy {
	if p, ok := s.Guilds[guildID]; ok {
		return p.withDefaults(s.Default)
	}
	if s.Default == (Policy{}) {
		return DefaultPolicy()
	}
	return s.Default
}

func (p Policy) withDefaults(fallback Policy) Policy {
	if p.MinAge <= 0 {
		p.MinAge = fallback.MinAge
	}
	if p.MaxAge <= 0 {
		p.MaxAge = fallback.MaxAge
	}
	if p.BioMaxLength <= 0 {
		p.BioMaxLength = fallback.BioMaxLength
	}
	return p
}
