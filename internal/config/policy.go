package config

import (
	"fmt"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/spf13/viper"
)

// Policies builds the per-guild policy set from the matching settings and,
// when configured, the guild policy file:
//
//	guilds:
//	  "123456789":
//	    min_age: 21
//	    bio_max_length: 500
func (c *Config) Policies() (domain.PolicySet, error) {
	def := domain.Policy{
		MinAge:       c.Matching.MinAge,
		MaxAge:       c.Matching.MaxAge,
		BioMaxLength: c.Matching.BioMaxLength,
	}
	if c.Matching.GuildPolicyFile == "" {
		return domain.NewPolicySet(def, nil), nil
	}

	guilds, err := loadGuildPolicies(c.Matching.GuildPolicyFile)
	if err != nil {
		return domain.PolicySet{}, err
	}
	set := domain.NewPolicySet(def, guilds)
	for guildID := range guilds {
		p := set.For(guildID)
		if p.MinAge > p.MaxAge {
			return domain.PolicySet{}, fmt.Errorf("guild %s policy: min_age %d exceeds max_age %d", guildID, p.MinAge, p.MaxAge)
		}
	}
	return set, nil
}

func loadGuildPolicies(path string) (map[string]domain.Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read guild policy file: %w", err)
	}

	// Guild ids are numeric, so viper lower-casing keys leaves them intact.
	var guilds map[string]domain.Policy
	if err := v.UnmarshalKey("guilds", &guilds); err != nil {
		return nil, fmt.Errorf("failed to parse guild policy file: %w", err)
	}
	return guilds, nil
}
