package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/gdugdh24/guildmatch/internal/domain"
)

const (
	cmdCreateProfile = "create_profile"
	cmdUpdateProfile = "update_profile"
	cmdDeleteProfile = "delete_profile"
	cmdProfile       = "profile"
	cmdStartMatching = "start_matching"
	cmdUnmatch       = "unmatch"
)

const (
	optAge             = "age"
	optGender          = "gender"
	optAttracted       = "attracted"
	optBio             = "bio"
	optLookingFor      = "looking_for"
	optPreferredMinAge = "preferred_min_age"
	optPreferredMaxAge = "preferred_max_age"
	optUser            = "user"
)

func genderChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.Genders))
	for _, g := range domain.Genders {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: string(g), Value: string(g)})
	}
	return choices
}

func lookingForChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.LookingForOptions))
	for _, l := range domain.LookingForOptions {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: string(l), Value: string(l)})
	}
	return choices
}

// profileOptions describes the profile fields; required applies to the
// fields a new profile cannot do without.
func profileOptions(required bool) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        optAge,
			Description: "Your current age",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optGender,
			Description: "Your gender",
			Required:    required,
			Choices:     genderChoices(),
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optAttracted,
			Description: "Genders you're attracted to (comma-separated, e.g. Male,Female)",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optBio,
			Description: "A short bio",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optLookingFor,
			Description: "What you're looking for",
			Choices:     lookingForChoices(),
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        optPreferredMinAge,
			Description: "Minimum preferred age",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        optPreferredMaxAge,
			Description: "Maximum preferred age",
		},
	}
}

// Commands returns the slash commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	guildOnly := false
	return []*discordgo.ApplicationCommand{
		{
			Name:         cmdCreateProfile,
			Description:  "Create your dating profile.",
			DMPermission: &guildOnly,
			Options:      profileOptions(true),
		},
		{
			Name:         cmdUpdateProfile,
			Description:  "Update your dating profile.",
			DMPermission: &guildOnly,
			Options:      profileOptions(false),
		},
		{
			Name:         cmdDeleteProfile,
			Description:  "Delete your dating profile.",
			DMPermission: &guildOnly,
		},
		{
			Name:         cmdProfile,
			Description:  "Show your profile, or another member's.",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        optUser,
					Description: "Member to look up",
				},
			},
		},
		{
			Name:         cmdStartMatching,
			Description:  "Start swiping for matches.",
			DMPermission: &guildOnly,
		},
		{
			Name:         cmdUnmatch,
			Description:  "Unmatch from your current match.",
			DMPermission: &guildOnly,
		},
	}
}
