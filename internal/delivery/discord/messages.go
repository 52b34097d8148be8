package discord

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdugdh24/guildmatch/internal/domain"
)

const (
	msgGuildOnly        = "Guildmatch commands only work inside a server."
	msgProfileCreated   = "Profile created successfully!"
	msgProfileUpdated   = "Profile updated successfully!"
	msgNothingToUpdate  = "Pass at least one option to update."
	msgProfileDeleted   = "Profile deleted successfully."
	msgNoProfileDelete  = "No profile found to delete."
	msgNoProfile        = "You don't have a profile yet. Use /create_profile first."
	msgMemberNoProfile  = "That member has no profile yet."
	msgProfileExists    = "You already have a profile. Use /update_profile to modify it."
	msgAlreadyMatched   = "You are already matched. Unmatch first to start swiping."
	msgNotMatched       = "You are not currently matched with anyone."
	msgUnmatched        = "Match removed. You are now back in the matching pool."
	msgOutOfCandidates  = "You've run out of swipes for now. Check back later!"
	msgSwipePrompt      = "Swipe right or left:"
	msgTryAgain         = "The database is busy right now. Please try again."
	msgInternal         = "Something went wrong. The problem has been logged."
	msgUnknownComponent = "That button has expired. Run /start_matching again."
	msgTargetGone       = "That member's profile is gone. Run /start_matching again."
	colorCandidate      = 0x3498db
	colorOwnProfile     = 0x2ecc71
)

func mention(userID string) string {
	return "<@" + userID + ">"
}

func matchMessage(partnerID string) string {
	return "It's a match with " + mention(partnerID) + "!"
}

// userMessage turns a usecase error into a reply. internal is true for
// failures the user cannot fix.
func userMessage(err error) (msg string, internal bool) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return "Please fix your profile:\n- " + strings.Join(validation.Problems, "\n- "), false
	case errors.Is(err, domain.ErrProfileNotFound):
		return msgNoProfile, false
	case errors.Is(err, domain.ErrProfileAlreadyExists):
		return msgProfileExists, false
	case errors.Is(err, domain.ErrAlreadyMatched):
		return msgAlreadyMatched, false
	case errors.Is(err, domain.ErrNotMatched):
		return msgNotMatched, false
	case domain.IsTransient(err):
		return msgTryAgain, true
	}
	return msgInternal, true
}

func joinGenders(genders []domain.Gender) string {
	names := make([]string, len(genders))
	for i, g := range genders {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

func candidateEmbed(p *domain.Profile) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Potential Match",
		Description: mention(p.UserID),
		Color:       colorCandidate,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Age", Value: strconv.Itoa(p.Age), Inline: true},
			{Name: "Gender", Value: string(p.Gender), Inline: true},
			{Name: "Looking for", Value: string(p.LookingFor), Inline: true},
			{Name: "Bio", Value: p.Bio},
		},
	}
}

func profileEmbed(p *domain.Profile) *discordgo.MessageEmbed {
	status := "Not matched"
	if p.IsMatched() {
		status = "Matched with " + mention(*p.MatchedWith)
	}
	return &discordgo.MessageEmbed{
		Title:       "Profile",
		Description: mention(p.UserID),
		Color:       colorOwnProfile,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Age", Value: strconv.Itoa(p.Age), Inline: true},
			{Name: "Gender", Value: string(p.Gender), Inline: true},
			{Name: "Looking for", Value: string(p.LookingFor), Inline: true},
			{Name: "Attracted to", Value: joinGenders(p.AttractedGenders), Inline: true},
			{Name: "Preferred ages", Value: strconv.Itoa(p.PreferredMinAge) + "-" + strconv.Itoa(p.PreferredMaxAge), Inline: true},
			{Name: "Status", Value: status, Inline: true},
			{Name: "Bio", Value: p.Bio},
		},
	}
}

func swipeButtons(targetID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Swipe Right", Style: discordgo.SuccessButton, CustomID: swipeCustomID(true, targetID)},
				discordgo.Button{Label: "Swipe Left", Style: discordgo.DangerButton, CustomID: swipeCustomID(false, targetID)},
			},
		},
	}
}

func ephemeral(content string, embeds ...*discordgo.MessageEmbed) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Embeds:  embeds,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

// update replaces the message the clicked button belongs to.
func update(content string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) *discordgo.InteractionResponse {
	embeds := []*discordgo.MessageEmbed{}
	if embed != nil {
		embeds = append(embeds, embed)
	}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: components,
		},
	}
}
