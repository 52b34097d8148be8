package domain

// Compatible reports whether candidate may be shown to requester. Swipe
// history is not considered here; storage excludes already-swiped profiles.
func Compatible(requester, candidate *Profile) bool {
	if requester == nil || candidate == nil {
		return false
	}
	if requester.GuildID != candidate.GuildID || requester.UserID == candidate.UserID {
		return false
	}
	if candidate.IsMatched() {
		return false
	}
	if !requester.AcceptsAge(candidate.Age) || !candidate.AcceptsAge(requester.Age) {
		return false
	}
	if !requester.AttractedTo(candidate.Gender) || !candidate.AttractedTo(requester.Gender) {
		return false
	}
	return requester.LookingFor == candidate.LookingFor
}
