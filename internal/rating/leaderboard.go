package rating

import (
	"context"
	"unicode/utf8"

	"github.com/dorsta123/Case-Prep/internal/types"
)

// DefaultLeaderboardSize is the number of entries shown when none is requested.
const DefaultLeaderboardSize = 10

// Tier labels.
const (
	TierSeniorPartner     = "Senior Partner"
	TierEngagementManager = "Engagement Manager"
	TierBusinessAssociate = "Business Associate"
)

// TierFor maps a rating onto its display tier.
func TierFor(rating int) string {
	switch {
	case rating >= 2000:
		return TierSeniorPartner
	case rating >= 1000:
		return TierEngagementManager
	default:
		return TierBusinessAssociate
	}
}

// MaskName hides all but the first and last character of a display name.
// Names of one or two characters are shown as is.
func MaskName(name string) string {
	if name == "" {
		return "Unknown"
	}
	if utf8.RuneCountInString(name) <= 2 {
		return name
	}
	runes := []rune(name)
	return string(runes[0]) + "..." + string(runes[len(runes)-1])
}

// Entry is one public leaderboard row.
type Entry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Tier   string `json:"tier"`
}

// Leaderboard returns the top n participants with masked names.
func (u *Updater) Leaderboard(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultLeaderboardSize
	}
	records, err := u.store.TopRatings(ctx, n)
	if err != nil {
		return nil, &types.PersistenceError{Op: "read leaderboard", Cause: err}
	}

	entries := make([]Entry, 0, len(records))
	for i, r := range records {
		entries = append(entries, Entry{
			Rank:   i + 1,
			Name:   MaskName(r.ParticipantName),
			Rating: r.Rating,
			Tier:   TierFor(r.Rating),
		})
	}
	return entries, nil
}
