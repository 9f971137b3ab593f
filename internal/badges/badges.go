// Package badges implements the badge award rules. Rules are pure checks
// over a snapshot of group state; persistence of earned tokens is handled
// by the Awarder on a best-effort basis.
package badges

import "time"

// Badge tokens. A token, once present in a group's badge set, is never
// re-added or removed.
const (
	ContinuousPosting  = "continuous-posting"
	ProlificPoster     = "prolific-poster"
	OneYearAnniversary = "one-year-anniversary"
	PopularGroup       = "popular-group"
	LikeChampion       = "like-champion"
)

const (
	popularGroupLikes   = 10000
	likeChampionLikes   = 10000
	prolificPosterPosts = 20
	streakDays          = 7
	anniversaryAge      = 365 * 24 * time.Hour
)

// Trigger identifies the mutation that prompted an evaluation.
type Trigger int

const (
	TriggerGroupCreated Trigger = iota
	TriggerGroupLiked
	TriggerPostCreated
	TriggerPostLiked
)

// State is the snapshot a rule evaluation reads. PostDayStreak and
// PostLikeSum are aggregates scanned at evaluation time; the rest comes
// off the group row.
type State struct {
	Badges        []string
	CreatedAt     time.Time
	LikeCount     int
	PostCount     int
	PostDayStreak int
	PostLikeSum   int
	Now           time.Time
}

func (s State) has(token string) bool {
	for _, b := range s.Badges {
		if b == token {
			return true
		}
	}
	return false
}

// Evaluate returns the badge tokens newly earned for the trigger. Tokens
// already present are never returned again.
func Evaluate(trigger Trigger, s State) []string {
	var earned []string

	switch trigger {
	case TriggerGroupCreated:
		if !s.has(OneYearAnniversary) && s.Now.Sub(s.CreatedAt) >= anniversaryAge {
			earned = append(earned, OneYearAnniversary)
		}
	case TriggerGroupLiked:
		if !s.has(PopularGroup) && s.LikeCount >= popularGroupLikes {
			earned = append(earned, PopularGroup)
		}
	case TriggerPostCreated:
		if !s.has(ProlificPoster) && s.PostCount >= prolificPosterPosts {
			earned = append(earned, ProlificPoster)
		}
		if !s.has(ContinuousPosting) && s.PostDayStreak >= streakDays {
			earned = append(earned, ContinuousPosting)
		}
	case TriggerPostLiked:
		if !s.has(LikeChampion) && s.PostLikeSum >= likeChampionLikes {
			earned = append(earned, LikeChampion)
		}
	}

	return earned
}
