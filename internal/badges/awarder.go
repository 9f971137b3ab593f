package badges

import (
	"context"
	"fmt"
	"log"
	"time"

	"group-service/internal/observability"
	"group-service/internal/repositories"
	"group-service/internal/telemetry"
)

// Awarder loads group state after a triggering mutation, evaluates the
// rules for that trigger, and persists newly earned tokens.
//
// Every step is best-effort: failures are logged and audited but never
// returned, so a badge problem can not fail the mutation that caused it.
// The read-decide-write is not atomic with the trigger; the guarded
// append in the repository keeps duplicate awards harmless.
type Awarder struct {
	groups repositories.GroupRepository
	posts  repositories.PostRepository
	audit  *telemetry.AuditEmitter
	now    func() time.Time
}

// NewAwarder constructs an Awarder. audit may be nil.
func NewAwarder(groups repositories.GroupRepository, posts repositories.PostRepository, audit *telemetry.AuditEmitter) *Awarder {
	return &Awarder{groups: groups, posts: posts, audit: audit, now: time.Now}
}

// GroupCreated evaluates the anniversary rule right after group creation.
// Returns the tokens persisted, if any.
func (a *Awarder) GroupCreated(ctx context.Context, groupID int) []string {
	return a.evaluate(ctx, groupID, TriggerGroupCreated)
}

// GroupLiked evaluates the popular-group rule after a group like.
func (a *Awarder) GroupLiked(ctx context.Context, groupID int) []string {
	return a.evaluate(ctx, groupID, TriggerGroupLiked)
}

// PostCreated evaluates the prolific-poster and continuous-posting rules
// after a post is created in the group.
func (a *Awarder) PostCreated(ctx context.Context, groupID int) []string {
	return a.evaluate(ctx, groupID, TriggerPostCreated)
}

// PostLiked evaluates the like-champion rule after a post like.
func (a *Awarder) PostLiked(ctx context.Context, groupID int) []string {
	return a.evaluate(ctx, groupID, TriggerPostLiked)
}

func (a *Awarder) evaluate(ctx context.Context, groupID int, trigger Trigger) []string {
	group, err := a.groups.GetGroup(ctx, groupID)
	if err != nil {
		a.report(ctx, fmt.Sprintf("badge check: load group %d: %v", groupID, err))
		return nil
	}

	state := State{
		Badges:    group.BadgeList(),
		CreatedAt: group.CreatedAt,
		LikeCount: group.LikeCount,
		PostCount: group.PostCount,
		Now:       a.now(),
	}

	// Aggregate scans are only run when the rule they feed can still fire.
	if trigger == TriggerPostCreated && !state.has(ContinuousPosting) {
		days, err := a.posts.CountDistinctPostDays(ctx, groupID)
		if err != nil {
			a.report(ctx, fmt.Sprintf("badge check: posting streak for group %d: %v", groupID, err))
		} else {
			state.PostDayStreak = days
		}
	}
	if trigger == TriggerPostLiked && !state.has(LikeChampion) {
		sum, err := a.posts.SumLikeCounts(ctx, groupID)
		if err != nil {
			a.report(ctx, fmt.Sprintf("badge check: like sum for group %d: %v", groupID, err))
		} else {
			state.PostLikeSum = sum
		}
	}

	var awarded []string
	for _, token := range Evaluate(trigger, state) {
		if err := a.groups.AppendBadge(ctx, groupID, token); err != nil {
			a.report(ctx, fmt.Sprintf("badge award: append %q to group %d: %v", token, groupID, err))
			continue
		}
		log.Printf("badge awarded: group=%d badge=%s", groupID, token)
		observability.IncBadgeAwarded(token)
		a.audit.Emit(ctx, "INFO", fmt.Sprintf("badge %q awarded to group %d", token, groupID), "", nil)
		awarded = append(awarded, token)
	}
	return awarded
}

func (a *Awarder) report(ctx context.Context, text string) {
	log.Print(text)
	a.audit.Emit(ctx, "ERROR", text, "", nil)
}
