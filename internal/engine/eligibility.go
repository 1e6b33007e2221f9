package engine

import (
	"time"

	"line-gateway/pkg/models"
)

// Eligible decides whether a matched rule may fire for this user right now.
// Segment conditions and rate limits are AND-combined; any failing check
// rejects the attempt silently.
func Eligible(rule *models.Rule, user *models.UserProfile, stats *models.RuleStatistics, now time.Time) bool {
	if c := rule.UserConditions; c != nil && c.Enabled {
		if len(c.Tags) > 0 && !hasAnyTag(user, c.Tags) {
			return false
		}
		if len(c.ExcludeTags) > 0 && hasAnyTag(user, c.ExcludeTags) {
			return false
		}
		if len(c.Groups) > 0 && !inAnyGroup(user, c.Groups) {
			return false
		}
	}

	if l := rule.Limits; l != nil && l.Enabled && stats != nil {
		if l.MaxPerDay > 0 && stats.DailyTriggers[models.DateKey(now)] >= l.MaxPerDay {
			return false
		}
		if l.MaxPerUser > 0 && stats.UserTriggers[user.ID] >= l.MaxPerUser {
			return false
		}
		if l.CooldownMinutes > 0 && stats.LastTriggered != nil {
			cooldown := time.Duration(l.CooldownMinutes) * time.Minute
			if now.Sub(*stats.LastTriggered) < cooldown {
				return false
			}
		}
	}

	return true
}

func hasAnyTag(user *models.UserProfile, tags []string) bool {
	for _, tag := range tags {
		if user.HasTag(tag) {
			return true
		}
	}
	return false
}

func inAnyGroup(user *models.UserProfile, groups []string) bool {
	for _, group := range groups {
		if user.InGroup(group) {
			return true
		}
	}
	return false
}
