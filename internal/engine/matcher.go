package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"line-gateway/pkg/models"
)

// MatchRule reports whether the rule's trigger condition is satisfied by the
// event at the given instant. A returned error means the rule itself is
// malformed; callers record it against the rule and keep scanning.
func MatchRule(rule *models.Rule, event models.InboundEvent, stats *models.RuleStatistics, now time.Time) (bool, error) {
	switch rule.TriggerType {
	case models.TriggerKeyword:
		if rule.Keyword == nil {
			return false, fmt.Errorf("rule %s: keyword trigger without payload", rule.ID)
		}
		return matchKeyword(rule.Keyword, event), nil
	case models.TriggerTime:
		if rule.Time == nil {
			return false, fmt.Errorf("rule %s: time trigger without payload", rule.ID)
		}
		return matchTime(rule.Time, stats, now)
	case models.TriggerBehavior:
		if rule.Behavior == nil {
			return false, fmt.Errorf("rule %s: behavior trigger without payload", rule.ID)
		}
		return matchBehavior(rule.Behavior, event), nil
	default:
		return false, fmt.Errorf("rule %s: unknown trigger type %q", rule.ID, rule.TriggerType)
	}
}

// matchKeyword returns true if any non-blank keyword matches the event text.
// Invalid regex patterns are treated as non-matching, never as a failure.
func matchKeyword(t *models.KeywordTrigger, event models.InboundEvent) bool {
	if event.Text == "" {
		return false
	}

	text := event.Text
	if !t.CaseSensitive {
		text = strings.ToLower(text)
	}

	for _, keyword := range t.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}

		switch t.MatchType {
		case models.MatchExact:
			if !t.CaseSensitive {
				keyword = strings.ToLower(keyword)
			}
			if text == keyword {
				return true
			}
		case models.MatchPartial:
			if !t.CaseSensitive {
				keyword = strings.ToLower(keyword)
			}
			if strings.Contains(text, keyword) {
				return true
			}
		case models.MatchRegex:
			pattern := keyword
			if !t.CaseSensitive {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue
			}
			if re.MatchString(event.Text) {
				return true
			}
		}
	}
	return false
}

func matchTime(t *models.TimeTrigger, stats *models.RuleStatistics, now time.Time) (bool, error) {
	switch t.ScheduleType {
	case models.ScheduleSpecific:
		if t.TriggerDate != "" {
			target, err := time.ParseInLocation("2006-01-02 15:04", t.TriggerDate+" "+t.TriggerTime, now.Location())
			if err != nil {
				return false, fmt.Errorf("parse trigger datetime: %w", err)
			}
			diff := now.Sub(target)
			if diff < 0 {
				diff = -diff
			}
			return diff < time.Minute, nil
		}
		// Time-of-day only: match within the same minute
		target, err := time.Parse("15:04", t.TriggerTime)
		if err != nil {
			return false, fmt.Errorf("parse trigger time: %w", err)
		}
		nowMinutes := now.Hour()*60 + now.Minute()
		targetMinutes := target.Hour()*60 + target.Minute()
		diff := nowMinutes - targetMinutes
		if diff < 0 {
			diff = -diff
		}
		return diff < 1, nil

	case models.ScheduleRecurring:
		weekday := int(now.Weekday())
		for _, day := range t.RecurringDays {
			if day == weekday {
				return true, nil
			}
		}
		return false, nil

	case models.ScheduleInterval:
		if stats == nil || stats.LastTriggered == nil {
			return true, nil
		}
		elapsed := now.Sub(*stats.LastTriggered)
		return elapsed >= time.Duration(t.IntervalMinutes)*time.Minute, nil

	default:
		return false, fmt.Errorf("unknown schedule type %q", t.ScheduleType)
	}
}

func matchBehavior(t *models.BehaviorTrigger, event models.InboundEvent) bool {
	switch t.BehaviorType {
	case models.BehaviorFriendAdded:
		return event.Type == models.EventFollow
	case models.BehaviorMessageSent:
		return event.Type == models.EventMessage
	case models.BehaviorStickerSent:
		return event.Type == models.EventMessage && event.MessageType == models.MessageSticker
	case models.BehaviorLocationShared:
		return event.Type == models.EventMessage && event.MessageType == models.MessageLocation
	default:
		return false
	}
}
