package engine

import (
	"testing"
	"time"

	"line-gateway/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keywordRule(keywords []string, matchType models.MatchType, caseSensitive bool) *models.Rule {
	return &models.Rule{
		ID:          "kw-rule",
		TriggerType: models.TriggerKeyword,
		Keyword: &models.KeywordTrigger{
			Keywords:      keywords,
			MatchType:     matchType,
			CaseSensitive: caseSensitive,
		},
	}
}

func textEvent(text string) models.InboundEvent {
	return models.InboundEvent{Type: models.EventMessage, Text: text, MessageType: models.MessageText}
}

func TestMatchKeyword(t *testing.T) {
	now := time.Now()

	t.Run("exact match is case insensitive by default", func(t *testing.T) {
		rule := keywordRule([]string{"Hello"}, models.MatchExact, false)

		matched, err := MatchRule(rule, textEvent("hello"), nil, now)
		require.NoError(t, err)
		assert.True(t, matched)

		matched, err = MatchRule(rule, textEvent("hello there"), nil, now)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("exact match respects case sensitivity", func(t *testing.T) {
		rule := keywordRule([]string{"Hello"}, models.MatchExact, true)

		matched, err := MatchRule(rule, textEvent("hello"), nil, now)
		require.NoError(t, err)
		assert.False(t, matched)

		matched, err = MatchRule(rule, textEvent("Hello"), nil, now)
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("partial match finds substring", func(t *testing.T) {
		rule := keywordRule([]string{"営業時間"}, models.MatchPartial, false)

		matched, err := MatchRule(rule, textEvent("今日の営業時間を教えて"), nil, now)
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("any keyword in the list matches", func(t *testing.T) {
		rule := keywordRule([]string{"price", "値段"}, models.MatchPartial, false)

		matched, err := MatchRule(rule, textEvent("値段はいくら？"), nil, now)
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("blank keywords are skipped", func(t *testing.T) {
		rule := keywordRule([]string{"", "  "}, models.MatchPartial, false)

		matched, err := MatchRule(rule, textEvent("anything"), nil, now)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("regex match", func(t *testing.T) {
		rule := keywordRule([]string{`^order\s+\d+$`}, models.MatchRegex, false)

		matched, err := MatchRule(rule, textEvent("Order 42"), nil, now)
		require.NoError(t, err)
		assert.True(t, matched)

		matched, err = MatchRule(rule, textEvent("order please"), nil, now)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("invalid regex never matches and is not an error", func(t *testing.T) {
		rule := keywordRule([]string{"[unclosed"}, models.MatchRegex, false)

		matched, err := MatchRule(rule, textEvent("[unclosed"), nil, now)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("event without text never matches", func(t *testing.T) {
		rule := keywordRule([]string{"hello"}, models.MatchPartial, false)

		matched, err := MatchRule(rule, models.InboundEvent{Type: models.EventFollow}, nil, now)
		require.NoError(t, err)
		assert.False(t, matched)
	})
}

func TestMatchTime(t *testing.T) {
	event := textEvent("ping")

	t.Run("specific datetime matches within a minute", func(t *testing.T) {
		rule := &models.Rule{
			ID:          "time-rule",
			TriggerType: models.TriggerTime,
			Time: &models.TimeTrigger{
				ScheduleType: models.ScheduleSpecific,
				TriggerDate:  "2026-09-01",
				TriggerTime:  "12:00",
			},
		}

		at := time.Date(2026, 9, 1, 12, 0, 30, 0, time.Local)
		matched, err := MatchRule(rule, event, nil, at)
		require.NoError(t, err)
		assert.True(t, matched)

		later := time.Date(2026, 9, 1, 12, 2, 0, 0, time.Local)
		matched, err = MatchRule(rule, event, nil, later)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("time of day matches any date in the same minute", func(t *testing.T) {
		rule := &models.Rule{
			ID:          "time-rule",
			TriggerType: models.TriggerTime,
			Time: &models.TimeTrigger{
				ScheduleType: models.ScheduleSpecific,
				TriggerTime:  "09:30",
			},
		}

		at := time.Date(2026, 3, 14, 9, 30, 59, 0, time.UTC)
		matched, err := MatchRule(rule, event, nil, at)
		require.NoError(t, err)
		assert.True(t, matched)

		at = time.Date(2026, 3, 14, 9, 32, 0, 0, time.UTC)
		matched, err = MatchRule(rule, event, nil, at)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("recurring matches listed weekdays", func(t *testing.T) {
		rule := &models.Rule{
			ID:          "time-rule",
			TriggerType: models.TriggerTime,
			Time: &models.TimeTrigger{
				ScheduleType:  models.ScheduleRecurring,
				RecurringDays: []int{0, 6}, // weekend
			},
		}

		saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
		matched, err := MatchRule(rule, event, nil, saturday)
		require.NoError(t, err)
		assert.True(t, matched)

		tuesday := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
		matched, err = MatchRule(rule, event, nil, tuesday)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("interval fires when never triggered", func(t *testing.T) {
		rule := &models.Rule{
			ID:          "time-rule",
			TriggerType: models.TriggerTime,
			Time: &models.TimeTrigger{
				ScheduleType:    models.ScheduleInterval,
				IntervalMinutes: 60,
			},
		}

		matched, err := MatchRule(rule, event, models.NewRuleStatistics(), time.Now())
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("interval respects elapsed time", func(t *testing.T) {
		rule := &models.Rule{
			ID:          "time-rule",
			TriggerType: models.TriggerTime,
			Time: &models.TimeTrigger{
				ScheduleType:    models.ScheduleInterval,
				IntervalMinutes: 60,
			},
		}

		now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		stats := models.NewRuleStatistics()
		last := now.Add(-30 * time.Minute)
		stats.LastTriggered = &last

		matched, err := MatchRule(rule, event, stats, now)
		require.NoError(t, err)
		assert.False(t, matched)

		last = now.Add(-61 * time.Minute)
		stats.LastTriggered = &last
		matched, err = MatchRule(rule, event, stats, now)
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("unparseable trigger time is an error", func(t *testing.T) {
		rule := &models.Rule{
			ID:          "time-rule",
			TriggerType: models.TriggerTime,
			Time: &models.TimeTrigger{
				ScheduleType: models.ScheduleSpecific,
				TriggerTime:  "25:99",
			},
		}

		_, err := MatchRule(rule, event, nil, time.Now())
		assert.Error(t, err)
	})
}

func TestMatchBehavior(t *testing.T) {
	now := time.Now()
	behaviorRule := func(bt models.BehaviorType) *models.Rule {
		return &models.Rule{
			ID:          "bh-rule",
			TriggerType: models.TriggerBehavior,
			Behavior:    &models.BehaviorTrigger{BehaviorType: bt},
		}
	}

	t.Run("friend added matches follow events only", func(t *testing.T) {
		rule := behaviorRule(models.BehaviorFriendAdded)

		matched, err := MatchRule(rule, models.InboundEvent{Type: models.EventFollow}, nil, now)
		require.NoError(t, err)
		assert.True(t, matched)

		matched, err = MatchRule(rule, textEvent("hi"), nil, now)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("sticker sent matches sticker messages", func(t *testing.T) {
		rule := behaviorRule(models.BehaviorStickerSent)

		sticker := models.InboundEvent{Type: models.EventMessage, MessageType: models.MessageSticker}
		matched, err := MatchRule(rule, sticker, nil, now)
		require.NoError(t, err)
		assert.True(t, matched)

		matched, err = MatchRule(rule, textEvent("hi"), nil, now)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("location shared matches location messages", func(t *testing.T) {
		rule := behaviorRule(models.BehaviorLocationShared)

		loc := models.InboundEvent{Type: models.EventMessage, MessageType: models.MessageLocation}
		matched, err := MatchRule(rule, loc, nil, now)
		require.NoError(t, err)
		assert.True(t, matched)
	})
}

func TestMatchRuleMalformed(t *testing.T) {
	now := time.Now()

	t.Run("missing trigger payload is an error", func(t *testing.T) {
		rule := &models.Rule{ID: "broken", TriggerType: models.TriggerKeyword}
		_, err := MatchRule(rule, textEvent("hi"), nil, now)
		assert.Error(t, err)
	})

	t.Run("unknown trigger type is an error", func(t *testing.T) {
		rule := &models.Rule{ID: "broken", TriggerType: "telepathy"}
		_, err := MatchRule(rule, textEvent("hi"), nil, now)
		assert.Error(t, err)
	})
}
