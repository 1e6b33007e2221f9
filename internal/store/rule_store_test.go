package store

import (
	"errors"
	"testing"
	"time"

	"line-gateway/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRule(id string, priority int) *models.Rule {
	return &models.Rule{
		ID:          id,
		Name:        "rule " + id,
		IsActive:    true,
		Priority:    priority,
		TriggerType: models.TriggerKeyword,
		Keyword:     &models.KeywordTrigger{Keywords: []string{"hi"}, MatchType: models.MatchExact},
		Response:    models.Response{Type: models.ResponseText, Content: "hello"},
	}
}

func TestRuleStoreOrdering(t *testing.T) {
	s := NewRuleStore(NewMemoryPersistence())

	s.AddOrUpdate(testRule("c", 3))
	s.AddOrUpdate(testRule("a", 1))
	s.AddOrUpdate(testRule("b", 2))

	rules := s.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "a", rules[0].ID)
	assert.Equal(t, "b", rules[1].ID)
	assert.Equal(t, "c", rules[2].ID)

	t.Run("equal priorities keep insertion order", func(t *testing.T) {
		s.AddOrUpdate(testRule("b2", 2))
		rules := s.Rules()
		require.Len(t, rules, 4)
		assert.Equal(t, "b", rules[1].ID)
		assert.Equal(t, "b2", rules[2].ID)
	})
}

func TestRuleStoreAddOrUpdate(t *testing.T) {
	s := NewRuleStore(NewMemoryPersistence())

	original := testRule("r1", 2)
	s.AddOrUpdate(original)
	created := s.Get("r1").CreatedAt
	require.False(t, created.IsZero())

	t.Run("update replaces in place and keeps created timestamp", func(t *testing.T) {
		updated := testRule("r1", 1)
		updated.Name = "renamed"
		s.AddOrUpdate(updated)

		rules := s.Rules()
		require.Len(t, rules, 1)
		assert.Equal(t, "renamed", rules[0].Name)
		assert.Equal(t, 1, rules[0].Priority)
		assert.Equal(t, created, rules[0].CreatedAt)
		assert.False(t, rules[0].UpdatedAt.IsZero())
	})

	t.Run("update does not reset statistics", func(t *testing.T) {
		s.RecordFire("r1", "U1", time.Now(), true)
		s.AddOrUpdate(testRule("r1", 3))
		assert.Equal(t, 1, s.Stats("r1").Triggered)
	})
}

func TestRuleStoreRemove(t *testing.T) {
	s := NewRuleStore(NewMemoryPersistence())
	s.AddOrUpdate(testRule("r1", 1))
	s.RecordFire("r1", "U1", time.Now(), true)

	s.Remove("r1")

	assert.Nil(t, s.Get("r1"))
	assert.Empty(t, s.Rules())
	// Statistics of a removed rule are gone; a fresh record is allocated
	assert.Equal(t, 0, s.Stats("r1").Triggered)
}

func TestRuleStoreToggle(t *testing.T) {
	s := NewRuleStore(NewMemoryPersistence())
	s.AddOrUpdate(testRule("r1", 1))

	s.Toggle("r1")
	assert.False(t, s.Get("r1").IsActive)
	s.Toggle("r1")
	assert.True(t, s.Get("r1").IsActive)

	t.Run("unknown id is a silent no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { s.Toggle("ghost") })
	})
}

// failingPersistence errors on every operation
type failingPersistence struct{}

func (failingPersistence) LoadRules() ([]*models.Rule, map[string]*models.RuleStatistics, error) {
	return nil, nil, errors.New("storage offline")
}

func (failingPersistence) SaveRules([]*models.Rule, map[string]*models.RuleStatistics) error {
	return errors.New("storage offline")
}

func TestRuleStorePersistenceFailures(t *testing.T) {
	t.Run("load failure starts empty", func(t *testing.T) {
		s := NewRuleStore(failingPersistence{})
		assert.Empty(t, s.Rules())
	})

	t.Run("save failure keeps memory authoritative", func(t *testing.T) {
		s := NewRuleStore(failingPersistence{})
		s.AddOrUpdate(testRule("r1", 1))
		require.NotNil(t, s.Get("r1"))
	})
}

func TestRuleStoreRecordFire(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success and failure update all counters", func(t *testing.T) {
		s := NewRuleStore(NewMemoryPersistence())
		s.AddOrUpdate(testRule("r1", 1))

		s.RecordFire("r1", "U1", now, true)
		s.RecordFire("r1", "U1", now, false)

		stats := s.Stats("r1")
		assert.Equal(t, 2, stats.Triggered)
		assert.Equal(t, 1, stats.Successful)
		assert.Equal(t, 1, stats.Failed)
		require.NotNil(t, stats.LastTriggered)
		assert.Equal(t, now, *stats.LastTriggered)
		assert.Equal(t, 2, stats.DailyTriggers[models.DateKey(now)])
		assert.Equal(t, 2, stats.UserTriggers["U1"])
	})

	t.Run("match failure counts against the rule only", func(t *testing.T) {
		s := NewRuleStore(NewMemoryPersistence())
		s.RecordMatchFailure("r1")

		stats := s.Stats("r1")
		assert.Equal(t, 0, stats.Triggered)
		assert.Equal(t, 1, stats.Failed)
		assert.Nil(t, stats.LastTriggered)
	})
}

func TestRuleStoreSnapshots(t *testing.T) {
	s := NewRuleStore(NewMemoryPersistence())
	s.AddOrUpdate(testRule("r1", 1))
	s.RecordFire("r1", "U1", time.Now(), true)

	t.Run("stats readers get a detached copy", func(t *testing.T) {
		snapshot := s.Stats("r1")
		snapshot.Triggered = 99
		snapshot.UserTriggers["U1"] = 99

		fresh := s.Stats("r1")
		assert.Equal(t, 1, fresh.Triggered)
		assert.Equal(t, 1, fresh.UserTriggers["U1"])
	})

	t.Run("rule readers get a detached copy", func(t *testing.T) {
		snapshot := s.Rules()[0]
		snapshot.IsActive = false
		snapshot.Keyword.Keywords[0] = "tampered"

		fresh := s.Get("r1")
		assert.True(t, fresh.IsActive)
		assert.Equal(t, "hi", fresh.Keyword.Keywords[0])
	})

	t.Run("stored rule is detached from the caller's object", func(t *testing.T) {
		rule := testRule("r2", 2)
		s.AddOrUpdate(rule)
		rule.Name = "mutated after store"
		assert.Equal(t, "rule r2", s.Get("r2").Name)
	})
}

func TestRuleStoreDailyRetention(t *testing.T) {
	s := NewRuleStore(NewMemoryPersistence())
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.AddOrUpdate(testRule("r1", 1))
	fresh := models.DateKey(now.AddDate(0, 0, -1))
	stale := models.DateKey(now.AddDate(0, 0, -dailyRetentionDays-1))
	seeded := models.NewRuleStatistics()
	seeded.DailyTriggers[fresh] = 4
	seeded.DailyTriggers[stale] = 9
	s.stats["r1"] = seeded

	s.Save()

	stats := s.Stats("r1")
	assert.Equal(t, 4, stats.DailyTriggers[fresh])
	_, ok := stats.DailyTriggers[stale]
	assert.False(t, ok, "buckets past the retention window are pruned on save")
}

func TestMemoryPersistenceRoundTrip(t *testing.T) {
	p := NewMemoryPersistence()
	s := NewRuleStore(p)
	s.AddOrUpdate(testRule("r1", 1))
	s.RecordFire("r1", "U1", time.Now(), true)
	s.RecordFire("r1", "U2", time.Now(), false)

	reloaded := NewRuleStore(p)
	require.NotNil(t, reloaded.Get("r1"))
	assert.Equal(t, 2, reloaded.Stats("r1").Triggered)
	assert.Equal(t, 1, reloaded.Stats("r1").Successful)
	assert.Equal(t, 1, reloaded.Stats("r1").Failed)
}
