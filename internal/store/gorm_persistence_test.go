package store

import (
	"path/filepath"
	"testing"
	"time"

	"line-gateway/internal/config"
	"line-gateway/internal/database"
	rows "line-gateway/internal/models"
	"line-gateway/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "rules.db"),
	}
	db, err := database.Init(cfg)
	require.NoError(t, err)
	return db
}

func TestGormPersistence(t *testing.T) {
	db := openTestDB(t)
	p := NewGormPersistence(db)

	full := testRule("r1", 1)
	full.Response.ABTest = &models.ABTest{
		Enabled: true,
		Variants: []models.Variant{
			{Name: "a", Weight: 70, Content: "X"},
			{Name: "b", Weight: 30, Content: "Y"},
		},
	}
	full.UserConditions = &models.UserConditions{Enabled: true, Tags: []string{"vip"}}
	full.Limits = &models.Limits{Enabled: true, MaxPerDay: 2}

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	stats := models.NewRuleStatistics()
	stats.Triggered = 3
	stats.Successful = 2
	stats.Failed = 1
	stats.LastTriggered = &now
	stats.DailyTriggers[models.DateKey(now)] = 3
	stats.UserTriggers["U1"] = 3

	require.NoError(t, p.SaveRules(
		[]*models.Rule{full, testRule("r2", 2)},
		map[string]*models.RuleStatistics{"r1": stats},
	))

	t.Run("rules and statistics round-trip", func(t *testing.T) {
		loaded, loadedStats, err := p.LoadRules()
		require.NoError(t, err)
		require.Len(t, loaded, 2)

		byID := map[string]*models.Rule{}
		for _, r := range loaded {
			byID[r.ID] = r
		}
		r1 := byID["r1"]
		require.NotNil(t, r1)
		require.NotNil(t, r1.Keyword)
		assert.Equal(t, []string{"hi"}, r1.Keyword.Keywords)
		require.NotNil(t, r1.Response.ABTest)
		assert.Len(t, r1.Response.ABTest.Variants, 2)
		require.NotNil(t, r1.UserConditions)
		assert.Equal(t, []string{"vip"}, r1.UserConditions.Tags)
		require.NotNil(t, r1.Limits)
		assert.Equal(t, 2, r1.Limits.MaxPerDay)

		st := loadedStats["r1"]
		require.NotNil(t, st)
		assert.Equal(t, 3, st.Triggered)
		assert.Equal(t, 2, st.Successful)
		assert.Equal(t, 1, st.Failed)
		assert.Equal(t, 3, st.DailyTriggers[models.DateKey(now)])
		assert.Equal(t, 3, st.UserTriggers["U1"])
	})

	t.Run("removed rules are deleted on the next save", func(t *testing.T) {
		require.NoError(t, p.SaveRules(
			[]*models.Rule{testRule("r2", 2)},
			map[string]*models.RuleStatistics{},
		))

		loaded, _, err := p.LoadRules()
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "r2", loaded[0].ID)
	})

	t.Run("saving an empty list clears the table", func(t *testing.T) {
		require.NoError(t, p.SaveRules(nil, nil))

		loaded, _, err := p.LoadRules()
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})
}

func TestGormPersistenceCorruptRow(t *testing.T) {
	db := openTestDB(t)
	p := NewGormPersistence(db)

	require.NoError(t, p.SaveRules(
		[]*models.Rule{testRule("good", 1)},
		map[string]*models.RuleStatistics{},
	))
	require.NoError(t, db.Create(&rows.RuleRow{
		ID:            "bad",
		Name:          "corrupt",
		TriggerType:   "keyword",
		TriggerConfig: "{not json",
	}).Error)

	loaded, _, err := p.LoadRules()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].ID)
}
