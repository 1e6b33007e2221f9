package store

import (
	"sync"

	"line-gateway/pkg/models"
)

// MemoryPersistence keeps rules and statistics in process memory. Used in
// demo mode and tests; everything vanishes on restart.
type MemoryPersistence struct {
	mu    sync.Mutex
	rules []*models.Rule
	stats map[string]*models.RuleStatistics
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{stats: map[string]*models.RuleStatistics{}}
}

func (m *MemoryPersistence) LoadRules() ([]*models.Rule, map[string]*models.RuleStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rules := make([]*models.Rule, len(m.rules))
	copy(rules, m.rules)
	stats := make(map[string]*models.RuleStatistics, len(m.stats))
	for k, v := range m.stats {
		stats[k] = v
	}
	return rules, stats, nil
}

func (m *MemoryPersistence) SaveRules(rules []*models.Rule, stats map[string]*models.RuleStatistics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = make([]*models.Rule, len(rules))
	copy(m.rules, rules)
	m.stats = make(map[string]*models.RuleStatistics, len(stats))
	for k, v := range stats {
		m.stats[k] = v
	}
	return nil
}

// MemoryActivitySink discards nothing but persists nothing either; the
// bounded log lives in the ActivityStore.
type MemoryActivitySink struct{}

func NewMemoryActivitySink() *MemoryActivitySink { return &MemoryActivitySink{} }

func (MemoryActivitySink) AppendActivity(models.ActivityRecord) error { return nil }

func (MemoryActivitySink) PruneActivity(int) error { return nil }

func (MemoryActivitySink) LoadRecentActivity(int) ([]models.ActivityRecord, error) {
	return nil, nil
}
