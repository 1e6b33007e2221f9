// Package store owns the durable state of the gateway: the rule list with
// its statistics, the bounded activity log, and friend profiles.
package store

import (
	"sort"
	"sync"
	"time"

	"line-gateway/internal/logging"
	"line-gateway/pkg/models"

	"github.com/rs/zerolog"
)

// Daily trigger buckets older than this are dropped on save.
const dailyRetentionDays = 90

// Persistence round-trips the rule list and statistics map. Implementations
// must tolerate empty or missing state on first run.
type Persistence interface {
	LoadRules() ([]*models.Rule, map[string]*models.RuleStatistics, error)
	SaveRules(rules []*models.Rule, stats map[string]*models.RuleStatistics) error
}

// RuleStore holds the authoritative in-memory rule list, sorted by ascending
// priority, and flushes it through a Persistence collaborator. Persistence
// failures are logged, never raised; the in-memory state stays authoritative.
type RuleStore struct {
	mu      sync.Mutex
	persist Persistence
	logger  zerolog.Logger
	rules   []*models.Rule
	stats   map[string]*models.RuleStatistics
	now     func() time.Time
}

func NewRuleStore(persist Persistence) *RuleStore {
	s := &RuleStore{
		persist: persist,
		logger:  logging.GetLogger("rulestore"),
		stats:   map[string]*models.RuleStatistics{},
		now:     time.Now,
	}
	s.load()
	return s
}

func (s *RuleStore) load() {
	rules, stats, err := s.persist.LoadRules()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load rules, starting empty")
		s.rules = nil
		s.stats = map[string]*models.RuleStatistics{}
		return
	}
	if stats == nil {
		stats = map[string]*models.RuleStatistics{}
	}
	s.rules = rules
	s.stats = stats
	s.sortLocked()
	s.logger.Info().Int("rules", len(rules)).Msg("Rules loaded")
}

// Save flushes rules and statistics through the persistence collaborator
func (s *RuleStore) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

func (s *RuleStore) saveLocked() {
	s.pruneLocked()
	if err := s.persist.SaveRules(s.rules, s.stats); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save rules")
	}
}

// pruneLocked drops daily trigger buckets past the retention window
func (s *RuleStore) pruneLocked() {
	cutoff := models.DateKey(s.now().AddDate(0, 0, -dailyRetentionDays))
	for _, st := range s.stats {
		for key := range st.DailyTriggers {
			if key < cutoff {
				delete(st.DailyTriggers, key)
			}
		}
	}
}

// Rules returns a deep-copied snapshot in ascending-priority order. Callers
// never see the store's live objects; Toggle and updates cannot race reads.
func (s *RuleStore) Rules() []*models.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the rule with the given id, or nil
func (s *RuleStore) Get(id string) *models.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule := s.findLocked(id); rule != nil {
		return rule.Clone()
	}
	return nil
}

func (s *RuleStore) findLocked(id string) *models.Rule {
	for _, r := range s.rules {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// AddOrUpdate replaces the rule with the same id or appends it, then
// re-sorts by ascending priority and saves.
func (s *RuleStore) AddOrUpdate(rule *models.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule = rule.Clone()
	rule.UpdatedAt = s.now()
	replaced := false
	for i, r := range s.rules {
		if r.ID == rule.ID {
			rule.CreatedAt = r.CreatedAt
			s.rules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		if rule.CreatedAt.IsZero() {
			rule.CreatedAt = s.now()
		}
		s.rules = append(s.rules, rule)
	}
	s.sortLocked()
	s.saveLocked()
}

// Remove deletes the rule and its statistics. Unknown ids are a no-op
// apart from the save.
func (s *RuleStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.rules {
		if r.ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			break
		}
	}
	delete(s.stats, id)
	s.saveLocked()
}

// Toggle flips IsActive. Silent no-op on unknown ids.
func (s *RuleStore) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule := s.findLocked(id)
	if rule == nil {
		return
	}
	rule.IsActive = !rule.IsActive
	rule.UpdatedAt = s.now()
	s.saveLocked()
}

// Stats returns a copy of the rule's statistics; a zeroed record for rules
// that never fired. The live record stays behind the lock.
func (s *RuleStore) Stats(id string) *models.RuleStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[id]; ok {
		return st.Clone()
	}
	return models.NewRuleStatistics()
}

// AllStats returns copies of the statistics records keyed by rule id
func (s *RuleStore) AllStats() map[string]*models.RuleStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.RuleStatistics, len(s.stats))
	for k, v := range s.stats {
		out[k] = v.Clone()
	}
	return out
}

// RecordFire applies one dispatch outcome to the rule's statistics and
// saves. All counter mutation happens here, under the store lock.
func (s *RuleStore) RecordFire(ruleID, userID string, now time.Time, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statsLocked(ruleID)
	st.Triggered++
	if success {
		st.Successful++
	} else {
		st.Failed++
	}
	ts := now
	st.LastTriggered = &ts
	st.DailyTriggers[models.DateKey(now)]++
	st.UserTriggers[userID]++
	s.saveLocked()
}

// RecordMatchFailure counts a malformed rule's matching error and saves
func (s *RuleStore) RecordMatchFailure(ruleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsLocked(ruleID).Failed++
	s.saveLocked()
}

func (s *RuleStore) statsLocked(id string) *models.RuleStatistics {
	st, ok := s.stats[id]
	if !ok {
		st = models.NewRuleStatistics()
		s.stats[id] = st
	}
	return st
}

// Ascending priority; ties keep original order.
func (s *RuleStore) sortLocked() {
	sort.SliceStable(s.rules, func(i, j int) bool {
		return s.rules[i].Priority < s.rules[j].Priority
	})
}
