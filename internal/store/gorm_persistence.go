package store

import (
	"encoding/json"

	"line-gateway/internal/logging"
	rows "line-gateway/internal/models"
	"line-gateway/pkg/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPersistence stores rules as rows with JSON-text payload columns
type GormPersistence struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewGormPersistence(db *gorm.DB) *GormPersistence {
	return &GormPersistence{db: db, logger: logging.GetLogger("persistence")}
}

func (p *GormPersistence) LoadRules() ([]*models.Rule, map[string]*models.RuleStatistics, error) {
	var rowList []rows.RuleRow
	if err := p.db.Order("created_at ASC").Find(&rowList).Error; err != nil {
		return nil, nil, err
	}

	var result []*models.Rule
	stats := map[string]*models.RuleStatistics{}
	for _, row := range rowList {
		rule, st, err := ruleFromRow(row)
		if err != nil {
			// A corrupt row never poisons the load; skip it.
			p.logger.Warn().Err(err).Str("rule_id", row.ID).Msg("Skipping unparseable rule row")
			continue
		}
		result = append(result, rule)
		if st != nil {
			stats[rule.ID] = st
		}
	}
	return result, stats, nil
}

// SaveRules syncs the table to the given list in one transaction; a failed
// save leaves the previous rule set intact for the next load.
func (p *GormPersistence) SaveRules(ruleList []*models.Rule, stats map[string]*models.RuleStatistics) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		ids := make([]string, 0, len(ruleList))
		for _, rule := range ruleList {
			row, err := ruleToRow(rule, stats[rule.ID])
			if err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return err
			}
			ids = append(ids, rule.ID)
		}

		// Drop rows for rules removed from the list. Gorm refuses an
		// unconditioned delete, so the empty list needs an always-true clause.
		q := tx.Where("1 = 1")
		if len(ids) > 0 {
			q = tx.Where("id NOT IN ?", ids)
		}
		return q.Delete(&rows.RuleRow{}).Error
	})
}

func ruleToRow(rule *models.Rule, st *models.RuleStatistics) (rows.RuleRow, error) {
	row := rows.RuleRow{
		ID:          rule.ID,
		Name:        rule.Name,
		Description: rule.Description,
		IsActive:    rule.IsActive,
		Priority:    rule.Priority,
		TriggerType: string(rule.TriggerType),
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}

	trigger := map[string]any{}
	switch rule.TriggerType {
	case models.TriggerKeyword:
		trigger["keyword"] = rule.Keyword
	case models.TriggerTime:
		trigger["time"] = rule.Time
	case models.TriggerBehavior:
		trigger["behavior"] = rule.Behavior
	}
	triggerJSON, err := json.Marshal(trigger)
	if err != nil {
		return row, err
	}
	row.TriggerConfig = string(triggerJSON)

	responseJSON, err := json.Marshal(rule.Response)
	if err != nil {
		return row, err
	}
	row.ResponseConfig = string(responseJSON)

	if rule.UserConditions != nil {
		b, err := json.Marshal(rule.UserConditions)
		if err != nil {
			return row, err
		}
		row.UserConditions = string(b)
	}
	if rule.Limits != nil {
		b, err := json.Marshal(rule.Limits)
		if err != nil {
			return row, err
		}
		row.Limits = string(b)
	}
	if st != nil {
		b, err := json.Marshal(st)
		if err != nil {
			return row, err
		}
		row.Statistics = string(b)
	}
	return row, nil
}

func ruleFromRow(row rows.RuleRow) (*models.Rule, *models.RuleStatistics, error) {
	rule := &models.Rule{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		IsActive:    row.IsActive,
		Priority:    row.Priority,
		TriggerType: models.TriggerType(row.TriggerType),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	var trigger struct {
		Keyword  *models.KeywordTrigger  `json:"keyword"`
		Time     *models.TimeTrigger     `json:"time"`
		Behavior *models.BehaviorTrigger `json:"behavior"`
	}
	if row.TriggerConfig != "" {
		if err := json.Unmarshal([]byte(row.TriggerConfig), &trigger); err != nil {
			return nil, nil, err
		}
	}
	rule.Keyword = trigger.Keyword
	rule.Time = trigger.Time
	rule.Behavior = trigger.Behavior

	if row.ResponseConfig != "" {
		if err := json.Unmarshal([]byte(row.ResponseConfig), &rule.Response); err != nil {
			return nil, nil, err
		}
	}
	if row.UserConditions != "" {
		rule.UserConditions = &models.UserConditions{}
		if err := json.Unmarshal([]byte(row.UserConditions), rule.UserConditions); err != nil {
			return nil, nil, err
		}
	}
	if row.Limits != "" {
		rule.Limits = &models.Limits{}
		if err := json.Unmarshal([]byte(row.Limits), rule.Limits); err != nil {
			return nil, nil, err
		}
	}

	var st *models.RuleStatistics
	if row.Statistics != "" {
		st = models.NewRuleStatistics()
		if err := json.Unmarshal([]byte(row.Statistics), st); err != nil {
			return nil, nil, err
		}
		if st.DailyTriggers == nil {
			st.DailyTriggers = map[string]int{}
		}
		if st.UserTriggers == nil {
			st.UserTriggers = map[string]int{}
		}
	}
	return rule, st, nil
}

// GormActivitySink persists activity records to the activity_logs table
type GormActivitySink struct {
	db *gorm.DB
}

func NewGormActivitySink(db *gorm.DB) *GormActivitySink {
	return &GormActivitySink{db: db}
}

func (s *GormActivitySink) AppendActivity(rec models.ActivityRecord) error {
	row := rows.ActivityRow{
		ID:        rec.ID,
		RuleID:    rec.RuleID,
		RuleName:  rec.RuleName,
		UserID:    rec.UserID,
		UserName:  rec.UserName,
		Message:   rec.Message,
		Success:   rec.Success,
		Timestamp: rec.Timestamp,
	}
	return s.db.Create(&row).Error
}

func (s *GormActivitySink) PruneActivity(keep int) error {
	return s.db.Exec(
		`DELETE FROM activity_logs WHERE id NOT IN (SELECT id FROM activity_logs ORDER BY timestamp DESC LIMIT ?)`,
		keep,
	).Error
}

func (s *GormActivitySink) LoadRecentActivity(limit int) ([]models.ActivityRecord, error) {
	var rowList []rows.ActivityRow
	if err := s.db.Order("timestamp DESC").Limit(limit).Find(&rowList).Error; err != nil {
		return nil, err
	}
	out := make([]models.ActivityRecord, 0, len(rowList))
	for _, row := range rowList {
		out = append(out, models.ActivityRecord{
			ID:        row.ID,
			RuleID:    row.RuleID,
			RuleName:  row.RuleName,
			UserID:    row.UserID,
			UserName:  row.UserName,
			Message:   row.Message,
			Success:   row.Success,
			Timestamp: row.Timestamp,
		})
	}
	return out, nil
}
