package engine

import (
	"fmt"

	"line-gateway/pkg/models"

	"github.com/google/uuid"
)

// dispatch sends the resolved content and unconditionally records the
// outcome: counters, timestamps, buckets, persistence, and the activity log.
func (e *Engine) dispatch(rule *models.Rule, user *models.UserProfile, content string) {
	err := e.send(user.ID, content)
	success := err == nil
	if !success {
		e.logger.Warn().Err(err).Str("rule_id", rule.ID).Str("user_id", user.ID).
			Msg("Dispatch failed")
	}

	now := e.now()
	e.store.RecordFire(rule.ID, user.ID, now, success)

	rec := models.ActivityRecord{
		ID:        uuid.NewString(),
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		UserID:    user.ID,
		UserName:  user.Name,
		Message:   content,
		Success:   success,
		Timestamp: now,
	}
	e.activity.Append(rec)
	if e.notifier != nil {
		e.notifier.NotifyActivity(rec)
	}

	e.logger.Info().Str("rule", rule.Name).Str("user_id", user.ID).Bool("success", success).
		Msg("Rule fired")
}

// send guards against a panicking gateway implementation; a panic counts as
// a failed send.
func (e *Engine) send(userID, content string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return e.gateway.Send(userID, content)
}
