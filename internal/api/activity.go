package api

import (
	"net/http"
	"strconv"
	"time"

	"line-gateway/internal/store"
	"line-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	Activity *store.ActivityStore
	Rules    *store.RuleStore
}

func NewActivityHandler(activity *store.ActivityStore, rules *store.RuleStore) *ActivityHandler {
	return &ActivityHandler{Activity: activity, Rules: rules}
}

// GetActivities returns recent reply activity, newest first
func (h *ActivityHandler) GetActivities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, h.Activity.Recent(limit))
}

type ruleAnalytics struct {
	RuleID         string  `json:"rule_id"`
	RuleName       string  `json:"rule_name"`
	Triggered      int     `json:"triggered"`
	Successful     int     `json:"successful"`
	Failed         int     `json:"failed"`
	SuccessRate    float64 `json:"success_rate"`
	TriggeredToday int     `json:"triggered_today"`
}

// GetAnalytics aggregates per-rule statistics for the dashboard
func (h *ActivityHandler) GetAnalytics(c *gin.Context) {
	rules := h.Rules.Rules()
	stats := h.Rules.AllStats()

	var totalTriggered, totalSuccessful, totalFailed int
	perRule := make([]ruleAnalytics, 0, len(rules))
	today := models.DateKey(time.Now())

	for _, rule := range rules {
		st := stats[rule.ID]
		if st == nil {
			continue
		}
		row := ruleAnalytics{
			RuleID:         rule.ID,
			RuleName:       rule.Name,
			Triggered:      st.Triggered,
			Successful:     st.Successful,
			Failed:         st.Failed,
			TriggeredToday: st.DailyTriggers[today],
		}
		if st.Triggered > 0 {
			row.SuccessRate = float64(st.Successful) / float64(st.Triggered)
		}
		perRule = append(perRule, row)

		totalTriggered += st.Triggered
		totalSuccessful += st.Successful
		totalFailed += st.Failed
	}

	c.JSON(http.StatusOK, gin.H{
		"total_triggered":  totalTriggered,
		"total_successful": totalSuccessful,
		"total_failed":     totalFailed,
		"rules":            perRule,
	})
}
