package api

import (
	"fmt"
	"net/http"

	"line-gateway/internal/store"
	"line-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RuleHandler struct {
	Store *store.RuleStore
}

func NewRuleHandler(ruleStore *store.RuleStore) *RuleHandler {
	return &RuleHandler{Store: ruleStore}
}

type ruleWithStats struct {
	*models.Rule
	Statistics *models.RuleStatistics `json:"statistics,omitempty"`
}

// GetRules returns all rules in evaluation order, with their statistics
func (h *RuleHandler) GetRules(c *gin.Context) {
	rules := h.Store.Rules()
	stats := h.Store.AllStats()

	out := make([]ruleWithStats, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleWithStats{Rule: rule, Statistics: stats[rule.ID]})
	}
	c.JSON(http.StatusOK, out)
}

// CreateRule adds a new auto-reply rule
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var rule models.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := validateRule(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.Store.AddOrUpdate(&rule)
	c.JSON(http.StatusCreated, gin.H{"id": rule.ID, "message": "Rule created successfully"})
}

// UpdateRule replaces an existing rule
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	if h.Store.Get(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}

	var rule models.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.ID = id
	if err := validateRule(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.Store.AddOrUpdate(&rule)
	c.JSON(http.StatusOK, gin.H{"message": "Rule updated successfully"})
}

// DeleteRule removes a rule and its statistics
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	h.Store.Remove(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}

// ToggleRule flips a rule's active flag. Unknown ids are a silent no-op.
func (h *RuleHandler) ToggleRule(c *gin.Context) {
	h.Store.Toggle(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Rule toggled successfully"})
}

// GetRuleStats returns the statistics record for one rule
func (h *RuleHandler) GetRuleStats(c *gin.Context) {
	id := c.Param("id")
	if h.Store.Get(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	c.JSON(http.StatusOK, h.Store.Stats(id))
}

func validateRule(rule *models.Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if rule.Priority < 1 || rule.Priority > 8 {
		return fmt.Errorf("priority must be between 1 and 8")
	}
	switch rule.TriggerType {
	case models.TriggerKeyword:
		if rule.Keyword == nil || len(rule.Keyword.Keywords) == 0 {
			return fmt.Errorf("keyword trigger requires at least one keyword")
		}
	case models.TriggerTime:
		if rule.Time == nil {
			return fmt.Errorf("time trigger requires a schedule")
		}
	case models.TriggerBehavior:
		if rule.Behavior == nil {
			return fmt.Errorf("behavior trigger requires a behavior type")
		}
	default:
		return fmt.Errorf("unknown trigger type %q", rule.TriggerType)
	}
	if ab := rule.Response.ABTest; ab != nil && ab.Enabled {
		for _, v := range ab.Variants {
			if v.Weight < 0 {
				return fmt.Errorf("variant %q has a negative weight", v.Name)
			}
		}
	}
	return nil
}
