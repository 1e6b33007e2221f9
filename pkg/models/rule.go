package models

import "time"

// TriggerType selects which trigger payload applies to a rule
type TriggerType string

const (
	TriggerKeyword  TriggerType = "keyword"
	TriggerTime     TriggerType = "time"
	TriggerBehavior TriggerType = "behavior"
)

// MatchType controls how a keyword is compared against message text
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchRegex   MatchType = "regex"
)

// ScheduleType selects the time-trigger evaluation mode
type ScheduleType string

const (
	ScheduleSpecific  ScheduleType = "specific"
	ScheduleRecurring ScheduleType = "recurring"
	ScheduleInterval  ScheduleType = "interval"
)

// BehaviorType maps a rule to a class of platform events
type BehaviorType string

const (
	BehaviorFriendAdded    BehaviorType = "friend_added"
	BehaviorMessageSent    BehaviorType = "message_sent"
	BehaviorStickerSent    BehaviorType = "sticker_sent"
	BehaviorLocationShared BehaviorType = "location_shared"
)

// ResponseType describes the payload kind sent back to the user
type ResponseType string

const (
	ResponseText     ResponseType = "text"
	ResponseTemplate ResponseType = "template"
	ResponseCarousel ResponseType = "carousel"
	ResponseFlex     ResponseType = "flex"
)

// KeywordTrigger fires when inbound message text matches one of the keywords
type KeywordTrigger struct {
	Keywords      []string  `json:"keywords"`
	MatchType     MatchType `json:"match_type"`
	CaseSensitive bool      `json:"case_sensitive"`
}

// TimeTrigger fires based on wall-clock time at evaluation
type TimeTrigger struct {
	ScheduleType    ScheduleType `json:"schedule_type"`
	TriggerDate     string       `json:"trigger_date,omitempty"` // YYYY-MM-DD, optional for specific
	TriggerTime     string       `json:"trigger_time,omitempty"` // HH:MM
	RecurringDays   []int        `json:"recurring_days,omitempty"` // 0=Sunday .. 6=Saturday
	IntervalMinutes int          `json:"interval_minutes,omitempty"`
}

// BehaviorTrigger fires on a class of inbound platform events
type BehaviorTrigger struct {
	BehaviorType BehaviorType `json:"behavior_type"`
}

// Variant is one alternative response body in an A/B test
type Variant struct {
	Name    string `json:"name"`
	Weight  int    `json:"weight"`
	Content string `json:"content"`
}

// ABTest holds the weighted variant set for a response
type ABTest struct {
	Enabled  bool      `json:"enabled"`
	Variants []Variant `json:"variants,omitempty"`
}

// Response is the payload a firing rule resolves and sends
type Response struct {
	Type    ResponseType `json:"type"`
	Content string       `json:"content"`
	ABTest  *ABTest      `json:"ab_test,omitempty"`
}

// UserConditions restricts a rule to a segment of users
type UserConditions struct {
	Enabled     bool     `json:"enabled"`
	Tags        []string `json:"tags,omitempty"`
	ExcludeTags []string `json:"exclude_tags,omitempty"`
	Groups      []string `json:"groups,omitempty"`
}

// Limits caps how often a rule may fire
type Limits struct {
	Enabled         bool `json:"enabled"`
	MaxPerUser      int  `json:"max_per_user,omitempty"`
	MaxPerDay       int  `json:"max_per_day,omitempty"`
	CooldownMinutes int  `json:"cooldown_minutes,omitempty"`
}

// Rule is a user-authored automation: a trigger plus a response payload
type Rule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	Priority    int    `json:"priority"` // 1 (highest) .. 8 (lowest)

	TriggerType TriggerType      `json:"trigger_type"`
	Keyword     *KeywordTrigger  `json:"keyword,omitempty"`
	Time        *TimeTrigger     `json:"time,omitempty"`
	Behavior    *BehaviorTrigger `json:"behavior,omitempty"`

	Response Response `json:"response"`

	UserConditions *UserConditions `json:"user_conditions,omitempty"`
	Limits         *Limits         `json:"limits,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the rule, detached from any shared state
func (r *Rule) Clone() *Rule {
	cp := *r
	if r.Keyword != nil {
		k := *r.Keyword
		k.Keywords = append([]string(nil), r.Keyword.Keywords...)
		cp.Keyword = &k
	}
	if r.Time != nil {
		tt := *r.Time
		tt.RecurringDays = append([]int(nil), r.Time.RecurringDays...)
		cp.Time = &tt
	}
	if r.Behavior != nil {
		b := *r.Behavior
		cp.Behavior = &b
	}
	if r.Response.ABTest != nil {
		ab := *r.Response.ABTest
		ab.Variants = append([]Variant(nil), r.Response.ABTest.Variants...)
		cp.Response.ABTest = &ab
	}
	if r.UserConditions != nil {
		c := *r.UserConditions
		c.Tags = append([]string(nil), r.UserConditions.Tags...)
		c.ExcludeTags = append([]string(nil), r.UserConditions.ExcludeTags...)
		c.Groups = append([]string(nil), r.UserConditions.Groups...)
		cp.UserConditions = &c
	}
	if r.Limits != nil {
		l := *r.Limits
		cp.Limits = &l
	}
	return &cp
}

// RuleStatistics accumulates firing outcomes for one rule.
// Owned by the engine; rule authors never write it.
type RuleStatistics struct {
	Triggered     int            `json:"triggered"`
	Successful    int            `json:"successful"`
	Failed        int            `json:"failed"`
	LastTriggered *time.Time     `json:"last_triggered,omitempty"`
	DailyTriggers map[string]int `json:"daily_triggers,omitempty"` // keyed by YYYY-MM-DD
	UserTriggers  map[string]int `json:"user_triggers,omitempty"`  // keyed by user id
}

// NewRuleStatistics returns a zeroed statistics record with allocated buckets
func NewRuleStatistics() *RuleStatistics {
	return &RuleStatistics{
		DailyTriggers: map[string]int{},
		UserTriggers:  map[string]int{},
	}
}

// Clone returns a deep copy of the statistics record
func (s *RuleStatistics) Clone() *RuleStatistics {
	cp := *s
	if s.LastTriggered != nil {
		ts := *s.LastTriggered
		cp.LastTriggered = &ts
	}
	cp.DailyTriggers = make(map[string]int, len(s.DailyTriggers))
	for k, v := range s.DailyTriggers {
		cp.DailyTriggers[k] = v
	}
	cp.UserTriggers = make(map[string]int, len(s.UserTriggers))
	for k, v := range s.UserTriggers {
		cp.UserTriggers[k] = v
	}
	return &cp
}

// DateKey formats t the way daily trigger buckets are keyed
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
