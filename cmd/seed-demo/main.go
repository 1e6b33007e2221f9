package main

import (
	"line-gateway/internal/config"
	"line-gateway/internal/database"
	"line-gateway/internal/logging"
	"line-gateway/internal/store"
	"line-gateway/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Seeds the database with a set of demo rules and friends so the
// dashboard has something to show on first run.
func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel)

	db, err := database.Init(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	ruleStore := store.NewRuleStore(store.NewGormPersistence(db))
	friends := store.NewGormFriendStore(db)

	for _, rule := range demoRules() {
		ruleStore.AddOrUpdate(rule)
		log.Info().Str("rule", rule.Name).Msg("Seeded rule")
	}

	for _, friend := range demoFriends() {
		if err := friends.Upsert(friend); err != nil {
			log.Error().Err(err).Str("user_id", friend.ID).Msg("Failed to seed friend")
			continue
		}
		log.Info().Str("user", friend.Name).Msg("Seeded friend")
	}

	log.Info().Msg("Demo data seeded")
}

func demoRules() []*models.Rule {
	return []*models.Rule{
		{
			ID:          uuid.NewString(),
			Name:        "友だち追加ウェルカム",
			Description: "Greets users the moment they add the account",
			IsActive:    true,
			Priority:    1,
			TriggerType: models.TriggerBehavior,
			Behavior:    &models.BehaviorTrigger{BehaviorType: models.BehaviorFriendAdded},
			Response: models.Response{
				Type:    models.ResponseText,
				Content: "{username}さん、友だち追加ありがとうございます！",
			},
		},
		{
			ID:          uuid.NewString(),
			Name:        "営業時間の案内",
			Description: "Answers business-hours questions with an A/B tested reply",
			IsActive:    true,
			Priority:    2,
			TriggerType: models.TriggerKeyword,
			Keyword: &models.KeywordTrigger{
				Keywords:  []string{"営業時間", "何時まで"},
				MatchType: models.MatchPartial,
			},
			Response: models.Response{
				Type:    models.ResponseText,
				Content: "営業時間は平日10時から19時です。",
				ABTest: &models.ABTest{
					Enabled: true,
					Variants: []models.Variant{
						{Name: "plain", Weight: 50, Content: "営業時間は平日10時から19時です。"},
						{Name: "friendly", Weight: 50, Content: "{username}さん、平日10時〜19時に営業しています！お気軽にどうぞ。"},
					},
				},
			},
			Limits: &models.Limits{
				Enabled:         true,
				CooldownMinutes: 5,
			},
		},
		{
			ID:          uuid.NewString(),
			Name:        "週末キャンペーン",
			Description: "Weekend campaign notice for tagged customers",
			IsActive:    true,
			Priority:    3,
			TriggerType: models.TriggerTime,
			Time: &models.TimeTrigger{
				ScheduleType:  models.ScheduleRecurring,
				RecurringDays: []int{0, 6},
			},
			Response: models.Response{
				Type:    models.ResponseText,
				Content: "{date} 週末限定キャンペーン開催中です！",
			},
			UserConditions: &models.UserConditions{
				Enabled: true,
				Tags:    []string{"campaign"},
			},
			Limits: &models.Limits{
				Enabled:   true,
				MaxPerDay: 1,
			},
		},
	}
}

func demoFriends() []*models.UserProfile {
	return []*models.UserProfile{
		{ID: "U" + uuid.NewString(), Name: "田中太郎", Tags: []string{"campaign", "vip"}},
		{ID: "U" + uuid.NewString(), Name: "鈴木花子", Tags: []string{"campaign"}},
		{ID: "U" + uuid.NewString(), Name: "佐藤健", Groups: []string{"store-a"}},
	}
}
