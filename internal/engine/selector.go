package engine

import (
	"hash/fnv"
	"strings"
	"time"

	"line-gateway/pkg/models"
)

// ResolveResponse resolves the literal content for a firing rule: A/B
// variant selection (stable per user) followed by placeholder substitution.
func ResolveResponse(rule *models.Rule, user *models.UserProfile, now time.Time, fallbackName string) string {
	content := rule.Response.Content
	if ab := rule.Response.ABTest; ab != nil && ab.Enabled && len(ab.Variants) > 0 {
		content = pickVariant(ab.Variants, user.ID)
	}
	return substitute(content, user, now, fallbackName)
}

// pickVariant buckets the user deterministically: the same user id always
// lands on the same variant as long as order and weights are unchanged.
func pickVariant(variants []models.Variant, userID string) string {
	total := 0
	for _, v := range variants {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total <= 0 {
		return variants[0].Content
	}

	h := fnv.New32a()
	h.Write([]byte(userID))
	threshold := float64(h.Sum32()%100) / 100.0 * float64(total)

	acc := 0.0
	for _, v := range variants {
		if v.Weight <= 0 {
			continue
		}
		acc += float64(v.Weight)
		if acc >= threshold {
			return v.Content
		}
	}
	return variants[len(variants)-1].Content
}

func substitute(content string, user *models.UserProfile, now time.Time, fallbackName string) string {
	name := user.Name
	if name == "" {
		name = fallbackName
	}
	replacer := strings.NewReplacer(
		"{username}", name,
		"{time}", now.Format("15:04"),
		"{date}", now.Format("2006/01/02"),
		"{datetime}", now.Format("2006/01/02 15:04"),
	)
	return replacer.Replace(content)
}
