package repositories

import (
	"time"

	"ecotrack/internal/models"

	"github.com/google/uuid"
)

// Catalog rows matching migrations/000001_init_schema.up.sql, used to seed
// the in-memory provider

func seedBadges(now time.Time) []models.Badge {
	rows := []struct {
		name, description, icon string
		category                models.BadgeCategory
		criteria                models.CriteriaType
		value                   float64
	}{
		{"First Step", "Complete your first approved activity", "🌱", models.BadgeMilestone, models.CriteriaTotalActivities, 1},
		{"Eco Enthusiast", "Complete 10 approved activities", "🌿", models.BadgeMilestone, models.CriteriaTotalActivities, 10},
		{"Eco Champion", "Complete 50 approved activities", "🏆", models.BadgeMilestone, models.CriteriaTotalActivities, 50},
		{"Tree Hugger", "Plant trees 5 times", "🌳", models.BadgeCommunityImpact, models.CriteriaTreePlantations, 5},
		{"Forest Maker", "Plant trees 25 times", "🌲", models.BadgeCommunityImpact, models.CriteriaTreePlantations, 25},
		{"Clean Sweep", "Join 5 cleanup drives", "🧹", models.BadgeCommunityImpact, models.CriteriaCleanups, 5},
		{"Recycling Pro", "Recycle 10 times", "♻️", models.BadgeCommunityImpact, models.CriteriaRecycling, 10},
		{"Habit Builder", "Log 20 eco-friendly habits", "🌼", models.BadgeMilestone, models.CriteriaEcoHabits, 20},
		{"Waste Warrior", "Collect 50 kg of waste", "🗑️", models.BadgeCommunityImpact, models.CriteriaWasteKg, 50},
		{"Week Streak", "Stay active 7 days in a row", "🔥", models.BadgeStreak, models.CriteriaStreakDays, 7},
		{"Month Streak", "Stay active 30 days in a row", "⚡", models.BadgeStreak, models.CriteriaStreakDays, 30},
	}

	badges := make([]models.Badge, 0, len(rows))
	for _, row := range rows {
		badges = append(badges, models.Badge{
			ID:            uuid.NewString(),
			Name:          row.name,
			Description:   row.description,
			Icon:          row.icon,
			Category:      row.category,
			CriteriaType:  row.criteria,
			CriteriaValue: row.value,
			CreatedAt:     now,
		})
	}
	return badges
}

func seedRewards() []models.Reward {
	desc := func(s string) *string { return &s }
	return []models.Reward{
		{ID: uuid.NewString(), Name: "Green Starter", Description: desc("Earn your first 100 points"), Icon: "🌱", PointsRequired: 100},
		{ID: uuid.NewString(), Name: "Eco Explorer", Description: desc("Reach 250 points"), Icon: "🧭", PointsRequired: 250},
		{ID: uuid.NewString(), Name: "Planet Protector", Description: desc("Reach 500 points"), Icon: "🛡️", PointsRequired: 500},
		{ID: uuid.NewString(), Name: "Earth Guardian", Description: desc("Reach 1000 points"), Icon: "🌍", PointsRequired: 1000},
	}
}

func seedCoupons(now time.Time) []models.Coupon {
	str := func(s string) *string { return &s }
	limit := func(n int) *int { return &n }
	return []models.Coupon{
		{
			ID: uuid.NewString(), Title: "10% off reusable bottles", Description: str("Valid on any reusable bottle"),
			PartnerName: str("GreenGoods"), PointsCost: 80, CouponCode: "GREEN10",
			MaxRedemptions: limit(100), IsActive: true, CreatedAt: now,
		},
		{
			ID: uuid.NewString(), Title: "Free plant sapling", Description: str("Collect a sapling at any partner nursery"),
			PartnerName: str("CityNursery"), PointsCost: 150, CouponCode: "SAPLING1",
			MaxRedemptions: limit(50), IsActive: true, CreatedAt: now.Add(time.Millisecond),
		},
	}
}
