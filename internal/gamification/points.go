// Package gamification holds the pure rules behind points, badges, rewards
// and streaks. Nothing here touches storage.
package gamification

import "ecotrack/internal/models"

var pointsByType = map[models.ActivityType]int{
	models.ActivityTreePlantation: 50,
	models.ActivityCleanup:        30,
	models.ActivityRecycling:      20,
	models.ActivityEcoHabit:       5,
}

// PointsFor returns the points an approved activity of type t is worth
func PointsFor(t models.ActivityType) int {
	return pointsByType[t]
}
