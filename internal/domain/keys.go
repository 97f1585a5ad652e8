package domain

import (
	"fmt"
	"strconv"
)

// Deterministic natural keys. Writers and readers must build keys through
// these functions only, so the construction rule cannot drift.

// StreakKey returns the streak row key for a (user, song identity) pair:
// streak_{userId}_{online|local}_{songId-or-onlineId}.
func StreakKey(userID string, song Song) string {
	if song.IsOnline && song.OnlineID != nil {
		return "streak_" + userID + "_online_" + strconv.FormatInt(*song.OnlineID, 10)
	}
	return "streak_" + userID + "_local_" + strconv.FormatInt(song.ID, 10)
}

// AnalyticsKey returns the monthly summary row key for a (user, month)
// pair: analytics_{userId}_{month}.
func AnalyticsKey(userID, month string) string {
	return fmt.Sprintf("analytics_%s_%s", userID, month)
}
