package jobs

import (
	"log"
	"time"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/services"
)

// RollupDailyAnalytics folds yesterday's daily buckets into their monthly
// buckets. Monthly counters have no other writer, so the rollup is the
// single source of truth for them.
func RollupDailyAnalytics() {
	log.Println("Running job: RollupDailyAnalytics...")

	yesterday := time.Now().AddDate(0, 0, -1)
	if err := services.RollupDay(database.DB, yesterday); err != nil {
		log.Printf("🔥 Analytics rollup for %s failed: %v", yesterday.Format(services.DailyKeyFormat), err)
		return
	}
}
