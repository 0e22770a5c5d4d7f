// File: /jobs/trip_status_job.go
package jobs

import (
	"fmt"
	"time"

	"eldtrip-api/models"

	"gorm.io/gorm"
)

// TripStatusJob periodically completes in-progress trips whose final
// dropoff departure time has passed.
type TripStatusJob struct {
	db     *gorm.DB
	ticker *time.Ticker
	done   chan bool
}

// NewTripStatusJob creates a new trip status job
func NewTripStatusJob(db *gorm.DB, interval time.Duration) *TripStatusJob {
	return &TripStatusJob{
		db:     db,
		ticker: time.NewTicker(interval),
		done:   make(chan bool),
	}
}

// Start begins the status sweep
func (j *TripStatusJob) Start() {
	fmt.Println("Trip status job started")

	go func() {
		// Run immediately on start
		j.sweep()

		// Then run on schedule
		for {
			select {
			case <-j.ticker.C:
				j.sweep()
			case <-j.done:
				fmt.Println("Trip status job stopped")
				return
			}
		}
	}()
}

// Stop stops the job
func (j *TripStatusJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

// sweep marks IN_PROGRESS trips as COMPLETED once their dropoff stop's
// departure time is in the past.
func (j *TripStatusJob) sweep() {
	fmt.Println("Running trip status sweep...")

	var trips []models.Trip
	err := j.db.Where("status = ?", models.TripStatusInProgress).Find(&trips).Error
	if err != nil {
		fmt.Printf("Error during trip status sweep: %v\n", err)
		return
	}

	now := time.Now()
	completed := 0
	for _, trip := range trips {
		var dropoff models.Stop
		err := j.db.Where("trip_id = ? AND stop_type = ?", trip.ID, models.StopTypeDropoff).
			Order("sequence_order DESC").First(&dropoff).Error
		if err != nil {
			continue
		}

		if dropoff.DepartureTime.After(now) {
			continue
		}

		updates := map[string]interface{}{
			"status":   models.TripStatusCompleted,
			"end_time": dropoff.DepartureTime,
		}
		if err := j.db.Model(&trip).Updates(updates).Error; err != nil {
			fmt.Printf("Error completing trip %s: %v\n", trip.ID, err)
			continue
		}
		completed++
	}

	if completed > 0 {
		fmt.Printf("Trip status sweep completed %d trip(s)\n", completed)
	}
}
