// File: /controllers/log_controller.go
package controllers

import (
	"net/http"

	"eldtrip-api/models"
	"eldtrip-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LogController struct {
	db *gorm.DB
}

func NewLogController(db *gorm.DB) *LogController {
	return &LogController{db: db}
}

// List returns the caller's daily logs, newest first. Staff see all logs.
// An optional trip_id query filters to one trip.
func (lc *LogController) List(c *gin.Context) {
	userID := c.GetString("user_id")
	isStaff := c.GetBool("is_staff")

	query := lc.db.Order("log_date DESC")
	if !isStaff {
		query = query.Where("driver_id = ?", userID)
	}
	if tripID := c.Query("trip_id"); tripID != "" {
		query = query.Where("trip_id = ?", tripID)
	}

	var logs []models.DailyLog
	if err := query.Find(&logs).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch daily logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"daily_logs": logs, "count": len(logs)})
}

// Get returns one daily log with its duty-status entries.
func (lc *LogController) Get(c *gin.Context) {
	log, ok := lc.findOwnedLog(c)
	if !ok {
		return
	}

	lc.db.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(log, log.ID)

	c.JSON(http.StatusOK, gin.H{"daily_log": log})
}

// RecalculateTotals recomputes a log's duty-status hour totals from its
// entries and persists them.
func (lc *LogController) RecalculateTotals(c *gin.Context) {
	log, ok := lc.findOwnedLog(c)
	if !ok {
		return
	}

	if err := log.RecalculateTotals(lc.db); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to recalculate totals")
		return
	}

	utils.SendSuccess(c, "Totals recalculated", log)
}

func (lc *LogController) findOwnedLog(c *gin.Context) (*models.DailyLog, bool) {
	userID := c.GetString("user_id")
	isStaff := c.GetBool("is_staff")
	logID := c.Param("id")

	var log models.DailyLog
	if err := lc.db.First(&log, "id = ?", logID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Daily log not found")
		return nil, false
	}

	if log.DriverID != userID && !isStaff {
		utils.SendError(c, http.StatusForbidden, "Access denied")
		return nil, false
	}

	return &log, true
}
