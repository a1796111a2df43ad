package controllers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

const MsgSettingsUpdated = "Settings updated successfully"

type AdminController struct {
	DB        *gorm.DB
	Dashboard *services.DashboardService
	Reports   *services.ReportService
	Hub       *feed.Hub
}

func NewAdminController(db *gorm.DB, dashboard *services.DashboardService, reports *services.ReportService, hub *feed.Hub) *AdminController {
	return &AdminController{DB: db, Dashboard: dashboard, Reports: reports, Hub: hub}
}

func (ac *AdminController) GetDashboard(c *gin.Context) {
	dashboard, err := ac.Dashboard.Build(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "admin_dashboard", dashboard)
}

// GetReports accepts type, period, start_date and end_date. Anything it
// cannot use falls back to the bookings report for the last 30 days.
func (ac *AdminController) GetReports(c *gin.Context) {
	report, err := ac.Reports.Build(c.Request.Context(), services.ReportRequest{
		Type:      c.Query("type"),
		Period:    c.Query("period"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "admin_reports", report)
}

func (ac *AdminController) GetSettings(c *gin.Context) {
	now := time.Now()
	zone, _ := now.Zone()
	data := gin.H{
		"system": gin.H{
			"os":          runtime.GOOS,
			"arch":        runtime.GOARCH,
			"go_version":  runtime.Version(),
			"server_time": now.Format(time.RFC3339),
			"timezone":    zone,
			"gin_mode":    gin.Mode(),
			"goroutines":  runtime.NumGoroutine(),
		},
		"feed_clients": ac.Hub.ClientCount(),
	}

	dbInfo := gin.H{"driver": ac.DB.Dialector.Name()}
	if sqlDB, err := ac.DB.DB(); err == nil {
		stats := sqlDB.Stats()
		dbInfo["open_connections"] = stats.OpenConnections
		dbInfo["in_use"] = stats.InUse
		dbInfo["idle"] = stats.Idle
		dbInfo["wait_count"] = stats.WaitCount
	} else {
		utils.ErrorLogger.Printf("Reading database stats: %v", err)
	}
	data["database"] = dbInfo

	counts := gin.H{}
	db := ac.DB.WithContext(c.Request.Context())
	for key, model := range map[string]interface{}{
		"total_users":      &models.User{},
		"total_bookings":   &models.Booking{},
		"total_tables":     &models.Table{},
		"total_menu_items": &models.MenuItem{},
	} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		counts[key] = n
	}
	data["db_stats"] = counts
	utils.Render(c, "admin_settings", data)
}

func (ac *AdminController) UpdateSettings(c *gin.Context) {
	uid, _ := middlewares.CurrentUserID(c)
	ac.Reports.Invalidate(c.Request.Context())
	utils.InfoLogger.Printf("Settings saved by admin %d, report cache cleared", uid)
	utils.RedirectWithFlash(c, "/admin-settings", utils.FlashSuccess, MsgSettingsUpdated)
}
