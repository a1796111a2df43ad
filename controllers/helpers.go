package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

var errPageNotFound = errors.New("Not found")

// paramID reads :id; a malformed id is answered like a missing record.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusNotFound, errPageNotFound)
		return 0, false
	}
	return uint(id), true
}

// respondServiceError answers errors no handler dealt with itself.
func respondServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		utils.RespondError(c, http.StatusNotFound, errPageNotFound)
		return
	}
	utils.RespondError(c, http.StatusInternalServerError, err)
}

// safeNext only follows local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

type menuItemView struct {
	models.MenuItem
	PriceDisplay string `json:"price_display"`
}

func menuItemViews(items []models.MenuItem) []menuItemView {
	views := make([]menuItemView, len(items))
	for i, it := range items {
		views[i] = menuItemView{MenuItem: it, PriceDisplay: utils.FormatPrice(it.Price)}
	}
	return views
}
