package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type PageController struct {
	MenuItems *services.MenuService
}

func NewPageController(menu *services.MenuService) *PageController {
	return &PageController{MenuItems: menu}
}

func (pc *PageController) Index(c *gin.Context) {
	uid, loggedIn := middlewares.CurrentUserID(c)
	utils.Render(c, "index", gin.H{
		"logged_in": loggedIn,
		"user_id":   uid,
		"role":      middlewares.CurrentRole(c),
	})
}

type menuSectionView struct {
	Category string         `json:"category"`
	Label    string         `json:"label"`
	Anchor   string         `json:"anchor"`
	Items    []menuItemView `json:"items"`
}

// Menu shows the available items grouped by category in menu order.
func (pc *PageController) Menu(c *gin.Context) {
	sections, err := pc.MenuItems.Sections(c.Request.Context(), true)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	views := make([]menuSectionView, len(sections))
	for i, s := range sections {
		views[i] = menuSectionView{
			Category: string(s.Category),
			Label:    s.Label,
			Anchor:   s.Anchor,
			Items:    menuItemViews(s.Items),
		}
	}
	utils.Render(c, "menu", gin.H{"sections": views})
}
