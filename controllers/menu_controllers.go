package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

const (
	adminMenuPath  = "/admin-menu"
	maxUploadBytes = 10 << 20
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

func (mc *MenuController) ListMenu(c *gin.Context) {
	items, err := mc.Menu.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "admin_menu", gin.H{
		"items":      menuItemViews(items),
		"categories": categoryChoices(),
	})
}

func categoryChoices() []gin.H {
	out := make([]gin.H, len(models.MenuCategories))
	for i, cat := range models.MenuCategories {
		out[i] = gin.H{"value": cat, "label": cat.Label()}
	}
	return out
}

func (mc *MenuController) AddMenuPage(c *gin.Context) {
	utils.Render(c, "admin_menu_form", gin.H{
		"form":       MenuForm{IsAvailable: true},
		"categories": categoryChoices(),
	})
}

// bindMenuForm reads the fields and the optional image upload. The returned
// closer must be called once the upload has been stored.
func bindMenuForm(c *gin.Context) (MenuForm, services.MenuInput, func(), map[string][]string) {
	noop := func() {}
	var form MenuForm
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if err := c.ShouldBind(&form); err != nil {
		return form, services.MenuInput{}, noop, bindingErrors(err)
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		return form, services.MenuInput{}, noop, map[string][]string{"price": {"Enter a number."}}
	}
	in := services.MenuInput{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Category:    form.Category,
		IsAvailable: bool(form.IsAvailable),
		ImageURL:    form.ImageURL,
		RemoveImage: bool(form.RemoveImage),
	}

	header, err := c.FormFile("image")
	if err != nil {
		return form, in, noop, nil
	}
	file, err := header.Open()
	if err != nil {
		return form, in, noop, map[string][]string{"image": {"Upload a valid image."}}
	}
	in.Upload = &services.ImageUpload{Filename: header.Filename, Body: file}
	return form, in, func() { closeUpload(file) }, nil
}

func closeUpload(f multipart.File) {
	if err := f.Close(); err != nil {
		utils.ErrorLogger.Printf("Closing upload: %v", err)
	}
}

func (mc *MenuController) AddMenu(c *gin.Context) {
	form, in, done, errs := bindMenuForm(c)
	defer done()
	if errs != nil {
		utils.RenderForm(c, "admin_menu_form", "", form, errs, gin.H{"categories": categoryChoices()})
		return
	}
	item, err := mc.Menu.Create(c.Request.Context(), in)
	if err != nil {
		if fe, ok := services.AsFormError(err); ok {
			utils.RenderForm(c, "admin_menu_form", "", form, fe.Map(), gin.H{"categories": categoryChoices()})
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RedirectWithFlash(c, adminMenuPath, utils.FlashSuccess, fmt.Sprintf("Menu item %q added successfully", item.Name))
}

func (mc *MenuController) EditMenuPage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	item, err := mc.Menu.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Render(c, "admin_menu_edit", gin.H{
		"item": menuItemView{MenuItem: *item, PriceDisplay: utils.FormatPrice(item.Price)},
		"form": MenuForm{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price.StringFixed(2),
			Category:    item.Category,
			IsAvailable: Checkbox(item.IsAvailable),
			ImageURL:    item.Image,
		},
		"categories": categoryChoices(),
	})
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	form, in, done, errs := bindMenuForm(c)
	defer done()
	extra := gin.H{"item_id": id, "categories": categoryChoices()}
	if errs != nil {
		utils.RenderForm(c, "admin_menu_edit", "", form, errs, extra)
		return
	}
	item, err := mc.Menu.Update(c.Request.Context(), id, in)
	if err != nil {
		if fe, ok := services.AsFormError(err); ok {
			utils.RenderForm(c, "admin_menu_edit", "", form, fe.Map(), extra)
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, adminMenuPath, utils.FlashSuccess, fmt.Sprintf("Menu item %q updated successfully", item.Name))
}

func (mc *MenuController) ToggleAvailability(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	item, err := mc.Menu.ToggleAvailability(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	state := "unavailable"
	if item.IsAvailable {
		state = "available"
	}
	utils.RedirectWithFlash(c, adminMenuPath, utils.FlashSuccess, "Menu item marked as "+state)
}

func (mc *MenuController) DeleteMenuPage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	item, err := mc.Menu.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Render(c, "admin_menu_delete", gin.H{"item": item})
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	item, err := mc.Menu.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, adminMenuPath, utils.FlashSuccess, fmt.Sprintf("Menu item %q deleted successfully", item.Name))
}

// DuplicateMenu copies the item and opens the copy for editing.
func (mc *MenuController) DuplicateMenu(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	dup, err := mc.Menu.Duplicate(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, fmt.Sprintf("%s/%d/edit", adminMenuPath, dup.ID), utils.FlashSuccess,
		fmt.Sprintf("Menu item %q created as a copy", dup.Name))
}
