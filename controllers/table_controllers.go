package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

const adminTablesPath = "/admin-tables"

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

func (tc *TableController) ListTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "admin_tables", gin.H{"tables": tables})
}

func (tc *TableController) AddTablePage(c *gin.Context) {
	utils.Render(c, "admin_table_form", gin.H{"form": TableForm{}})
}

func (tc *TableController) AddTable(c *gin.Context) {
	var form TableForm
	if err := c.ShouldBind(&form); err != nil {
		utils.RenderForm(c, "admin_table_form", "", form, bindingErrors(err), nil)
		return
	}
	table, err := tc.Tables.Create(c.Request.Context(), services.TableInput{Number: form.Number, Capacity: form.Capacity})
	if err != nil {
		if fe, ok := services.AsFormError(err); ok {
			utils.RenderForm(c, "admin_table_form", "", form, fe.Map(), nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RedirectWithFlash(c, adminTablesPath, utils.FlashSuccess, fmt.Sprintf("Table %d added successfully", table.Number))
}

// TableDetail shows upcoming bookings and how busy the table is this month.
func (tc *TableController) TableDetail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	stats, err := tc.Tables.Stats(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Render(c, "admin_table_detail", stats)
}

func (tc *TableController) EditTablePage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	table, err := tc.Tables.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Render(c, "admin_table_edit", gin.H{
		"table": table,
		"form":  TableForm{Number: table.Number, Capacity: table.Capacity},
	})
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var form TableForm
	if err := c.ShouldBind(&form); err != nil {
		utils.RenderForm(c, "admin_table_edit", "", form, bindingErrors(err), gin.H{"table_id": id})
		return
	}
	table, err := tc.Tables.Update(c.Request.Context(), id, services.TableInput{Number: form.Number, Capacity: form.Capacity})
	if err != nil {
		if fe, ok := services.AsFormError(err); ok {
			utils.RenderForm(c, "admin_table_edit", "", form, fe.Map(), gin.H{"table_id": id})
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, adminTablesPath, utils.FlashSuccess, fmt.Sprintf("Table %d updated successfully", table.Number))
}

func (tc *TableController) DeleteTablePage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	table, err := tc.Tables.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Render(c, "admin_table_delete", gin.H{"table": table})
}

// DeleteTable refuses while bookings still reference the table.
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	table, err := tc.Tables.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		utils.RedirectWithFlash(c, adminTablesPath, utils.FlashSuccess, fmt.Sprintf("Table %d deleted successfully", table.Number))
	case errors.Is(err, services.ErrTableHasBookings):
		utils.RedirectWithFlash(c, adminTablesPath, utils.FlashError,
			fmt.Sprintf("Cannot delete Table %d because it has bookings", table.Number))
	default:
		respondServiceError(c, err)
	}
}
