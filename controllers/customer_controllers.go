package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type CustomerController struct {
	Customers *services.CustomerService
}

func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{Customers: customers}
}

func (cc *CustomerController) ListCustomers(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	rows, page, err := cc.Customers.List(c.Request.Context(), search, c.Query("page"))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "admin_customers", gin.H{
		"customers": rows,
		"page":      page,
		"search":    search,
	})
}

func (cc *CustomerController) CustomerDetail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	detail, err := cc.Customers.Detail(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Render(c, "admin_customer_detail", detail)
}
