package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse is what a page handler hands to the presentation layer.
type PageResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Page    string      `json:"page"`
	Flashes []Flash     `json:"flashes,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	if code >= http.StatusInternalServerError {
		ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// Render writes a page document and drains pending flash messages into it.
func Render(c *gin.Context, page string, data interface{}) {
	c.JSON(http.StatusOK, PageResponse{
		Status:  true,
		Page:    page,
		Flashes: ConsumeFlashes(c),
		Data:    data,
	})
}

// RenderForm re-renders a form page after a failed submission. The prior
// input is echoed back so the page can refill its fields.
func RenderForm(c *gin.Context, page, message string, form interface{}, errs map[string][]string, extra gin.H) {
	data := gin.H{"form": form, "errors": errs}
	for k, v := range extra {
		data[k] = v
	}
	c.JSON(http.StatusOK, PageResponse{
		Status:  false,
		Message: message,
		Page:    page,
		Flashes: ConsumeFlashes(c),
		Data:    data,
	})
}

// RedirectWithFlash queues a flash for the next page and issues a 302.
func RedirectWithFlash(c *gin.Context, location string, level FlashLevel, message string) {
	AddFlash(c, level, message)
	c.Redirect(http.StatusFound, location)
}
