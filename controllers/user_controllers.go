package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type UserController struct {
	Users        *services.UserService
	SecureCookie bool
}

func NewUserController(users *services.UserService, secureCookie bool) *UserController {
	return &UserController{Users: users, SecureCookie: secureCookie}
}

func (uc *UserController) LoginPage(c *gin.Context) {
	utils.Render(c, "login", gin.H{"form": LoginForm{Next: safeNext(c.Query("next"))}})
}

// Login sets the session cookie and sends the user on to next, the admin
// dashboard or the home page.
func (uc *UserController) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		utils.RenderForm(c, "login", services.MsgInvalidLogin, form, bindingErrors(err), nil)
		return
	}
	form.Next = safeNext(form.Next)
	if form.Next == "" {
		form.Next = safeNext(c.Query("next"))
	}

	user, err := uc.Users.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.InfoLogger.Printf("Failed login for %q from %s", form.Username, c.ClientIP())
			form.Password = ""
			fe := &services.FormError{NonField: []string{services.MsgInvalidLogin}}
			utils.RenderForm(c, "login", services.MsgInvalidLogin, form, fe.Map(), nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookie, token, int(utils.TokenTTL().Seconds()), "/", "", uc.SecureCookie, true)
	utils.InfoLogger.Printf("User %s logged in", user.Username)

	dest := form.Next
	if dest == "" {
		dest = "/"
		if user.Role.Can(models.CapAdmin) {
			dest = "/admin-dashboard"
		}
	}
	c.Redirect(http.StatusFound, dest)
}

func (uc *UserController) RegisterPage(c *gin.Context) {
	utils.Render(c, "register", gin.H{"form": RegisterForm{}})
}

func (uc *UserController) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password1, form.Password2 = "", ""
		utils.RenderForm(c, "register", "", form, bindingErrors(err), nil)
		return
	}

	user, err := uc.Users.Register(c.Request.Context(), services.RegisterInput{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password1: form.Password1,
		Password2: form.Password2,
	})
	if err != nil {
		if fe, ok := services.AsFormError(err); ok {
			form.Password1, form.Password2 = "", ""
			utils.RenderForm(c, "register", "", form, fe.Map(), nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RedirectWithFlash(c, "/login", utils.FlashSuccess,
		fmt.Sprintf("Account created for %s! You can now log in.", user.Username))
}

// Logout revokes the current token and clears the cookie.
func (uc *UserController) Logout(c *gin.Context) {
	if token := middlewares.TokenFromRequest(c); token != "" {
		if claims, err := utils.ParseToken(token); err == nil {
			utils.BlacklistToken(c.Request.Context(), claims)
			utils.InfoLogger.Printf("User %d logged out", claims.UserID)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", uc.SecureCookie, true)
	utils.RedirectWithFlash(c, "/", utils.FlashInfo, "You have been logged out.")
}
