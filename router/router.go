package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/cache"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/controllers"
	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/storage"
	"gorm.io/gorm"
)

// Deps is everything the handlers need from main.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  *cache.Client
	Hub    *feed.Hub
	Images storage.ImageStore
}

func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	controllers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigins))
	if cfg.RateLimit > 0 {
		r.Use(middlewares.NewRateLimiter(cfg.RateLimit, time.Second).RateLimit())
	}
	r.MaxMultipartMemory = 8 << 20

	if local, ok := d.Images.(*storage.LocalStore); ok {
		r.Group(cfg.UploadBaseURL, middlewares.ImagesOnly()).Static("/", local.Dir)
	}

	bookingSvc := services.NewBookingService(d.DB, d.Hub)
	tableSvc := services.NewTableService(d.DB, d.Hub)
	userSvc := services.NewUserService(d.DB, d.Hub)
	menuSvc := services.NewMenuService(d.DB, d.Images, d.Hub)
	customerSvc := services.NewCustomerService(d.DB)
	reportSvc := services.NewReportService(d.DB, d.Cache, cfg.ReportCacheTTL)
	dashboardSvc := services.NewDashboardService(d.DB, d.Hub)

	userController := controllers.NewUserController(userSvc, cfg.CookieSecure)
	pageController := controllers.NewPageController(menuSvc)
	bookingController := controllers.NewBookingController(bookingSvc, tableSvc)
	adminBookingController := controllers.NewAdminBookingController(bookingSvc, customerSvc, tableSvc, userSvc)
	tableController := controllers.NewTableController(tableSvc)
	menuController := controllers.NewMenuController(menuSvc)
	customerController := controllers.NewCustomerController(customerSvc)
	adminController := controllers.NewAdminController(d.DB, dashboardSvc, reportSvc, d.Hub)
	feedController := controllers.NewFeedController(d.Hub, cfg.CORSOrigins)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": true, "message": "pong"})
	})

	// public pages
	public := r.Group("/", middlewares.OptionalAuth())
	{
		public.GET("/", pageController.Index)
		public.GET("/menu", pageController.Menu)
	}

	// auth
	var strict gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.LoginRateLimit > 0 {
		strict = middlewares.NewStrictRateLimiter(cfg.LoginRateLimit)
	}
	r.GET("/login", userController.LoginPage)
	r.POST("/login", strict, userController.Login)
	r.GET("/register", userController.RegisterPage)
	r.POST("/register", strict, userController.Register)
	r.POST("/logout", userController.Logout)

	// customer bookings
	customer := r.Group("/", middlewares.AuthRequired())
	{
		customer.GET("/booking", bookingController.NewBookingPage)
		customer.POST("/booking", bookingController.CreateBooking)
		customer.GET("/booking/:id", bookingController.BookingDetail)
		customer.GET("/booking/:id/edit", bookingController.EditBookingPage)
		customer.POST("/booking/:id/edit", bookingController.UpdateBooking)
		customer.GET("/booking/:id/cancel", bookingController.CancelBookingPage)
		customer.POST("/booking/:id/cancel", bookingController.CancelBooking)
		customer.GET("/mybookings", bookingController.MyBookings)
	}

	admin := r.Group("/", middlewares.AuthRequired(), middlewares.RequireCapability(models.CapAdmin))
	{
		admin.GET("/admin-dashboard", adminController.GetDashboard)
		admin.GET("/admin-reports", adminController.GetReports)
		admin.GET("/admin-settings", adminController.GetSettings)
		admin.POST("/admin-settings", adminController.UpdateSettings)
		admin.GET("/admin-feed", middlewares.WebSocketOnly(), feedController.Stream)

		bookings := admin.Group("/admin-bookings")
		bookings.GET("", adminBookingController.ListBookings)
		bookings.GET("/add", adminBookingController.AddBookingPage)
		bookings.POST("/add", adminBookingController.AddBooking)
		bookings.GET("/:id", adminBookingController.BookingDetail)
		bookings.GET("/:id/edit", adminBookingController.EditBookingPage)
		bookings.POST("/:id/edit", adminBookingController.UpdateBooking)
		bookings.POST("/:id/confirm", adminBookingController.ConfirmBooking)
		bookings.POST("/:id/cancel", adminBookingController.CancelBooking)
		bookings.GET("/:id/delete", adminBookingController.DeleteBookingPage)
		bookings.POST("/:id/delete", adminBookingController.DeleteBooking)
		bookings.POST("/:id/notes", adminBookingController.UpdateNotes)

		tables := admin.Group("/admin-tables")
		tables.GET("", tableController.ListTables)
		tables.GET("/add", tableController.AddTablePage)
		tables.POST("/add", tableController.AddTable)
		tables.GET("/:id", tableController.TableDetail)
		tables.GET("/:id/edit", tableController.EditTablePage)
		tables.POST("/:id/edit", tableController.UpdateTable)
		tables.GET("/:id/delete", tableController.DeleteTablePage)
		tables.POST("/:id/delete", tableController.DeleteTable)

		menu := admin.Group("/admin-menu")
		menu.GET("", menuController.ListMenu)
		menu.GET("/add", menuController.AddMenuPage)
		menu.POST("/add", menuController.AddMenu)
		menu.GET("/:id/edit", menuController.EditMenuPage)
		menu.POST("/:id/edit", menuController.UpdateMenu)
		menu.POST("/:id/toggle", menuController.ToggleAvailability)
		menu.GET("/:id/delete", menuController.DeleteMenuPage)
		menu.POST("/:id/delete", menuController.DeleteMenu)
		menu.POST("/:id/duplicate", menuController.DuplicateMenu)

		customers := admin.Group("/admin-customers")
		customers.GET("", customerController.ListCustomers)
		customers.GET("/:id", customerController.CustomerDetail)
	}

	return r
}
