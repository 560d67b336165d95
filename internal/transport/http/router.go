package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/handlers"
	mwauth "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/token"
)

type Deps struct {
	Tokens           *token.Service
	AuthHandler      *handlers.AuthHandler
	StoreHandler     *handlers.StoreHandler
	ProductHandler   *handlers.ProductHandler
	CartHandler      *handlers.CartHandler
	ReviewHandler    *handlers.ReviewHandler
	DashboardHandler *handlers.DashboardHandler
	SearchHandler    *handlers.SearchHandler
	UploadHandler    *handlers.UploadHandler
	MediaDir         string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })
	e.Static("/media", d.MediaDir)

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/password-reset", d.AuthHandler.RequestPasswordReset)
	auth.POST("/password-reset/:token", d.AuthHandler.ResetPassword)

	// Reads are open to everyone.
	v1.GET("/stores", d.StoreHandler.ListStores)
	v1.GET("/stores/:id", d.StoreHandler.GetStore)
	v1.GET("/products", d.ProductHandler.GetProducts)
	v1.GET("/products/:id", d.ProductHandler.GetProduct)
	v1.GET("/products/:id/reviews", d.ReviewHandler.ListReviews)
	v1.GET("/search", d.SearchHandler.Search)

	authed := v1.Group("", mwauth.RequireUser(d.Tokens))
	authed.POST("/uploads", d.UploadHandler.Upload)
	authed.POST("/products/:id/reviews", d.ReviewHandler.CreateReview)
	authed.PATCH("/reviews/:id", d.ReviewHandler.UpdateReview)
	authed.DELETE("/reviews/:id", d.ReviewHandler.DeleteReview)

	vendor := v1.Group("", mwauth.RequireUser(d.Tokens), mwauth.RequireRole(models.RoleVendor))
	vendor.POST("/stores", d.StoreHandler.CreateStore)
	vendor.PATCH("/stores/:id", d.StoreHandler.UpdateStore)
	vendor.DELETE("/stores/:id", d.StoreHandler.DeleteStore)
	vendor.POST("/products", d.ProductHandler.CreateProduct)
	vendor.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	vendor.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	vendor.GET("/dashboard/vendor", d.DashboardHandler.VendorDashboard)

	cart := v1.Group("/cart", mwauth.RequireUser(d.Tokens))
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("/:product_id", d.CartHandler.RemoveFromCart)

	buyer := v1.Group("", mwauth.RequireUser(d.Tokens), mwauth.RequireRole(models.RoleBuyer))
	buyer.POST("/cart/checkout", d.CartHandler.MakeOrder)
	buyer.GET("/dashboard/buyer", d.DashboardHandler.BuyerDashboard)
}
