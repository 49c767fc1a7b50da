package router

import (
	"github.com/gin-gonic/gin"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/infrastructure/auth"
	"github.com/offeringbowl/backend/internal/infrastructure/cache"
	"github.com/offeringbowl/backend/internal/interfaces/http/handler"
	"github.com/offeringbowl/backend/internal/interfaces/http/middleware"
)

// Handlers are the resource handlers the routes dispatch to
type Handlers struct {
	System     *handler.SystemHandler
	Users      *handler.UserHandler
	Settings   *handler.SettingsHandler
	Profiles   *handler.ProfileHandler
	Posts      *handler.PostHandler
	Contracts  *handler.ContractHandler
	Receipts   *handler.ReceiptHandler
	Media      *handler.MediaHandler
	Activities *handler.ActivityHandler
}

// Guards supplies what the access middleware needs. Cache may be nil.
type Guards struct {
	Verifier auth.Verifier
	Users    middleware.UserLookup
	Cache    cache.UserCache
}

// authed verifies the token and hydrates role and userId
func (g Guards) authed(extra ...gin.HandlerFunc) []gin.HandlerFunc {
	return append([]gin.HandlerFunc{
		middleware.Authenticate(g.Verifier),
		middleware.HydrateUser(g.Users, g.Cache),
	}, extra...)
}

func owner(param string) gin.HandlerFunc {
	return middleware.RestrictToOwner(param)
}

var (
	monastic = middleware.RequireRole(identity.RoleMonastic)
	patron   = middleware.RequireRole(identity.RolePatron)
)

// Groups builds the resource route groups
func Groups(h Handlers, g Guards) []*DomainGroup {
	users := NewDomainGroup("users", "/users").Use(g.authed()...)
	users.POST("", h.Users.Create)
	users.GET("/:userId", owner("userId"), h.Users.Get)
	users.PUT("/:userId", owner("userId"), h.Users.Update)

	settings := NewDomainGroup("settings", "/settings").Use(g.authed()...)
	settings.POST("", owner(""), h.Settings.Create)
	settings.GET("/:userId", owner("userId"), h.Settings.GetForUser)
	settings.PUT("/:settingsId", owner(""), h.Settings.Update)

	posts := NewDomainGroup("posts", "/posts")
	posts.GET("/public/monastic/:monasticId", h.Posts.ListPublic)
	posts.GET("/public/post/:postId", h.Posts.GetPublic)
	posts.GET("/post/:postId", chain(g.authed(), h.Posts.Get)...)
	posts.GET("/monastic/:monasticId", chain(g.authed(), h.Posts.ListForMonastic)...)
	posts.GET("/feed/:patronId", chain(g.authed(patron), h.Posts.Feed)...)
	posts.POST("/post", chain(g.authed(monastic, owner("")), h.Posts.Create)...)
	posts.PUT("/post/:postId", chain(g.authed(monastic, owner("")), h.Posts.Update)...)
	posts.DELETE("/post/:postId", chain(g.authed(monastic, owner("")), h.Posts.Delete)...)

	profiles := NewDomainGroup("profiles", "/profiles").Use(g.authed()...)
	profiles.POST("", h.Profiles.Create)
	profiles.GET("/:profileId", h.Profiles.Get)
	profiles.GET("/user/:userId", h.Profiles.GetForUser)
	profiles.PUT("/:profileId", h.Profiles.Update)
	profiles.PUT("/user/:userId", owner("userId"), h.Profiles.UpdateForUser)

	contracts := NewDomainGroup("contracts", "/contracts").Use(g.authed()...)
	contracts.POST("", patron, h.Contracts.Create)
	contracts.GET("/:contractId", h.Contracts.Get)
	contracts.PUT("/:contractId", h.Contracts.Update)
	contracts.GET("/patron/:patronId", patron, owner("patronId"), h.Contracts.ListForPatron)
	contracts.GET("/monastic/:monasticId", monastic, owner("monasticId"), h.Contracts.ListForMonastic)
	contracts.GET("/monastic/:monasticId/patrons", monastic, owner("monasticId"), h.Contracts.Patrons)

	receipts := NewDomainGroup("receipts", "/receipts").Use(g.authed()...)
	receipts.POST("", h.Receipts.Create)
	receipts.GET("/:receiptId", h.Receipts.Get)
	receipts.GET("/contract/:contractId", h.Receipts.ListForContract)

	media := NewDomainGroup("media", "/media").Use(g.authed()...)
	media.POST("", h.Media.Create)
	media.GET("/:mediaId", h.Media.Get)

	activities := NewDomainGroup("activities", "/activities").Use(g.authed()...)
	activities.GET("/:userId", owner("userId"), h.Activities.List)

	return []*DomainGroup{users, settings, posts, profiles, contracts, receipts, media, activities}
}
