package router

import (
	"github.com/datadik/portal/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// PortalHandlers are the handlers behind the portal routes. Nil handlers
// leave their routes unregistered.
type PortalHandlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Organizations *handler.OrganizationHandler
	Posts         *handler.PostHandler
	Submissions   *handler.SubmissionHandler
	Registry      *handler.RegistryHandler
	Notifications *handler.NotificationSSEHandler
	Dashboard     *handler.DashboardHandler
	Assistant     *handler.AssistantHandler
	Pages         *handler.PageHandler
	System        *handler.SystemHandler
}

// PortalMiddleware are the per-route guards. Auth must reject requests
// without a valid session; Admin runs after it.
type PortalMiddleware struct {
	Auth       gin.HandlerFunc
	Admin      gin.HandlerFunc
	LoginLimit gin.HandlerFunc
}

// RegisterPortal wires every portal route into r
func RegisterPortal(r *Router, h PortalHandlers, mw PortalMiddleware) *Router {
	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo)
		system.GET("/ping", h.System.Ping)
		r.Register(system)

		health := NewDomainGroup("health", "")
		health.GET("/health", h.System.Health)
		r.RegisterRoot(health)
	}

	if h.Auth != nil {
		auth := NewDomainGroup("auth", "/auth")
		auth.POST("/login", mw.LoginLimit, h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", mw.Auth, h.Auth.Logout)
		auth.GET("/me", mw.Auth, h.Auth.GetCurrentUser)
		r.Register(auth)
	}

	if h.Organizations != nil {
		orgs := NewDomainGroup("organizations", "/organizations")
		orgs.GET("", h.Organizations.List)
		orgs.GET("/:id", h.Organizations.Get)
		orgs.GET("/:id/school-data", h.Organizations.GetSchoolData)
		orgs.POST("", mw.Auth, mw.Admin, h.Organizations.Create)
		orgs.PATCH("/:id", mw.Auth, mw.Admin, h.Organizations.Update)
		orgs.DELETE("/:id", mw.Auth, mw.Admin, h.Organizations.Delete)
		orgs.PUT("/:id/school-data", mw.Auth, h.Organizations.UpdateSchoolData)
		orgs.POST("/:id/verification", mw.Auth, h.Organizations.RequestVerification)
		orgs.POST("/:id/verification/confirm", mw.Auth, h.Organizations.ConfirmVerification)
		r.Register(orgs)
	}

	if h.Posts != nil {
		posts := NewDomainGroup("posts", "/posts")
		posts.GET("", h.Posts.List)
		posts.GET("/managed", mw.Auth, h.Posts.ListManaged)
		posts.GET("/:id", h.Posts.Get)
		posts.POST("", mw.Auth, h.Posts.Create)
		posts.PATCH("/:id", mw.Auth, h.Posts.Update)
		posts.DELETE("/:id", mw.Auth, h.Posts.Delete)
		r.Register(posts)
	}

	if h.Submissions != nil {
		subs := NewDomainGroup("submissions", "/submissions").Use(mw.Auth)
		subs.POST("", h.Submissions.Upload)
		subs.GET("", h.Submissions.List)
		subs.PATCH("/:id/status", h.Submissions.UpdateStatus)
		subs.DELETE("/:id", h.Submissions.Delete)
		subs.GET("/:id/download", h.Submissions.Download)
		r.Register(subs)
	}

	if h.Registry != nil {
		sync := NewDomainGroup("sync", "/sync")
		sync.GET("/kemendikdasmen", h.Registry.Sync)
		sync.POST("/kemendikdasmen", h.Registry.Sync)
		r.Register(sync)
	}

	if h.Notifications != nil {
		notifications := NewDomainGroup("notifications", "/notifications").Use(mw.Auth)
		notifications.GET("/stream", h.Notifications.Stream)
		r.Register(notifications)
	}

	if h.Assistant != nil {
		chat := NewDomainGroup("assistant", "/chat").Use(mw.Auth)
		chat.POST("", h.Assistant.Chat)
		r.Register(chat)
	}

	admin := NewDomainGroup("admin", "/admin").Use(mw.Auth, mw.Admin)
	if h.Dashboard != nil {
		admin.GET("/stats", h.Dashboard.Stats)
	}
	if h.Users != nil {
		users := admin.Group("users", "/users")
		users.GET("", h.Users.List)
		users.POST("", h.Users.Create)
		users.PATCH("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}
	if h.Registry != nil {
		admin.POST("/schools/import", h.Registry.ImportSchools)
	}
	r.Register(admin)

	if h.Pages != nil {
		pages := NewDomainGroup("pages", "")
		pages.GET("/home", h.Pages.Home)
		pages.GET("/login", h.Pages.Login)
		pages.GET("/dashboard", mw.Auth, h.Pages.Dashboard)
		pages.GET("/sites/:site/*path", h.Pages.Site)
		r.RegisterRoot(pages)
	}

	return r
}
