package http

import (
	"codegram-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// InitWebRouter registers the page routes. Each gate either lets the page
// through with its data or redirects the browser.
func InitWebRouter(router *gin.Engine, webHandler *WebHandler, secret string) {
	guest := router.Group("/")
	guest.Use(GuestOnly(secret))
	{
		guest.GET("/login", webHandler.Page("login"))
		guest.GET("/register", webHandler.Page("register"))
		guest.GET("/reset-password", webHandler.Page("reset-password"))
	}

	router.GET("/", OptionalAuth(secret), webHandler.Page("home"))
	router.GET("/courses/:courseId", OptionalAuth(secret), webHandler.CoursePage)

	member := router.Group("/")
	member.Use(WebAuthMiddleware(secret))
	{
		member.GET("/profile", webHandler.ProfilePage)
		member.GET("/my-courses", webHandler.MyCoursesPage)
		member.GET("/courses/:courseId/modules/:moduleId/lessons/:lessonId",
			EnrollmentRequired(webHandler.EnrollmentUsecase), webHandler.LessonPage)
	}

	router.GET("/admin",
		WebRoleMiddleware(secret, webHandler.ProfileUsecase, domain.RoleAdmin, domain.RoleModerator),
		webHandler.Page("admin"))
}
