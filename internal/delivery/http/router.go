package http

import (
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func InitRouter(handler *Handler, files *FileHandler, requestTimeout time.Duration, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	if handler.opts.FrontendURL != "" {
		r.Use(CORS(handler.opts.FrontendURL))
	}

	secret := handler.opts.JWTSecret
	api := r.Group("/api/v1")

	// long-lived stream, outside the request timeout
	api.GET("/auth/state", OptionalAuth(secret), handler.StreamAuthState)

	timed := api.Group("")
	timed.Use(RequestTimeout(requestTimeout))

	// Public Routes
	{
		timed.GET("/auth/email-exists", handler.CheckEmail)
		timed.GET("/auth/username-exists", handler.CheckUsername)
		timed.POST("/auth/register", handler.Register)
		timed.POST("/auth/login", handler.Login)
		timed.POST("/auth/password-reset", handler.ForgotPassword)
		timed.POST("/auth/password-reset/confirm", handler.ResetPassword)
		timed.GET("/auth/google", handler.GoogleLogin)
		timed.GET("/auth/google/callback", handler.GoogleCallback)

		timed.GET("/courses", handler.ListCourses)
		timed.GET("/courses/filter-options", handler.GetFilterOptions)
		timed.GET("/courses/:courseId", handler.GetCourseDetail)
		timed.GET("/courses/:courseId/modules/:moduleId/lessons", handler.GetModuleLessons)
		timed.GET("/courses/:courseId/quiz", handler.GetFinalQuiz)
		timed.GET("/users/:userId", handler.GetPublicProfile)

		timed.GET("/files/:id", files.StreamFile)
		timed.GET("/files/:id/info", files.GetFileInfo)
	}

	// Protected Routes
	protected := timed.Group("")
	protected.Use(AuthMiddleware(secret))
	{
		protected.POST("/auth/logout", handler.Logout)

		protected.GET("/profile", handler.GetProfile)
		protected.PATCH("/profile", handler.UpdateProfile)
		protected.POST("/profile/avatar", files.UploadAvatar)

		protected.POST("/courses", handler.CreateCourse)
		protected.GET("/authored-courses", handler.GetMyAuthoredCourses)

		protected.GET("/my-courses", handler.GetMyCourses)
		protected.GET("/enrollments", handler.GetMyEnrollments)
		protected.GET("/courses/:courseId/enrollment", handler.CheckEnrollment)
		protected.POST("/courses/:courseId/enroll", handler.EnrollCourse)
		protected.GET("/courses/:courseId/modules/:moduleId/lessons/:lessonId", handler.GetLessonPage)

		protected.GET("/enrollments/:enrollmentId", handler.GetEnrollment)
		protected.DELETE("/enrollments/:enrollmentId", handler.CancelEnrollment)
		protected.GET("/enrollments/:enrollmentId/completed-lessons", handler.GetCompletedLessons)
		protected.POST("/enrollments/:enrollmentId/completed-lessons", handler.CompleteLesson)
		protected.PUT("/enrollments/:enrollmentId/last-viewed", handler.UpdateLastViewed)
		protected.POST("/enrollments/:enrollmentId/progress", handler.RecalculateProgress)
		protected.GET("/enrollments/:enrollmentId/quiz-results", handler.GetQuizResults)
		protected.POST("/enrollments/:enrollmentId/quiz", handler.SubmitFinalQuiz)
	}

	// Moderators & Admins Only
	moderation := protected.Group("/admin")
	moderation.Use(RoleMiddleware(handler.ProfileUsecase, domain.RoleAdmin, domain.RoleModerator))
	{
		moderation.GET("/courses/pending", handler.GetPendingCourses)
		moderation.PATCH("/courses/:courseId/status", handler.UpdateCourseStatus)
	}

	return r
}
