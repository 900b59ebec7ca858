package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"codegram-backend/internal/authstate"
	"codegram-backend/internal/catalog"
	"codegram-backend/internal/domain"
	"codegram-backend/internal/repository"
	"codegram-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
)

// HandlerOptions holds the cookie and redirect settings of the API.
type HandlerOptions struct {
	JWTSecret     string
	SecureCookies bool
	FrontendURL   string
}

type Handler struct {
	AuthUsecase       domain.AuthUsecase
	ProfileUsecase    domain.ProfileUsecase
	CourseUsecase     domain.CourseUsecase
	EnrollmentUsecase domain.EnrollmentUsecase
	QuizUsecase       domain.QuizUsecase
	Broker            *authstate.Broker
	OAuthStore        sessions.Store

	opts HandlerOptions
	log  *logger.Logger
}

func NewHandler(
	au domain.AuthUsecase,
	pu domain.ProfileUsecase,
	cu domain.CourseUsecase,
	eu domain.EnrollmentUsecase,
	qu domain.QuizUsecase,
	broker *authstate.Broker,
	oauthStore sessions.Store,
	opts HandlerOptions,
	log *logger.Logger,
) *Handler {
	return &Handler{
		AuthUsecase:       au,
		ProfileUsecase:    pu,
		CourseUsecase:     cu,
		EnrollmentUsecase: eu,
		QuizUsecase:       qu,
		Broker:            broker,
		OAuthStore:        oauthStore,
		opts:              opts,
		log:               log.With("component", "http"),
	}
}

// ========== UTILITY FUNCTIONS ==========

func formatValidationErrors(err error) gin.H {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		errors := make(map[string]string)
		for _, f := range ve {
			errors[f.Field()] = fmt.Sprintf("Поле '%s' не пройшло перевірку '%s'", f.Field(), f.Tag())
		}
		return gin.H{"error": domain.UserMessage(domain.ErrInvalidInput), "details": errors}
	}
	return gin.H{"error": domain.UserMessage(domain.ErrInvalidInput) + ": " + err.Error()}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrEnrollmentNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, repository.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrEmailOtherProvider),
		errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrAlreadyEnrolled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, repository.ErrFileTooLarge),
		errors.Is(err, repository.ErrFileTypeInvalid):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": domain.UserMessage(err)})
}

func notFound(c *gin.Context, sentinel error) {
	c.JSON(http.StatusNotFound, gin.H{"error": domain.UserMessage(sentinel)})
}

// ========== COURSE HANDLERS ==========

// ListCourses serves the catalogue; filters and sort come from the query string.
func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.CourseUsecase.BrowseCourses(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "total": len(courses)})
}

func (h *Handler) GetFilterOptions(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.FilterOptions)
}

func (h *Handler) GetCourseDetail(c *gin.Context) {
	detail, err := h.CourseUsecase.GetCourseDetail(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if detail == nil {
		notFound(c, domain.ErrCourseNotFound)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetModuleLessons(c *gin.Context) {
	lessons, err := h.CourseUsecase.GetModuleLessons(c.Request.Context(), c.Param("courseId"), c.Param("moduleId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lessons)
}

func (h *Handler) GetFinalQuiz(c *gin.Context) {
	quiz, err := h.QuizUsecase.GetFinalQuiz(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if quiz == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Фінальний тест не знайдено"})
		return
	}
	c.JSON(http.StatusOK, quiz)
}

type createCourseRequest struct {
	Title         string            `json:"title" binding:"required,max=200"`
	Description   string            `json:"description" binding:"max=5000"`
	Topics        []string          `json:"topics"`
	Technologies  []string          `json:"technologies"`
	CourseType    string            `json:"courseType"`
	Level         string            `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Duration      domain.FlexNumber `json:"duration"`
	Language      string            `json:"language"`
	AvailableFrom string            `json:"availableFrom"`
}

func (h *Handler) CreateCourse(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if req.AvailableFrom != "" && !catalog.IsAlwaysAvailable(req.AvailableFrom) {
		if _, ok := catalog.ParseAvailableFrom(req.AvailableFrom); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Дата початку має бути у форматі ДД.ММ.РРРР"})
			return
		}
	}

	course := &domain.Course{
		Title:         req.Title,
		Description:   req.Description,
		AuthorID:      uid,
		Topics:        req.Topics,
		Technologies:  req.Technologies,
		CourseType:    req.CourseType,
		Level:         req.Level,
		Duration:      req.Duration,
		Language:      req.Language,
		AvailableFrom: req.AvailableFrom,
	}
	if err := h.CourseUsecase.CreateCourse(c.Request.Context(), course); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) GetMyAuthoredCourses(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	courses, err := h.CourseUsecase.GetCoursesByAuthor(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

// ========== MODERATION HANDLERS ==========

func (h *Handler) GetPendingCourses(c *gin.Context) {
	courses, err := h.CourseUsecase.GetPendingCourses(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handler) UpdateCourseStatus(c *gin.Context) {
	var req struct {
		Status domain.CourseStatus `json:"status" binding:"required,oneof=pending approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if err := h.CourseUsecase.UpdateCourseStatus(c.Request.Context(), c.Param("courseId"), req.Status); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Статус курсу оновлено", "status": req.Status})
}

// ========== ENROLLMENT HANDLERS ==========

func (h *Handler) GetMyEnrollments(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	enrollments, err := h.EnrollmentUsecase.GetUserEnrollments(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollments)
}

func (h *Handler) GetMyCourses(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	courses, err := h.EnrollmentUsecase.GetEnrolledCourses(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handler) CheckEnrollment(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	check, err := h.EnrollmentUsecase.CheckEnrollment(c.Request.Context(), uid, c.Param("courseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handler) EnrollCourse(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	enrollment, err := h.EnrollmentUsecase.EnrollCourse(c.Request.Context(), uid, c.Param("courseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (h *Handler) GetLessonPage(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	page, err := h.EnrollmentUsecase.GetLessonPage(c.Request.Context(), uid,
		c.Param("courseId"), c.Param("moduleId"), c.Param("lessonId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Лекцію не знайдено"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// ownedEnrollment loads :enrollmentId and checks it belongs to the caller.
func (h *Handler) ownedEnrollment(c *gin.Context) (*domain.Enrollment, bool) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return nil, false
	}
	enrollment, err := h.EnrollmentUsecase.GetEnrollment(c.Request.Context(), c.Param("enrollmentId"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	if enrollment == nil {
		notFound(c, domain.ErrEnrollmentNotFound)
		return nil, false
	}
	if enrollment.UserID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": domain.UserMessage(domain.ErrForbidden)})
		return nil, false
	}
	return enrollment, true
}

func (h *Handler) GetEnrollment(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) CancelEnrollment(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	if err := h.EnrollmentUsecase.CancelEnrollment(c.Request.Context(), enrollment.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Запис на курс скасовано"})
}

func (h *Handler) GetCompletedLessons(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	lessons, err := h.EnrollmentUsecase.GetCompletedLessons(c.Request.Context(), enrollment.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lessons)
}

type lessonRef struct {
	ModuleID string `json:"moduleId" binding:"required"`
	LessonID string `json:"lessonId" binding:"required"`
}

func (h *Handler) CompleteLesson(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	var req lessonRef
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	lesson, err := h.EnrollmentUsecase.CompleteLesson(c.Request.Context(), enrollment.ID, req.ModuleID, req.LessonID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *Handler) UpdateLastViewed(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	var req lessonRef
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if err := h.EnrollmentUsecase.UpdateLastViewedLesson(c.Request.Context(), enrollment.ID, req.ModuleID, req.LessonID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RecalculateProgress(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	progress, err := h.EnrollmentUsecase.UpdateProgress(c.Request.Context(), enrollment.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// ========== QUIZ HANDLERS ==========

func (h *Handler) GetQuizResults(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	results, err := h.QuizUsecase.GetQuizResults(c.Request.Context(), enrollment.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) SubmitFinalQuiz(c *gin.Context) {
	enrollment, ok := h.ownedEnrollment(c)
	if !ok {
		return
	}
	var submission domain.QuizSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	status, err := h.QuizUsecase.SubmitFinalQuiz(c.Request.Context(), enrollment.ID, submission)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ========== PROFILE HANDLERS ==========

func (h *Handler) GetProfile(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	user, err := h.ProfileUsecase.LoadUserProfile(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user == nil {
		notFound(c, domain.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	var patch domain.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	user, err := h.ProfileUsecase.UpdateUserProfile(c.Request.Context(), uid, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetPublicProfile(c *gin.Context) {
	profile, err := h.ProfileUsecase.GetPublicProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Користувача не знайдено"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
