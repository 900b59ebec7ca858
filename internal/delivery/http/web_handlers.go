package http

import (
	"net/http"

	"codegram-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// WebHandler answers page routes with the data the page needs once its gate passed.
type WebHandler struct {
	ProfileUsecase    domain.ProfileUsecase
	CourseUsecase     domain.CourseUsecase
	EnrollmentUsecase domain.EnrollmentUsecase
}

func NewWebHandler(pu domain.ProfileUsecase, cu domain.CourseUsecase, eu domain.EnrollmentUsecase) *WebHandler {
	return &WebHandler{
		ProfileUsecase:    pu,
		CourseUsecase:     cu,
		EnrollmentUsecase: eu,
	}
}

func (h *WebHandler) Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := getUserID(c)
		c.JSON(http.StatusOK, gin.H{"page": name, "userId": uid})
	}
}

func (h *WebHandler) CoursePage(c *gin.Context) {
	ctx := c.Request.Context()
	detail, err := h.CourseUsecase.GetCourseDetail(ctx, c.Param("courseId"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": domain.UserMessage(err)})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.UserMessage(domain.ErrCourseNotFound)})
		return
	}

	resp := gin.H{"page": "course", "course": detail, "enrollment": nil}
	if uid, err := getUserID(c); err == nil {
		check, err := h.EnrollmentUsecase.CheckEnrollment(ctx, uid, detail.ID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": domain.UserMessage(err)})
			return
		}
		resp["enrollment"] = check
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WebHandler) ProfilePage(c *gin.Context) {
	uid, _ := getUserID(c)
	user, err := h.ProfileUsecase.LoadUserProfile(c.Request.Context(), uid)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": domain.UserMessage(err)})
		return
	}
	if user == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "profile", "user": user})
}

func (h *WebHandler) MyCoursesPage(c *gin.Context) {
	uid, _ := getUserID(c)
	courses, err := h.EnrollmentUsecase.GetEnrolledCourses(c.Request.Context(), uid)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": domain.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "my-courses", "courses": courses})
}

// LessonPage runs behind EnrollmentRequired.
func (h *WebHandler) LessonPage(c *gin.Context) {
	uid, _ := getUserID(c)
	courseID := c.Param("courseId")
	page, err := h.EnrollmentUsecase.GetLessonPage(c.Request.Context(), uid, courseID, c.Param("moduleId"), c.Param("lessonId"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": domain.UserMessage(err)})
		return
	}
	if page == nil {
		c.Redirect(http.StatusSeeOther, "/courses/"+courseID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "lesson", "lesson": page})
}
