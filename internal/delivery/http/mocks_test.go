package http_test

import (
	"context"
	"io"
	"net/url"

	"codegram-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockEnrollmentUsecase struct {
	mock.Mock
}

func (m *MockEnrollmentUsecase) GetUserEnrollments(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Enrollment), args.Error(1)
}

func (m *MockEnrollmentUsecase) GetEnrolledCourses(ctx context.Context, userID string) ([]domain.EnrolledCourse, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.EnrolledCourse), args.Error(1)
}

func (m *MockEnrollmentUsecase) CheckEnrollment(ctx context.Context, userID, courseID string) (*domain.EnrollmentCheck, error) {
	args := m.Called(ctx, userID, courseID)
	check, _ := args.Get(0).(*domain.EnrollmentCheck)
	return check, args.Error(1)
}

func (m *MockEnrollmentUsecase) EnrollCourse(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	e, _ := args.Get(0).(*domain.Enrollment)
	return e, args.Error(1)
}

func (m *MockEnrollmentUsecase) GetEnrollment(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, enrollmentID)
	e, _ := args.Get(0).(*domain.Enrollment)
	return e, args.Error(1)
}

func (m *MockEnrollmentUsecase) GetLessonPage(ctx context.Context, userID, courseID, moduleID, lessonID string) (*domain.LessonPage, error) {
	args := m.Called(ctx, userID, courseID, moduleID, lessonID)
	page, _ := args.Get(0).(*domain.LessonPage)
	return page, args.Error(1)
}

func (m *MockEnrollmentUsecase) CancelEnrollment(ctx context.Context, enrollmentID string) error {
	return m.Called(ctx, enrollmentID).Error(0)
}

// Add empty methods to satisfy the interface
func (m *MockEnrollmentUsecase) GetCompletedLessons(ctx context.Context, enrollmentID string) ([]domain.CompletedLesson, error) {
	return nil, nil
}
func (m *MockEnrollmentUsecase) CompleteLesson(ctx context.Context, enrollmentID, moduleID, lessonID string) (*domain.CompletedLesson, error) {
	return nil, nil
}
func (m *MockEnrollmentUsecase) IsLessonCompleted(ctx context.Context, enrollmentID, lessonID string) (bool, error) {
	return false, nil
}
func (m *MockEnrollmentUsecase) UpdateProgress(ctx context.Context, enrollmentID string) (int, error) {
	return 0, nil
}
func (m *MockEnrollmentUsecase) UpdateLastViewedLesson(ctx context.Context, enrollmentID, moduleID, lessonID string) error {
	return nil
}

type MockProfileUsecase struct {
	mock.Mock
}

func (m *MockProfileUsecase) LoadUserProfile(ctx context.Context, uid string) (*domain.User, error) {
	args := m.Called(ctx, uid)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockProfileUsecase) GetPublicProfile(ctx context.Context, uid string) (*domain.PublicProfile, error) {
	return nil, nil
}
func (m *MockProfileUsecase) UpdateUserProfile(ctx context.Context, uid string, patch domain.ProfilePatch) (*domain.User, error) {
	return nil, nil
}
func (m *MockProfileUsecase) UploadAvatar(ctx context.Context, uid, filename, contentType string, size int64, r io.Reader) (*domain.User, error) {
	return nil, nil
}

type MockCourseUsecase struct {
	mock.Mock
}

func (m *MockCourseUsecase) GetAllCourses(ctx context.Context) ([]domain.Course, error) {
	args := m.Called(ctx)
	courses, _ := args.Get(0).([]domain.Course)
	return courses, args.Error(1)
}

func (m *MockCourseUsecase) GetCoursesWithAuthors(ctx context.Context) ([]domain.CourseWithAuthor, error) {
	args := m.Called(ctx)
	courses, _ := args.Get(0).([]domain.CourseWithAuthor)
	return courses, args.Error(1)
}

func (m *MockCourseUsecase) GetAuthorByID(ctx context.Context, authorID string) *domain.User {
	args := m.Called(ctx, authorID)
	author, _ := args.Get(0).(*domain.User)
	return author
}

func (m *MockCourseUsecase) GetCourseByID(ctx context.Context, courseID string) (*domain.CourseWithAuthor, error) {
	args := m.Called(ctx, courseID)
	course, _ := args.Get(0).(*domain.CourseWithAuthor)
	return course, args.Error(1)
}

func (m *MockCourseUsecase) GetCourseDetail(ctx context.Context, courseID string) (*domain.CourseDetail, error) {
	args := m.Called(ctx, courseID)
	detail, _ := args.Get(0).(*domain.CourseDetail)
	return detail, args.Error(1)
}

func (m *MockCourseUsecase) GetModuleLessons(ctx context.Context, courseID, moduleID string) ([]domain.Lesson, error) {
	args := m.Called(ctx, courseID, moduleID)
	lessons, _ := args.Get(0).([]domain.Lesson)
	return lessons, args.Error(1)
}

func (m *MockCourseUsecase) GetLesson(ctx context.Context, courseID, moduleID, lessonID string) (*domain.Lesson, error) {
	args := m.Called(ctx, courseID, moduleID, lessonID)
	lesson, _ := args.Get(0).(*domain.Lesson)
	return lesson, args.Error(1)
}

func (m *MockCourseUsecase) GetCoursesByAuthor(ctx context.Context, authorID string) ([]domain.Course, error) {
	args := m.Called(ctx, authorID)
	courses, _ := args.Get(0).([]domain.Course)
	return courses, args.Error(1)
}

func (m *MockCourseUsecase) CreateCourse(ctx context.Context, course *domain.Course) error {
	return m.Called(ctx, course).Error(0)
}

func (m *MockCourseUsecase) GetPendingCourses(ctx context.Context) ([]domain.Course, error) {
	args := m.Called(ctx)
	courses, _ := args.Get(0).([]domain.Course)
	return courses, args.Error(1)
}

func (m *MockCourseUsecase) UpdateCourseStatus(ctx context.Context, courseID string, status domain.CourseStatus) error {
	return m.Called(ctx, courseID, status).Error(0)
}

func (m *MockCourseUsecase) BrowseCourses(ctx context.Context, query url.Values) ([]domain.CourseWithAuthor, error) {
	args := m.Called(ctx, query)
	courses, _ := args.Get(0).([]domain.CourseWithAuthor)
	return courses, args.Error(1)
}
