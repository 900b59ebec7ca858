package domain

import (
	"context"
	"io"
	"net/url"
	"time"
)

// Read methods return (nil, nil) when the document does not exist.

type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*Course, error)
	GetByStatus(ctx context.Context, status CourseStatus) ([]Course, error)
	GetByAuthorID(ctx context.Context, authorID string) ([]Course, error)
	Create(ctx context.Context, course *Course) error
	UpdateStatus(ctx context.Context, id string, status CourseStatus) error
}

type ModuleRepository interface {
	GetByCourseID(ctx context.Context, courseID string) ([]Module, error)
}

type LessonRepository interface {
	GetByModuleID(ctx context.Context, courseID, moduleID string) ([]Lesson, error)
	GetByID(ctx context.Context, courseID, moduleID, lessonID string) (*Lesson, error)
	CountByModuleID(ctx context.Context, courseID, moduleID string) (int, error)
}

type QuizRepository interface {
	GetFinalQuiz(ctx context.Context, courseID string) (*FinalQuiz, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByNormalizedUsername(ctx context.Context, normalized string) (bool, error)
	Create(ctx context.Context, user *User) error
	ApplyProfilePatch(ctx context.Context, id string, patch ProfilePatch) error
}

type AccountRepository interface { // PostgreSQL
	Create(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByUID(ctx context.Context, uid string) (*Account, error)
	UpdateLastLogin(ctx context.Context, uid string) error
	UpdatePasswordHash(ctx context.Context, uid, currentHash, newHash string) error
	Delete(ctx context.Context, uid string) error
}

type EnrollmentRepository interface {
	GetByID(ctx context.Context, id string) (*Enrollment, error)
	GetByUserID(ctx context.Context, userID string) ([]Enrollment, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) ([]Enrollment, error)
	// CreateWithStudentCount inserts the enrollment and increments the course's
	// students counter in one transaction. ErrCourseNotFound aborts both writes.
	CreateWithStudentCount(ctx context.Context, enrollment *Enrollment) error
	// DeleteCascade removes the enrollment with its completed lessons and quiz
	// results and decrements the students counter, in one transaction.
	DeleteCascade(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	UpdateLastViewed(ctx context.Context, id, moduleID, lessonID string) error
	UpdateCompletion(ctx context.Context, id string, completed bool, finalScore float64, completedAt *time.Time) error
}

type CompletedLessonRepository interface {
	GetByEnrollmentID(ctx context.Context, enrollmentID string) ([]CompletedLesson, error)
	Upsert(ctx context.Context, lesson *CompletedLesson) error
}

type QuizResultRepository interface {
	GetByEnrollmentID(ctx context.Context, enrollmentID string) ([]QuizResult, error)
	Create(ctx context.Context, result *QuizResult) error
	Update(ctx context.Context, result *QuizResult) error
}

// AvatarStore keeps uploaded profile images (GridFS).
type AvatarStore interface {
	UploadAvatar(ctx context.Context, ownerID, filename, contentType string, size int64, r io.Reader) (string, error)
}

// Mailer dispatches transactional emails.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// GoogleIdentity is what the OAuth exchange yields.
type GoogleIdentity struct {
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type GoogleAuthenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*GoogleIdentity, error)
}

// ========== USECASES ==========

type CourseUsecase interface {
	GetAllCourses(ctx context.Context) ([]Course, error)
	GetCoursesWithAuthors(ctx context.Context) ([]CourseWithAuthor, error)
	GetAuthorByID(ctx context.Context, authorID string) *User
	GetCourseByID(ctx context.Context, courseID string) (*CourseWithAuthor, error)
	GetCourseDetail(ctx context.Context, courseID string) (*CourseDetail, error)
	GetModuleLessons(ctx context.Context, courseID, moduleID string) ([]Lesson, error)
	GetLesson(ctx context.Context, courseID, moduleID, lessonID string) (*Lesson, error)
	GetCoursesByAuthor(ctx context.Context, authorID string) ([]Course, error)
	CreateCourse(ctx context.Context, course *Course) error
	GetPendingCourses(ctx context.Context) ([]Course, error)
	UpdateCourseStatus(ctx context.Context, courseID string, status CourseStatus) error
	// BrowseCourses applies the catalog filters and sort option read from query.
	BrowseCourses(ctx context.Context, query url.Values) ([]CourseWithAuthor, error)
}

type EnrollmentUsecase interface {
	GetUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
	GetEnrolledCourses(ctx context.Context, userID string) ([]EnrolledCourse, error)
	CheckEnrollment(ctx context.Context, userID, courseID string) (*EnrollmentCheck, error)
	EnrollCourse(ctx context.Context, userID, courseID string) (*Enrollment, error)
	GetEnrollment(ctx context.Context, enrollmentID string) (*Enrollment, error)
	GetCompletedLessons(ctx context.Context, enrollmentID string) ([]CompletedLesson, error)
	CompleteLesson(ctx context.Context, enrollmentID, moduleID, lessonID string) (*CompletedLesson, error)
	IsLessonCompleted(ctx context.Context, enrollmentID, lessonID string) (bool, error)
	UpdateProgress(ctx context.Context, enrollmentID string) (int, error)
	UpdateLastViewedLesson(ctx context.Context, enrollmentID, moduleID, lessonID string) error
	CancelEnrollment(ctx context.Context, enrollmentID string) error
	// GetLessonPage requires an enrollment of userID in courseID and moves the resume pointer.
	GetLessonPage(ctx context.Context, userID, courseID, moduleID, lessonID string) (*LessonPage, error)
}

type QuizUsecase interface {
	GetFinalQuiz(ctx context.Context, courseID string) (*FinalQuiz, error)
	SaveQuizResult(ctx context.Context, enrollmentID string, submission QuizSubmission) (*QuizResult, error)
	GetQuizResults(ctx context.Context, enrollmentID string) ([]QuizResult, error)
	UpdateCourseCompletionStatus(ctx context.Context, enrollmentID string) (*CompletionStatus, error)
	SubmitFinalQuiz(ctx context.Context, enrollmentID string, submission QuizSubmission) (*CompletionStatus, error)
}

type AuthUsecase interface {
	CheckEmailExists(ctx context.Context, email string) (bool, AuthType, error)
	CheckUsernameExists(ctx context.Context, username string) (bool, error)
	RegisterWithEmail(ctx context.Context, email, password, username string) (*User, error)
	SignInWithEmail(ctx context.Context, email, password string, rememberMe bool) (*Session, error)
	GoogleAuthURL(state string) string
	SignInWithGoogle(ctx context.Context, code string) (*Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	SignOut(ctx context.Context, uid string)
}

type ProfileUsecase interface {
	LoadUserProfile(ctx context.Context, uid string) (*User, error)
	GetPublicProfile(ctx context.Context, uid string) (*PublicProfile, error)
	UpdateUserProfile(ctx context.Context, uid string, patch ProfilePatch) (*User, error)
	UploadAvatar(ctx context.Context, uid, filename, contentType string, size int64, r io.Reader) (*User, error)
}

// Session - a signed-in user and its token. Durable sessions survive browser restarts.
type Session struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	Durable   bool      `json:"durable"`
	ExpiresAt time.Time `json:"expiresAt"`
}
