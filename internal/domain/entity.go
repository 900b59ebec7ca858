package domain

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

type AuthType string

const (
	AuthTypeEmail  AuthType = "email"
	AuthTypeGoogle AuthType = "google"
)

type CourseStatus string

const (
	CourseStatusPending  CourseStatus = "pending"
	CourseStatusApproved CourseStatus = "approved"
)

// AlwaysAvailable is the stored value of Course.AvailableFrom for courses without a start date.
const AlwaysAvailable = "постійно"

// ========== POSTGRESQL MODELS ==========

// Account - credentials held by the auth collaborator, one per uid
type Account struct {
	UID          string     `json:"uid" gorm:"primaryKey;type:varchar(36)"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-"`
	Provider     AuthType   `json:"provider" gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// ========== MONGODB MODELS ==========

type Profile struct {
	AvatarURL string `json:"avatarUrl" bson:"avatarUrl"`
	Bio       string `json:"bio" bson:"bio"`
	FullName  string `json:"fullName" bson:"fullName"`
}

// User - profile document in the users collection, keyed by account uid
type User struct {
	ID                 string    `json:"id" bson:"_id"`
	Email              string    `json:"email" bson:"email"`
	Username           string    `json:"username" bson:"username"`
	NormalizedUsername string    `json:"normalizedUsername" bson:"normalizedUsername"`
	Role               Role      `json:"role" bson:"role"`
	AuthType           AuthType  `json:"authType" bson:"authType"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
	Profile            Profile   `json:"profile" bson:"profile"`
}

func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleModerator)
}

type Course struct {
	ID            string       `json:"id" bson:"_id,omitempty"`
	Title         string       `json:"title" bson:"title"`
	Description   string       `json:"description" bson:"description"`
	AuthorID      string       `json:"authorId" bson:"authorId"`
	Topics        []string     `json:"topics" bson:"topics"`
	Technologies  []string     `json:"technologies" bson:"technologies"`
	CourseType    string       `json:"courseType" bson:"courseType"`
	Level         string       `json:"level" bson:"level"`
	Rating        FlexNumber   `json:"rating" bson:"rating"`
	Duration      FlexNumber   `json:"duration" bson:"duration"`
	Language      string       `json:"language" bson:"language"`
	AvailableFrom string       `json:"availableFrom" bson:"availableFrom"`
	Students      int          `json:"students" bson:"students"`
	Status        CourseStatus `json:"status" bson:"status"`
	FinalQuiz     *FinalQuiz   `json:"-" bson:"finalQuiz,omitempty"` // legacy embedded quiz
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
}

// Author - the public part of a course author's profile
type Author struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Role     Role    `json:"role"`
	Profile  Profile `json:"profile"`
}

// AuthorView drops private fields such as email; nil stays nil.
func (u *User) AuthorView() *Author {
	if u == nil {
		return nil
	}
	return &Author{ID: u.ID, Username: u.Username, Role: u.Role, Profile: u.Profile}
}

// CourseWithAuthor - course joined with its author profile (nil when absent)
type CourseWithAuthor struct {
	Course
	Author *Author `json:"author"`
}

type Module struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	CourseID string `json:"courseId" bson:"courseId"`
	Title    string `json:"title" bson:"title"`
	Order    int    `json:"order" bson:"order"`
}

type Lesson struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	CourseID string `json:"courseId" bson:"courseId"`
	ModuleID string `json:"moduleId" bson:"moduleId"`
	Title    string `json:"title" bson:"title"`
	Content  string `json:"content" bson:"content"`
	Order    int    `json:"order" bson:"order"`
}

type QuizQuestion struct {
	Text    string   `json:"text" bson:"text"`
	Options []string `json:"options" bson:"options"`
	Correct int      `json:"-" bson:"correct"`
}

// FinalQuiz - at most one per course
type FinalQuiz struct {
	ID           string         `json:"id" bson:"_id,omitempty"`
	CourseID     string         `json:"courseId" bson:"courseId"`
	Title        string         `json:"title" bson:"title"`
	PassingScore float64        `json:"passingScore" bson:"passingScore"`
	Questions    []QuizQuestion `json:"questions" bson:"questions"`
	IsFinalQuiz  bool           `json:"isFinalQuiz" bson:"-"`
}

// Enrollment - a user's registration in a course, unique per (userId, courseId)
type Enrollment struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	UserID       string     `json:"userId" bson:"userId"`
	CourseID     string     `json:"courseId" bson:"courseId"`
	EnrolledAt   *time.Time `json:"enrolledAt" bson:"enrolledAt"`
	Progress     int        `json:"progress" bson:"progress"` // 0-100
	Completed    bool       `json:"completed" bson:"completed"`
	FinalScore   float64    `json:"finalScore" bson:"finalScore"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" bson:"completedAt"`
	LastModuleID string     `json:"lastModuleId,omitempty" bson:"lastModuleId,omitempty"`
	LastLessonID string     `json:"lastLessonId,omitempty" bson:"lastLessonId,omitempty"`
}

// CompletedLesson - ID is the lesson id; re-marking is a no-op
type CompletedLesson struct {
	ID           string    `json:"id" bson:"lessonId"`
	EnrollmentID string    `json:"enrollmentId" bson:"enrollmentId"`
	ModuleID     string    `json:"moduleId" bson:"moduleId"`
	CompletedAt  time.Time `json:"completedAt" bson:"completedAt"`
}

type QuizResult struct {
	ID           string         `json:"id" bson:"_id,omitempty"`
	EnrollmentID string         `json:"enrollmentId" bson:"enrollmentId"`
	Score        float64        `json:"score" bson:"score"`
	Passed       bool           `json:"passed" bson:"passed"`
	IsFinalQuiz  bool           `json:"isFinalQuiz" bson:"isFinalQuiz"`
	Attempts     int            `json:"attempts" bson:"attempts"`
	Answers      map[string]int `json:"answers,omitempty" bson:"answers,omitempty"`
	CompletedAt  time.Time      `json:"completedAt" bson:"completedAt"`
}

// ========== REQUEST / RESPONSE DTOs ==========

// QuizSubmission - what the client sends after finishing the final quiz
type QuizSubmission struct {
	Score   float64        `json:"score" binding:"gte=0,lte=100"`
	Passed  bool           `json:"passed"`
	Answers map[string]int `json:"answers"`
}

// ProfilePatch - updatable profile fields; nil means "leave unchanged"
type ProfilePatch struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=32"`
	FullName  *string `json:"fullName" binding:"omitempty,max=120"`
	Bio       *string `json:"bio" binding:"omitempty,max=1000"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,max=512"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Username == nil && p.FullName == nil && p.Bio == nil && p.AvatarURL == nil
}

// PublicProfile - what other users see of an author
type PublicProfile struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Role     Role     `json:"role"`
	Profile  Profile  `json:"profile"`
	Courses  []Course `json:"courses"`
}

// EnrollmentCheck - result of CheckEnrollment
type EnrollmentCheck struct {
	IsEnrolled bool        `json:"isEnrolled"`
	Enrollment *Enrollment `json:"enrollment"`
}

// EnrolledCourse - course card on the "my courses" page
type EnrolledCourse struct {
	CourseWithAuthor
	EnrollmentID string `json:"enrollmentId"`
	Progress     int    `json:"progress"`
	Completed    bool   `json:"completed"`
	LastModuleID string `json:"lastModuleId,omitempty"`
	LastLessonID string `json:"lastLessonId,omitempty"`
	ContinueLink string `json:"continueLink"`
}

// CourseDetail - course page: course, author and ordered modules
type CourseDetail struct {
	CourseWithAuthor
	Modules     []Module `json:"modules"`
	IsAvailable bool     `json:"isAvailable"`
}

// CompletionStatus - result of UpdateCourseCompletionStatus
type CompletionStatus struct {
	ID         string  `json:"id"`
	Completed  bool    `json:"completed"`
	FinalScore float64 `json:"finalScore"`
}

// LessonPage - everything the lesson view needs
type LessonPage struct {
	Course           *Course           `json:"course"`
	Lesson           *Lesson           `json:"lesson"`
	Enrollment       *Enrollment       `json:"enrollment"`
	CompletedLessons []CompletedLesson `json:"completedLessons"`
	IsCompleted      bool              `json:"isCompleted"`
}
