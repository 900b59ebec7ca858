package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"codegram-backend/internal/domain"
)

// In-memory repositories shared by the usecase tests.

type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*domain.Course
	seq     int
}

func newFakeCourseRepo(courses ...domain.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: map[string]*domain.Course{}}
	for i := range courses {
		c := courses[i]
		r.courses[c.ID] = &c
	}
	return r
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCourseRepo) filter(keep func(*domain.Course) bool) []domain.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Course{}
	for _, c := range r.courses {
		if keep(c) {
			out = append(out, *c)
		}
	}
	return out
}

func (r *fakeCourseRepo) GetByStatus(_ context.Context, status domain.CourseStatus) ([]domain.Course, error) {
	return r.filter(func(c *domain.Course) bool { return c.Status == status }), nil
}

func (r *fakeCourseRepo) GetByAuthorID(_ context.Context, authorID string) ([]domain.Course, error) {
	return r.filter(func(c *domain.Course) bool { return c.AuthorID == authorID }), nil
}

func (r *fakeCourseRepo) Create(_ context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	course.ID = fmt.Sprintf("course-%d", r.seq)
	cp := *course
	r.courses[course.ID] = &cp
	return nil
}

func (r *fakeCourseRepo) UpdateStatus(_ context.Context, id string, status domain.CourseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return domain.ErrCourseNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeCourseRepo) students(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.courses[id].Students
}

type fakeModuleRepo struct {
	modules map[string][]domain.Module
}

func (r *fakeModuleRepo) GetByCourseID(_ context.Context, courseID string) ([]domain.Module, error) {
	return r.modules[courseID], nil
}

type fakeLessonRepo struct {
	lessons []domain.Lesson
}

func (r *fakeLessonRepo) GetByModuleID(_ context.Context, courseID, moduleID string) ([]domain.Lesson, error) {
	out := []domain.Lesson{}
	for _, l := range r.lessons {
		if l.CourseID == courseID && l.ModuleID == moduleID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLessonRepo) GetByID(_ context.Context, courseID, moduleID, lessonID string) (*domain.Lesson, error) {
	for _, l := range r.lessons {
		if l.CourseID == courseID && l.ModuleID == moduleID && l.ID == lessonID {
			cp := l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLessonRepo) CountByModuleID(ctx context.Context, courseID, moduleID string) (int, error) {
	lessons, _ := r.GetByModuleID(ctx, courseID, moduleID)
	return len(lessons), nil
}

type fakeQuizRepo struct {
	quizzes map[string]*domain.FinalQuiz
}

func (r *fakeQuizRepo) GetFinalQuiz(_ context.Context, courseID string) (*domain.FinalQuiz, error) {
	q, ok := r.quizzes[courseID]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

type fakeEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]*domain.Enrollment
	order       []string // insertion order, like a collection scan
	courses     *fakeCourseRepo
	completed   *fakeCompletedRepo
	results     *fakeResultRepo
	seq         int
}

func newFakeEnrollmentRepo(courses *fakeCourseRepo, completed *fakeCompletedRepo, results *fakeResultRepo) *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		enrollments: map[string]*domain.Enrollment{},
		courses:     courses,
		completed:   completed,
		results:     results,
	}
}

func (r *fakeEnrollmentRepo) GetByID(_ context.Context, id string) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEnrollmentRepo) list(keep func(*domain.Enrollment) bool) []domain.Enrollment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Enrollment{}
	for _, id := range r.order {
		if e, ok := r.enrollments[id]; ok && keep(e) {
			out = append(out, *e)
		}
	}
	return out
}

// seed stores e as is, bypassing the unique (user, course) rule and the timestamp.
func (r *fakeEnrollmentRepo) seed(e domain.Enrollment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrollments[e.ID] = &e
	r.order = append(r.order, e.ID)
}

func (r *fakeEnrollmentRepo) GetByUserID(_ context.Context, userID string) ([]domain.Enrollment, error) {
	return r.list(func(e *domain.Enrollment) bool { return e.UserID == userID }), nil
}

func (r *fakeEnrollmentRepo) FindByUserAndCourse(_ context.Context, userID, courseID string) ([]domain.Enrollment, error) {
	return r.list(func(e *domain.Enrollment) bool { return e.UserID == userID && e.CourseID == courseID }), nil
}

func (r *fakeEnrollmentRepo) CreateWithStudentCount(_ context.Context, e *domain.Enrollment) error {
	r.courses.mu.Lock()
	defer r.courses.mu.Unlock()
	course, ok := r.courses.courses[e.CourseID]
	if !ok {
		return domain.ErrCourseNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.ID = fmt.Sprintf("enr-%d", r.seq)
	now := time.Now().UTC()
	e.EnrolledAt = &now
	cp := *e
	r.enrollments[e.ID] = &cp
	r.order = append(r.order, e.ID)
	course.Students++
	return nil
}

func (r *fakeEnrollmentRepo) DeleteCascade(_ context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.enrollments[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrEnrollmentNotFound
	}
	delete(r.enrollments, id)
	r.mu.Unlock()

	r.completed.deleteEnrollment(id)
	r.results.deleteEnrollment(id)

	r.courses.mu.Lock()
	if c, ok := r.courses.courses[e.CourseID]; ok && c.Students > 0 {
		c.Students--
	}
	r.courses.mu.Unlock()
	return nil
}

func (r *fakeEnrollmentRepo) mutate(id string, fn func(e *domain.Enrollment)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok {
		return domain.ErrEnrollmentNotFound
	}
	fn(e)
	return nil
}

func (r *fakeEnrollmentRepo) UpdateProgress(_ context.Context, id string, progress int) error {
	return r.mutate(id, func(e *domain.Enrollment) { e.Progress = progress })
}

func (r *fakeEnrollmentRepo) UpdateLastViewed(_ context.Context, id, moduleID, lessonID string) error {
	return r.mutate(id, func(e *domain.Enrollment) { e.LastModuleID, e.LastLessonID = moduleID, lessonID })
}

func (r *fakeEnrollmentRepo) UpdateCompletion(_ context.Context, id string, completed bool, finalScore float64, completedAt *time.Time) error {
	return r.mutate(id, func(e *domain.Enrollment) {
		e.Completed, e.FinalScore, e.CompletedAt = completed, finalScore, completedAt
	})
}

type fakeCompletedRepo struct {
	mu      sync.Mutex
	lessons map[string]domain.CompletedLesson // enrollmentID/lessonID
	upserts int
}

func newFakeCompletedRepo() *fakeCompletedRepo {
	return &fakeCompletedRepo{lessons: map[string]domain.CompletedLesson{}}
}

func (r *fakeCompletedRepo) GetByEnrollmentID(_ context.Context, enrollmentID string) ([]domain.CompletedLesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.CompletedLesson{}
	for _, l := range r.lessons {
		if l.EnrollmentID == enrollmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeCompletedRepo) Upsert(_ context.Context, l *domain.CompletedLesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	r.lessons[l.EnrollmentID+"/"+l.ID] = *l
	return nil
}

func (r *fakeCompletedRepo) deleteEnrollment(enrollmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.lessons {
		if strings.HasPrefix(k, enrollmentID+"/") {
			delete(r.lessons, k)
		}
	}
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results map[string]domain.QuizResult
	seq     int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: map[string]domain.QuizResult{}}
}

func (r *fakeResultRepo) GetByEnrollmentID(_ context.Context, enrollmentID string) ([]domain.QuizResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.QuizResult{}
	for _, res := range r.results {
		if res.EnrollmentID == enrollmentID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) Create(_ context.Context, result *domain.QuizResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	result.ID = fmt.Sprintf("res-%d", r.seq)
	r.results[result.ID] = *result
	return nil
}

func (r *fakeResultRepo) Update(_ context.Context, result *domain.QuizResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[result.ID]; !ok {
		return domain.ErrEnrollmentNotFound
	}
	r.results[result.ID] = *result
	return nil
}

func (r *fakeResultRepo) deleteEnrollment(enrollmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, res := range r.results {
		if res.EnrollmentID == enrollmentID {
			delete(r.results, id)
		}
	}
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	gets    int
	patches []domain.ProfilePatch
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*domain.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ExistsByNormalizedUsername(_ context.Context, normalized string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.NormalizedUsername == normalized {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) ApplyProfilePatch(_ context.Context, id string, patch domain.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.patches = append(r.patches, patch)
	applyPatch(u, patch)
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*domain.Account{}}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.accounts[a.UID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == strings.ToLower(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) GetByUID(_ context.Context, uid string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[uid]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) UpdateLastLogin(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[uid]; ok {
		now := time.Now()
		a.LastLoginAt = &now
	}
	return nil
}

func (r *fakeAccountRepo) UpdatePasswordHash(_ context.Context, uid, currentHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[uid]
	if !ok || a.PasswordHash != currentHash {
		return domain.ErrInvalidCredentials
	}
	a.PasswordHash = newHash
	return nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, uid)
	return nil
}

type published struct {
	uid  string
	user *domain.User
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *fakeNotifier) Publish(uid string, user *domain.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{uid: uid, user: user})
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type fakeGoogle struct {
	identity *domain.GoogleIdentity
	err      error
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (g *fakeGoogle) Exchange(_ context.Context, _ string) (*domain.GoogleIdentity, error) {
	return g.identity, g.err
}

type fakeAvatarStore struct {
	err      error
	uploaded []string
}

func (s *fakeAvatarStore) UploadAvatar(_ context.Context, ownerID, filename, _ string, _ int64, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	s.uploaded = append(s.uploaded, ownerID+"/"+filename)
	return "65f0c0ffee0000000000abcd", nil
}
