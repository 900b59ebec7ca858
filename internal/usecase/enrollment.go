package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ProgressUpdater recomputes and stores an enrollment's progress.
type ProgressUpdater interface {
	UpdateProgress(ctx context.Context, enrollmentID string) (int, error)
}

type enrollmentUsecase struct {
	enrollmentRepo domain.EnrollmentRepository
	completedRepo  domain.CompletedLessonRepository
	resultRepo     domain.QuizResultRepository
	courseRepo     domain.CourseRepository
	moduleRepo     domain.ModuleRepository
	lessonRepo     domain.LessonRepository
	courses        domain.CourseUsecase
	log            *logger.Logger
}

func NewEnrollmentUsecase(
	er domain.EnrollmentRepository,
	clr domain.CompletedLessonRepository,
	qrr domain.QuizResultRepository,
	cr domain.CourseRepository,
	mr domain.ModuleRepository,
	lr domain.LessonRepository,
	courses domain.CourseUsecase,
	log *logger.Logger,
) domain.EnrollmentUsecase {
	return &enrollmentUsecase{
		enrollmentRepo: er,
		completedRepo:  clr,
		resultRepo:     qrr,
		courseRepo:     cr,
		moduleRepo:     mr,
		lessonRepo:     lr,
		courses:        courses,
		log:            log.With("service", "enrollments"),
	}
}

func enrolledAt(e domain.Enrollment) time.Time {
	if e.EnrolledAt == nil {
		return time.Unix(0, 0)
	}
	return *e.EnrolledAt
}

// GetUserEnrollments returns newest first; enrollments without a timestamp sort last.
func (uc *enrollmentUsecase) GetUserEnrollments(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	enrollments, err := uc.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		uc.log.Error("Error fetching user enrollments", "user_id", userID, "error", err)
		return nil, domain.Wrap("Помилка при отриманні записів користувача", err)
	}
	sort.SliceStable(enrollments, func(i, j int) bool {
		return enrolledAt(enrollments[i]).After(enrolledAt(enrollments[j]))
	})
	return enrollments, nil
}

// GetEnrolledCourses builds the "my courses" cards with a resume link.
func (uc *enrollmentUsecase) GetEnrolledCourses(ctx context.Context, userID string) ([]domain.EnrolledCourse, error) {
	enrollments, err := uc.GetUserEnrollments(ctx, userID)
	if err != nil {
		return nil, err
	}

	cards := make([]*domain.EnrolledCourse, len(enrollments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(authorFetchLimit)
	for i, e := range enrollments {
		i, e := i, e
		g.Go(func() error {
			course, err := uc.courses.GetCourseByID(gctx, e.CourseID)
			if err != nil {
				return err
			}
			if course == nil {
				uc.log.Warn("Enrollment references a missing course", "enrollment_id", e.ID, "course_id", e.CourseID)
				return nil
			}
			cards[i] = &domain.EnrolledCourse{
				CourseWithAuthor: *course,
				EnrollmentID:     e.ID,
				Progress:         e.Progress,
				Completed:        e.Completed,
				LastModuleID:     e.LastModuleID,
				LastLessonID:     e.LastLessonID,
				ContinueLink:     ContinueLink(e),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.log.Error("Error fetching enrolled courses", "user_id", userID, "error", err)
		return nil, domain.Wrap("Помилка при завантаженні курсів", err)
	}

	out := make([]domain.EnrolledCourse, 0, len(cards))
	for _, c := range cards {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// ContinueLink points at the last viewed lesson, or at the course page.
func ContinueLink(e domain.Enrollment) string {
	if e.LastModuleID != "" && e.LastLessonID != "" {
		return fmt.Sprintf("/courses/%s/modules/%s/lessons/%s", e.CourseID, e.LastModuleID, e.LastLessonID)
	}
	return "/courses/" + e.CourseID
}

// CheckEnrollment uses the first match if the store ever holds duplicates.
func (uc *enrollmentUsecase) CheckEnrollment(ctx context.Context, userID, courseID string) (*domain.EnrollmentCheck, error) {
	matches, err := uc.enrollmentRepo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		uc.log.Error("Error checking enrollment", "user_id", userID, "course_id", courseID, "error", err)
		return nil, domain.Wrap("Помилка при перевірці запису на курс", err)
	}
	if len(matches) == 0 {
		return &domain.EnrollmentCheck{IsEnrolled: false}, nil
	}
	if len(matches) > 1 {
		uc.log.Warn("Duplicate enrollments", "user_id", userID, "course_id", courseID, "count", len(matches))
	}
	return &domain.EnrollmentCheck{IsEnrolled: true, Enrollment: &matches[0]}, nil
}

// EnrollCourse is idempotent. A new enrollment and the course's students
// increment are written in one transaction.
func (uc *enrollmentUsecase) EnrollCourse(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	const msg = "Помилка при записі на курс"

	check, err := uc.CheckEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if check.IsEnrolled {
		return check.Enrollment, nil
	}

	enrollment := &domain.Enrollment{
		UserID:   userID,
		CourseID: courseID,
	}
	err = uc.enrollmentRepo.CreateWithStudentCount(ctx, enrollment)
	if errors.Is(err, domain.ErrAlreadyEnrolled) {
		// lost a race with a concurrent enroll of the same user
		check, err = uc.CheckEnrollment(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if check.IsEnrolled {
			return check.Enrollment, nil
		}
		return nil, domain.Wrap(msg, domain.ErrAlreadyEnrolled)
	}
	if err != nil {
		uc.log.Error("Error enrolling", "user_id", userID, "course_id", courseID, "error", err)
		return nil, domain.Wrap(msg, err)
	}

	uc.log.Info("User enrolled", "user_id", userID, "course_id", courseID, "enrollment_id", enrollment.ID)
	return enrollment, nil
}

func (uc *enrollmentUsecase) GetEnrollment(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	enrollment, err := uc.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching enrollment", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap("Помилка при отриманні запису", err)
	}
	return enrollment, nil
}

func (uc *enrollmentUsecase) GetCompletedLessons(ctx context.Context, enrollmentID string) ([]domain.CompletedLesson, error) {
	lessons, err := uc.completedRepo.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching completed lessons", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap("Помилка при отриманні виконаних уроків", err)
	}
	return lessons, nil
}

func (uc *enrollmentUsecase) IsLessonCompleted(ctx context.Context, enrollmentID, lessonID string) (bool, error) {
	lessons, err := uc.GetCompletedLessons(ctx, enrollmentID)
	if err != nil {
		return false, err
	}
	return findCompleted(lessons, "", lessonID) != nil, nil
}

// findCompleted matches by lesson id and, when moduleID is set, by module.
func findCompleted(lessons []domain.CompletedLesson, moduleID, lessonID string) *domain.CompletedLesson {
	for i := range lessons {
		if lessons[i].ID == lessonID && (moduleID == "" || lessons[i].ModuleID == moduleID) {
			return &lessons[i]
		}
	}
	return nil
}

// CompleteLesson is idempotent; only a first completion recomputes progress.
func (uc *enrollmentUsecase) CompleteLesson(ctx context.Context, enrollmentID, moduleID, lessonID string) (*domain.CompletedLesson, error) {
	const msg = "Помилка при позначенні уроку як виконаного"

	done, err := uc.completedRepo.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching completed lessons", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if existing := findCompleted(done, moduleID, lessonID); existing != nil {
		return existing, nil
	}

	lesson := &domain.CompletedLesson{
		ID:           lessonID,
		EnrollmentID: enrollmentID,
		ModuleID:     moduleID,
		CompletedAt:  time.Now().UTC(),
	}
	if err := uc.completedRepo.Upsert(ctx, lesson); err != nil {
		uc.log.Error("Error completing lesson", "enrollment_id", enrollmentID, "lesson_id", lessonID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if _, err := uc.UpdateProgress(ctx, enrollmentID); err != nil {
		return nil, domain.Wrap(msg, err)
	}
	return lesson, nil
}

// UpdateProgress recomputes progress from the course structure and the
// enrollment's completed lessons and quiz results.
func (uc *enrollmentUsecase) UpdateProgress(ctx context.Context, enrollmentID string) (int, error) {
	const msg = "Помилка при оновленні прогресу"

	enrollment, err := uc.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching enrollment", "enrollment_id", enrollmentID, "error", err)
		return 0, domain.Wrap(msg, err)
	}
	if enrollment == nil {
		return 0, domain.Wrap(msg, domain.ErrEnrollmentNotFound)
	}

	modules, err := uc.moduleRepo.GetByCourseID(ctx, enrollment.CourseID)
	if err != nil {
		uc.log.Error("Error fetching modules", "course_id", enrollment.CourseID, "error", err)
		return 0, domain.Wrap(msg, err)
	}

	var (
		lessonCounts = make([]int, len(modules))
		completed    []domain.CompletedLesson
		results      []domain.QuizResult
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range modules {
		i, m := i, m
		g.Go(func() error {
			n, err := uc.lessonRepo.CountByModuleID(gctx, enrollment.CourseID, m.ID)
			lessonCounts[i] = n
			return err
		})
	}
	g.Go(func() error {
		var err error
		completed, err = uc.completedRepo.GetByEnrollmentID(gctx, enrollmentID)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = uc.resultRepo.GetByEnrollmentID(gctx, enrollmentID)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log.Error("Error reading progress inputs", "enrollment_id", enrollmentID, "error", err)
		return 0, domain.Wrap(msg, err)
	}

	progress := CalculateProgress(lessonCounts, completed, results)
	if err := uc.enrollmentRepo.UpdateProgress(ctx, enrollmentID, progress); err != nil {
		uc.log.Error("Error saving progress", "enrollment_id", enrollmentID, "error", err)
		return 0, domain.Wrap(msg, err)
	}
	uc.log.Debug("Progress updated", "enrollment_id", enrollmentID, "progress", progress)
	return progress, nil
}

// UpdateLastViewedLesson moves the resume pointer without checking that the
// lesson belongs to the course.
func (uc *enrollmentUsecase) UpdateLastViewedLesson(ctx context.Context, enrollmentID, moduleID, lessonID string) error {
	if err := uc.enrollmentRepo.UpdateLastViewed(ctx, enrollmentID, moduleID, lessonID); err != nil {
		uc.log.Error("Error updating last viewed lesson", "enrollment_id", enrollmentID, "error", err)
		return domain.Wrap("Помилка при оновленні останнього переглянутого уроку", err)
	}
	return nil
}

// CancelEnrollment deletes the enrollment with its completed lessons and quiz
// results and gives the course its student back.
func (uc *enrollmentUsecase) CancelEnrollment(ctx context.Context, enrollmentID string) error {
	if err := uc.enrollmentRepo.DeleteCascade(ctx, enrollmentID); err != nil {
		uc.log.Error("Error cancelling enrollment", "enrollment_id", enrollmentID, "error", err)
		return domain.Wrap("Помилка при скасуванні запису на курс", err)
	}
	uc.log.Info("Enrollment cancelled", "enrollment_id", enrollmentID)
	return nil
}

func (uc *enrollmentUsecase) GetLessonPage(ctx context.Context, userID, courseID, moduleID, lessonID string) (*domain.LessonPage, error) {
	const msg = "Помилка при завантаженні лекції"

	check, err := uc.CheckEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !check.IsEnrolled {
		return nil, domain.Wrap(msg, domain.ErrForbidden)
	}
	enrollment := check.Enrollment

	page := &domain.LessonPage{Enrollment: enrollment}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page.Course, err = uc.courseRepo.GetByID(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		page.Lesson, err = uc.lessonRepo.GetByID(gctx, courseID, moduleID, lessonID)
		return err
	})
	g.Go(func() error {
		var err error
		page.CompletedLessons, err = uc.completedRepo.GetByEnrollmentID(gctx, enrollment.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log.Error("Error loading lesson page", "course_id", courseID, "lesson_id", lessonID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if page.Course == nil {
		return nil, domain.Wrap(msg, domain.ErrCourseNotFound)
	}
	if page.Lesson == nil {
		return nil, nil
	}
	page.IsCompleted = findCompleted(page.CompletedLessons, moduleID, lessonID) != nil

	if err := uc.UpdateLastViewedLesson(ctx, enrollment.ID, moduleID, lessonID); err != nil {
		uc.log.Warn("Resume pointer not saved", "enrollment_id", enrollment.ID, "error", err)
	} else {
		enrollment.LastModuleID, enrollment.LastLessonID = moduleID, lessonID
	}
	return page, nil
}
