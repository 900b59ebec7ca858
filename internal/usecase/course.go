package usecase

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"codegram-backend/internal/cache"
	"codegram-backend/internal/catalog"
	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// authorFetchLimit bounds concurrent author reads for one catalogue page.
const authorFetchLimit = 8

type courseUsecase struct {
	courseRepo domain.CourseRepository
	moduleRepo domain.ModuleRepository
	lessonRepo domain.LessonRepository
	userRepo   domain.UserRepository
	authors    cache.AuthorCache
	log        *logger.Logger
	now        func() time.Time
}

func NewCourseUsecase(
	cr domain.CourseRepository,
	mr domain.ModuleRepository,
	lr domain.LessonRepository,
	ur domain.UserRepository,
	authors cache.AuthorCache,
	log *logger.Logger,
) domain.CourseUsecase {
	return &courseUsecase{
		courseRepo: cr,
		moduleRepo: mr,
		lessonRepo: lr,
		userRepo:   ur,
		authors:    authors,
		log:        log.With("service", "courses"),
		now:        time.Now,
	}
}

// ========== CATALOGUE ==========

func (uc *courseUsecase) GetAllCourses(ctx context.Context) ([]domain.Course, error) {
	courses, err := uc.courseRepo.GetByStatus(ctx, domain.CourseStatusApproved)
	if err != nil {
		uc.log.Error("Error fetching courses", "error", err)
		return nil, domain.Wrap("Помилка при отриманні курсів", err)
	}
	return courses, nil
}

func (uc *courseUsecase) GetCoursesWithAuthors(ctx context.Context) ([]domain.CourseWithAuthor, error) {
	courses, err := uc.courseRepo.GetByStatus(ctx, domain.CourseStatusApproved)
	if err != nil {
		uc.log.Error("Error fetching courses with authors", "error", err)
		return nil, domain.Wrap("Помилка при отриманні курсів з авторами", err)
	}
	return uc.attachAuthors(ctx, courses), nil
}

// attachAuthors resolves every distinct author once, concurrently.
func (uc *courseUsecase) attachAuthors(ctx context.Context, courses []domain.Course) []domain.CourseWithAuthor {
	ids := make(map[string]struct{})
	for _, c := range courses {
		if c.AuthorID != "" {
			ids[c.AuthorID] = struct{}{}
		}
	}

	var mu sync.Mutex
	authors := make(map[string]*domain.Author, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(authorFetchLimit)
	for id := range ids {
		id := id
		g.Go(func() error {
			author := uc.GetAuthorByID(gctx, id).AuthorView()
			mu.Lock()
			authors[id] = author
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // author lookups never fail; misses become nil

	out := make([]domain.CourseWithAuthor, 0, len(courses))
	for _, c := range courses {
		out = append(out, domain.CourseWithAuthor{Course: c, Author: authors[c.AuthorID]})
	}
	return out
}

// GetAuthorByID is cache-first; nil means not found or unreadable.
func (uc *courseUsecase) GetAuthorByID(ctx context.Context, authorID string) *domain.User {
	if authorID == "" {
		return nil
	}
	if author, ok := uc.authors.Get(ctx, authorID); ok {
		return author
	}

	author, err := uc.userRepo.GetByID(ctx, authorID)
	if err != nil {
		uc.log.Warn("Error fetching author", "author_id", authorID, "error", err)
		return nil
	}
	if author == nil {
		return nil
	}
	uc.authors.Set(ctx, author)
	return author
}

func (uc *courseUsecase) GetCourseByID(ctx context.Context, courseID string) (*domain.CourseWithAuthor, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		uc.log.Error("Error fetching course", "course_id", courseID, "error", err)
		return nil, domain.Wrap("Помилка при отриманні курсу", err)
	}
	if course == nil {
		return nil, nil
	}
	return &domain.CourseWithAuthor{Course: *course, Author: uc.GetAuthorByID(ctx, course.AuthorID).AuthorView()}, nil
}

func (uc *courseUsecase) GetCourseDetail(ctx context.Context, courseID string) (*domain.CourseDetail, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		uc.log.Error("Error fetching course", "course_id", courseID, "error", err)
		return nil, domain.Wrap("Помилка при отриманні курсу", err)
	}
	if course == nil {
		return nil, nil
	}

	detail := &domain.CourseDetail{
		CourseWithAuthor: domain.CourseWithAuthor{Course: *course},
		IsAvailable:      catalog.IsAvailable(course.AvailableFrom, uc.now()),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detail.Author = uc.GetAuthorByID(gctx, course.AuthorID).AuthorView()
		return nil
	})
	g.Go(func() error {
		modules, err := uc.moduleRepo.GetByCourseID(gctx, courseID)
		detail.Modules = modules
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log.Error("Error fetching course modules", "course_id", courseID, "error", err)
		return nil, domain.Wrap("Помилка при завантаженні модулів", err)
	}
	return detail, nil
}

func (uc *courseUsecase) GetModuleLessons(ctx context.Context, courseID, moduleID string) ([]domain.Lesson, error) {
	lessons, err := uc.lessonRepo.GetByModuleID(ctx, courseID, moduleID)
	if err != nil {
		uc.log.Error("Error fetching lessons", "course_id", courseID, "module_id", moduleID, "error", err)
		return nil, domain.Wrap("Помилка при завантаженні лекцій", err)
	}
	return lessons, nil
}

func (uc *courseUsecase) GetLesson(ctx context.Context, courseID, moduleID, lessonID string) (*domain.Lesson, error) {
	lesson, err := uc.lessonRepo.GetByID(ctx, courseID, moduleID, lessonID)
	if err != nil {
		uc.log.Error("Error fetching lesson", "lesson_id", lessonID, "error", err)
		return nil, domain.Wrap("Помилка при завантаженні лекції", err)
	}
	return lesson, nil
}

func (uc *courseUsecase) BrowseCourses(ctx context.Context, query url.Values) ([]domain.CourseWithAuthor, error) {
	courses, err := uc.GetCoursesWithAuthors(ctx)
	if err != nil {
		return nil, err
	}
	filtered := catalog.Apply(courses, catalog.ParseFilters(query), uc.now(), uc.log)
	catalog.Sort(filtered, strings.TrimSpace(query.Get("sort")))
	return filtered, nil
}

// ========== AUTHORING / MODERATION ==========

func (uc *courseUsecase) GetCoursesByAuthor(ctx context.Context, authorID string) ([]domain.Course, error) {
	courses, err := uc.courseRepo.GetByAuthorID(ctx, authorID)
	if err != nil {
		uc.log.Error("Error fetching courses by author", "author_id", authorID, "error", err)
		return nil, domain.Wrap("Помилка при отриманні курсів автора", err)
	}
	return courses, nil
}

// CreateCourse stores a new course for moderation.
func (uc *courseUsecase) CreateCourse(ctx context.Context, course *domain.Course) error {
	course.ID = ""
	course.Status = domain.CourseStatusPending
	course.Students = 0
	if course.AvailableFrom == "" {
		course.AvailableFrom = domain.AlwaysAvailable
	}
	if err := uc.courseRepo.Create(ctx, course); err != nil {
		uc.log.Error("Error creating course", "author_id", course.AuthorID, "error", err)
		return domain.Wrap("Помилка при створенні курсу", err)
	}
	uc.log.Info("Course created", "course_id", course.ID, "author_id", course.AuthorID)
	return nil
}

func (uc *courseUsecase) GetPendingCourses(ctx context.Context) ([]domain.Course, error) {
	courses, err := uc.courseRepo.GetByStatus(ctx, domain.CourseStatusPending)
	if err != nil {
		uc.log.Error("Error fetching pending courses", "error", err)
		return nil, domain.Wrap("Помилка при отриманні курсів на перевірці", err)
	}
	return courses, nil
}

func (uc *courseUsecase) UpdateCourseStatus(ctx context.Context, courseID string, status domain.CourseStatus) error {
	if status != domain.CourseStatusPending && status != domain.CourseStatusApproved {
		return domain.Wrap("Помилка при оновленні статусу курсу", domain.ErrInvalidInput)
	}
	if err := uc.courseRepo.UpdateStatus(ctx, courseID, status); err != nil {
		uc.log.Error("Error updating course status", "course_id", courseID, "error", err)
		return domain.Wrap("Помилка при оновленні статусу курсу", err)
	}
	uc.log.Info("Course status updated", "course_id", courseID, "status", status)
	return nil
}
