package usecase

import (
	"context"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"
)

const (
	// PassingScore is the minimum final quiz score that completes a course.
	PassingScore = 60

	embeddedQuizID = "embedded-final-quiz"
)

type quizUsecase struct {
	quizRepo       domain.QuizRepository
	courseRepo     domain.CourseRepository
	resultRepo     domain.QuizResultRepository
	enrollmentRepo domain.EnrollmentRepository
	progress       ProgressUpdater
	log            *logger.Logger
	now            func() time.Time
}

func NewQuizUsecase(
	qr domain.QuizRepository,
	cr domain.CourseRepository,
	qrr domain.QuizResultRepository,
	er domain.EnrollmentRepository,
	progress ProgressUpdater,
	log *logger.Logger,
) domain.QuizUsecase {
	return &quizUsecase{
		quizRepo:       qr,
		courseRepo:     cr,
		resultRepo:     qrr,
		enrollmentRepo: er,
		progress:       progress,
		log:            log.With("service", "quizzes"),
		now:            time.Now,
	}
}

// GetFinalQuiz prefers the finalQuizzes document and falls back to the quiz
// embedded in the course. (nil, nil) when the course has neither.
func (uc *quizUsecase) GetFinalQuiz(ctx context.Context, courseID string) (*domain.FinalQuiz, error) {
	const msg = "Помилка при отриманні фінального тесту"

	quiz, err := uc.quizRepo.GetFinalQuiz(ctx, courseID)
	if err != nil {
		uc.log.Error("Error fetching final quiz", "course_id", courseID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if quiz != nil {
		quiz.IsFinalQuiz = true
		return quiz, nil
	}

	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		uc.log.Error("Error fetching course for embedded quiz", "course_id", courseID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if course == nil || course.FinalQuiz == nil {
		return nil, nil
	}
	embedded := *course.FinalQuiz
	embedded.ID = embeddedQuizID
	embedded.CourseID = courseID
	embedded.IsFinalQuiz = true
	return &embedded, nil
}

func (uc *quizUsecase) GetQuizResults(ctx context.Context, enrollmentID string) ([]domain.QuizResult, error) {
	results, err := uc.resultRepo.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching quiz results", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap("Помилка при отриманні результатів тестів", err)
	}
	return results, nil
}

func finalResult(results []domain.QuizResult) *domain.QuizResult {
	for i := range results {
		if results[i].IsFinalQuiz {
			return &results[i]
		}
	}
	return nil
}

// SaveQuizResult keeps a single final quiz result per enrollment; a
// resubmission overwrites it and bumps Attempts.
func (uc *quizUsecase) SaveQuizResult(ctx context.Context, enrollmentID string, submission domain.QuizSubmission) (*domain.QuizResult, error) {
	const msg = "Помилка при збереженні результату тесту"

	results, err := uc.resultRepo.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching quiz results", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap(msg, err)
	}

	result := &domain.QuizResult{
		EnrollmentID: enrollmentID,
		Score:        submission.Score,
		Passed:       submission.Passed,
		IsFinalQuiz:  true,
		Attempts:     1,
		Answers:      submission.Answers,
		CompletedAt:  uc.now().UTC(),
	}

	if existing := finalResult(results); existing != nil {
		result.ID = existing.ID
		result.Attempts = existing.Attempts + 1
		err = uc.resultRepo.Update(ctx, result)
	} else {
		err = uc.resultRepo.Create(ctx, result)
	}
	if err != nil {
		uc.log.Error("Error saving quiz result", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap(msg, err)
	}

	uc.log.Info("Quiz result saved", "enrollment_id", enrollmentID, "score", result.Score, "attempts", result.Attempts)
	return result, nil
}

// UpdateCourseCompletionStatus completes the course only when the final quiz
// score is at least PassingScore and the result is marked passed.
func (uc *quizUsecase) UpdateCourseCompletionStatus(ctx context.Context, enrollmentID string) (*domain.CompletionStatus, error) {
	const msg = "Помилка при оновленні статусу проходження курсу"

	enrollment, err := uc.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching enrollment", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if enrollment == nil {
		return nil, domain.Wrap(msg, domain.ErrEnrollmentNotFound)
	}

	results, err := uc.resultRepo.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		uc.log.Error("Error fetching quiz results", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	result := finalResult(results)
	if result == nil {
		return &domain.CompletionStatus{ID: enrollmentID}, nil
	}

	completed := result.Score >= PassingScore && result.Passed
	var completedAt *time.Time
	if completed {
		t := uc.now().UTC()
		completedAt = &t
	}
	if err := uc.enrollmentRepo.UpdateCompletion(ctx, enrollmentID, completed, result.Score, completedAt); err != nil {
		uc.log.Error("Error updating completion status", "enrollment_id", enrollmentID, "error", err)
		return nil, domain.Wrap(msg, err)
	}

	return &domain.CompletionStatus{ID: enrollmentID, Completed: completed, FinalScore: result.Score}, nil
}

// SubmitFinalQuiz saves the result, then refreshes completion and progress.
func (uc *quizUsecase) SubmitFinalQuiz(ctx context.Context, enrollmentID string, submission domain.QuizSubmission) (*domain.CompletionStatus, error) {
	if _, err := uc.SaveQuizResult(ctx, enrollmentID, submission); err != nil {
		return nil, err
	}
	status, err := uc.UpdateCourseCompletionStatus(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.progress.UpdateProgress(ctx, enrollmentID); err != nil {
		return nil, err
	}
	return status, nil
}
