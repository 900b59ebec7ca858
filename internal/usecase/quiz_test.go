package usecase

import (
	"context"
	"testing"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressCounter struct {
	calls int
}

func (p *progressCounter) UpdateProgress(_ context.Context, _ string) (int, error) {
	p.calls++
	return 0, nil
}

type quizFixture struct {
	enrollments *fakeEnrollmentRepo
	results     *fakeResultRepo
	progress    *progressCounter
	uc          *quizUsecase
	enrollment  *domain.Enrollment
}

func newQuizFixture(t *testing.T, courses *fakeCourseRepo, quizzes map[string]*domain.FinalQuiz) *quizFixture {
	t.Helper()
	completed := newFakeCompletedRepo()
	results := newFakeResultRepo()
	enrollments := newFakeEnrollmentRepo(courses, completed, results)
	progress := &progressCounter{}

	uc := NewQuizUsecase(&fakeQuizRepo{quizzes: quizzes}, courses, results, enrollments, progress, logger.Nop()).(*quizUsecase)
	uc.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }

	e := &domain.Enrollment{UserID: "u1", CourseID: "c1"}
	require.NoError(t, enrollments.CreateWithStudentCount(context.Background(), e))
	return &quizFixture{enrollments: enrollments, results: results, progress: progress, uc: uc, enrollment: e}
}

func TestUpdateCourseCompletionStatus(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		passed    bool
		completed bool
	}{
		{"high score not marked passed", 90, false, false},
		{"exactly passing", 60, true, true},
		{"below passing", 59, true, false},
		{"perfect", 100, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuizFixture(t, newFakeCourseRepo(domain.Course{ID: "c1"}), nil)
			ctx := context.Background()

			_, err := f.uc.SaveQuizResult(ctx, f.enrollment.ID, domain.QuizSubmission{Score: tt.score, Passed: tt.passed})
			require.NoError(t, err)

			status, err := f.uc.UpdateCourseCompletionStatus(ctx, f.enrollment.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.completed, status.Completed)
			assert.Equal(t, tt.score, status.FinalScore)

			stored, err := f.enrollments.GetByID(ctx, f.enrollment.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.completed, stored.Completed)
			if tt.completed {
				assert.NotNil(t, stored.CompletedAt)
			} else {
				assert.Nil(t, stored.CompletedAt)
			}
		})
	}
}

func TestUpdateCourseCompletionStatus_NoResult(t *testing.T) {
	f := newQuizFixture(t, newFakeCourseRepo(domain.Course{ID: "c1"}), nil)

	status, err := f.uc.UpdateCourseCompletionStatus(context.Background(), f.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, &domain.CompletionStatus{ID: f.enrollment.ID}, status)

	_, err = f.uc.UpdateCourseCompletionStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEnrollmentNotFound)
}

func TestSaveQuizResult_CountsAttempts(t *testing.T) {
	f := newQuizFixture(t, newFakeCourseRepo(domain.Course{ID: "c1"}), nil)
	ctx := context.Background()

	first, err := f.uc.SaveQuizResult(ctx, f.enrollment.ID, domain.QuizSubmission{Score: 40})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempts)

	second, err := f.uc.SaveQuizResult(ctx, f.enrollment.ID, domain.QuizSubmission{Score: 75, Passed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempts)
	assert.Equal(t, first.ID, second.ID)

	results, err := f.uc.GetQuizResults(ctx, f.enrollment.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, float64(75), results[0].Score)
	assert.True(t, results[0].IsFinalQuiz)
}

func TestSubmitFinalQuiz_RefreshesProgress(t *testing.T) {
	f := newQuizFixture(t, newFakeCourseRepo(domain.Course{ID: "c1"}), nil)

	status, err := f.uc.SubmitFinalQuiz(context.Background(), f.enrollment.ID, domain.QuizSubmission{Score: 85, Passed: true})
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, 1, f.progress.calls)
}

func TestGetFinalQuiz(t *testing.T) {
	embedded := &domain.FinalQuiz{Title: "Legacy", Questions: []domain.QuizQuestion{{Text: "?", Options: []string{"a", "b"}}}}
	courses := newFakeCourseRepo(
		domain.Course{ID: "c1"},
		domain.Course{ID: "c2", FinalQuiz: embedded},
		domain.Course{ID: "c3"},
	)
	quizzes := map[string]*domain.FinalQuiz{"c1": {ID: "q1", CourseID: "c1", Title: "Final"}}
	f := newQuizFixture(t, courses, quizzes)
	ctx := context.Background()

	q, err := f.uc.GetFinalQuiz(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID)
	assert.True(t, q.IsFinalQuiz)

	q, err = f.uc.GetFinalQuiz(ctx, "c2")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, embeddedQuizID, q.ID)
	assert.Equal(t, "c2", q.CourseID)
	assert.Equal(t, "Legacy", q.Title)
	assert.True(t, q.IsFinalQuiz)

	q, err = f.uc.GetFinalQuiz(ctx, "c3")
	require.NoError(t, err)
	assert.Nil(t, q)
}
