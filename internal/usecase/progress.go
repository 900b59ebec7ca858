package usecase

import (
	"math"

	"codegram-backend/internal/domain"
)

// CalculateProgress returns the course progress in percent.
//
// The final quiz always counts as one extra lesson, whether or not the course
// has a quiz document. Completed lessons are counted once per lesson id, and a
// passing final quiz result adds one completed item.
func CalculateProgress(lessonsPerModule []int, completed []domain.CompletedLesson, results []domain.QuizResult) int {
	total := 1
	for _, n := range lessonsPerModule {
		total += n
	}

	seen := make(map[string]struct{}, len(completed))
	for _, l := range completed {
		seen[l.ID] = struct{}{}
	}
	done := len(seen)
	if finalQuizPassed(results) {
		done++
	}
	if done > total {
		done = total
	}

	return int(math.Round(100 * float64(done) / float64(total)))
}

func finalQuizPassed(results []domain.QuizResult) bool {
	for _, r := range results {
		if r.IsFinalQuiz && r.Passed {
			return true
		}
	}
	return false
}
