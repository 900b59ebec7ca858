package usecase

import (
	"testing"

	"codegram-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func lessons(ids ...string) []domain.CompletedLesson {
	out := make([]domain.CompletedLesson, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.CompletedLesson{ID: id})
	}
	return out
}

func TestCalculateProgress(t *testing.T) {
	passed := []domain.QuizResult{{IsFinalQuiz: true, Passed: true}}
	failed := []domain.QuizResult{{IsFinalQuiz: true, Passed: false, Score: 90}}

	tests := []struct {
		name    string
		modules []int
		done    []domain.CompletedLesson
		results []domain.QuizResult
		want    int
	}{
		{"three of five lessons plus quiz", []int{3, 2}, lessons("l1", "l2", "l3"), nil, 50},
		{"failed quiz does not count", []int{3, 2}, lessons("l1", "l2", "l3"), failed, 50},
		{"everything done", []int{3, 2}, lessons("l1", "l2", "l3", "l4", "l5"), passed, 100},
		{"duplicates counted once", []int{3, 2}, lessons("l1", "l1", "l1"), nil, 17},
		{"course without lessons", nil, nil, nil, 0},
		{"quiz only", nil, nil, passed, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateProgress(tt.modules, tt.done, tt.results))
		})
	}
}
