package catalog

import (
	"sort"
	"time"

	"codegram-backend/internal/domain"
)

const (
	SortNewest  = "newest"
	SortPopular = "popular"
	SortRating  = "rating"
)

var epoch = time.Unix(0, 0)

// Sort orders courses in place by option, descending. Equal keys fall back to
// ascending course id. An unknown option leaves the order unchanged.
func Sort(courses []domain.CourseWithAuthor, option string) {
	var less func(a, b *domain.Course) (bool, bool)
	switch option {
	case SortNewest:
		less = func(a, b *domain.Course) (bool, bool) {
			da, db := sortDate(a.AvailableFrom), sortDate(b.AvailableFrom)
			return da.After(db), da.Equal(db)
		}
	case SortPopular:
		less = func(a, b *domain.Course) (bool, bool) {
			return a.Students > b.Students, a.Students == b.Students
		}
	case SortRating:
		less = func(a, b *domain.Course) (bool, bool) {
			ra, rb := ratingValue(a.Rating), ratingValue(b.Rating)
			return ra > rb, ra == rb
		}
	default:
		return
	}

	sort.SliceStable(courses, func(i, j int) bool {
		before, tie := less(&courses[i].Course, &courses[j].Course)
		if tie {
			return courses[i].ID < courses[j].ID
		}
		return before
	})
}

// sortDate puts always-available and undated courses at the epoch.
func sortDate(availableFrom string) time.Time {
	if availableFrom == "" || IsAlwaysAvailable(availableFrom) {
		return epoch
	}
	if date, ok := ParseAvailableFrom(availableFrom); ok {
		return date
	}
	return epoch
}

func ratingValue(r domain.FlexNumber) float64 {
	v, ok := r.Float()
	if !ok {
		return 0
	}
	return v
}
