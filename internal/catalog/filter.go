// Package catalog derives the displayed course list from the full catalogue,
// a search term and the selected filter options.
package catalog

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"
)

// Filter option ids.
const (
	RatingNone = "rating-0"

	DurationUpTo5   = "duration-5"
	DurationUpTo10  = "duration-10"
	DurationOver10  = "duration-10plus"
	LanguageUkr     = "ukrainian"
	LanguageEng     = "english"
	LanguageOther   = "other"
	AvailableNow    = "available-now"
	ComingSoon      = "coming-soon"
	AlwaysAvailable = "always-available"

	courseTypeUser = "user"
)

// Filters is the active filter state. Categories are ANDed; selections within
// a category are ORed. Empty categories do not filter.
type Filters struct {
	Search       string   `json:"search"`
	Topics       []string `json:"topics"`
	Technologies []string `json:"technologies"`
	CourseType   []string `json:"courseType"`
	Difficulty   []string `json:"difficulty"`
	Rating       string   `json:"rating"`
	Duration     []string `json:"duration"`
	Language     []string `json:"language"`
	Availability []string `json:"availability"`
}

// ParseFilters reads filters from a query string. List parameters may be
// repeated or comma separated.
func ParseFilters(q url.Values) Filters {
	return Filters{
		Search:       strings.TrimSpace(q.Get("search")),
		Topics:       listParam(q, "topics"),
		Technologies: listParam(q, "technologies"),
		CourseType:   listParam(q, "courseType"),
		Difficulty:   listParam(q, "difficulty"),
		Rating:       strings.TrimSpace(q.Get("rating")),
		Duration:     listParam(q, "duration"),
		Language:     listParam(q, "language"),
		Availability: listParam(q, "availability"),
	}
}

func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Apply returns the courses matching f, in input order. now decides the
// availability buckets; log receives unparseable availability dates.
func Apply(courses []domain.CourseWithAuthor, f Filters, now time.Time, log *logger.Logger) []domain.CourseWithAuthor {
	if log == nil {
		log = logger.Nop()
	}
	search := strings.ToLower(f.Search)

	out := make([]domain.CourseWithAuthor, 0, len(courses))
	for _, c := range courses {
		switch {
		case search != "" && !matchSearch(&c.Course, search):
		case len(f.Topics) > 0 && !intersects(c.Topics, f.Topics):
		case len(f.Technologies) > 0 && !intersects(c.Technologies, f.Technologies):
		case len(f.CourseType) > 0 && !matchCourseType(c.CourseType, f.CourseType):
		case len(f.Difficulty) > 0 && !contains(f.Difficulty, c.Level):
		case f.Rating != "" && !matchRating(c.Rating, f.Rating):
		case len(f.Duration) > 0 && !matchDuration(c.Duration, f.Duration):
		case len(f.Language) > 0 && !matchLanguage(c.Language, f.Language):
		case len(f.Availability) > 0 && !matchAvailability(&c.Course, f.Availability, now, log):
		default:
			out = append(out, c)
		}
	}
	return out
}

func matchSearch(c *domain.Course, lowered string) bool {
	return strings.Contains(strings.ToLower(c.Title), lowered) ||
		strings.Contains(strings.ToLower(c.Description), lowered)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(tags, selected []string) bool {
	for _, s := range selected {
		if contains(tags, s) {
			return true
		}
	}
	return false
}

func matchCourseType(courseType string, selected []string) bool {
	if courseType == courseTypeUser && contains(selected, courseTypeUser) {
		return true
	}
	return contains(selected, courseType)
}

// matchRating: rating-0 selects unrated courses (absent, null, 0, "0" or "");
// rating-N selects numeric ratings >= N.
func matchRating(rating domain.FlexNumber, option string) bool {
	if option == RatingNone {
		if !rating.Present() {
			return true
		}
		if rating.IsString() {
			return rating.Raw() == "" || rating.Raw() == "0"
		}
		v, _ := rating.Float()
		return v == 0
	}

	idx := strings.LastIndex(option, "-")
	if idx < 0 {
		return false
	}
	threshold, err := strconv.Atoi(option[idx+1:])
	if err != nil {
		return false
	}
	v, ok := rating.Float()
	return ok && v >= float64(threshold)
}

func matchDuration(duration domain.FlexNumber, selected []string) bool {
	hours, ok := duration.Float()
	if !ok || hours == 0 {
		return false
	}
	for _, bucket := range selected {
		switch bucket {
		case DurationUpTo5:
			if hours <= 5 {
				return true
			}
		case DurationUpTo10:
			if hours <= 10 {
				return true
			}
		case DurationOver10:
			if hours > 10 {
				return true
			}
		}
	}
	return false
}

// languageGroup maps a stored language label to ukrainian, english or other.
func languageGroup(language string) string {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "українська", "ukrainian":
		return LanguageUkr
	case "англійська", "english":
		return LanguageEng
	default:
		return LanguageOther
	}
}

func matchLanguage(language string, selected []string) bool {
	if language == "" {
		return false
	}
	return contains(selected, languageGroup(language))
}

// IsAlwaysAvailable reports whether availableFrom holds the no-start-date sentinel.
func IsAlwaysAvailable(availableFrom string) bool {
	v := strings.TrimSpace(availableFrom)
	return v == domain.AlwaysAvailable || strings.EqualFold(v, "always available")
}

// ParseAvailableFrom parses a DD.MM.YYYY date as local midnight.
func ParseAvailableFrom(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

// IsAvailable reports whether a course can be started at now.
func IsAvailable(availableFrom string, now time.Time) bool {
	if availableFrom == "" || IsAlwaysAvailable(availableFrom) {
		return true
	}
	date, ok := ParseAvailableFrom(availableFrom)
	return ok && !date.After(now)
}

func matchAvailability(c *domain.Course, selected []string, now time.Time, log *logger.Logger) bool {
	if c.AvailableFrom == "" {
		return false
	}
	if IsAlwaysAvailable(c.AvailableFrom) {
		return contains(selected, AlwaysAvailable)
	}

	date, ok := ParseAvailableFrom(c.AvailableFrom)
	if !ok {
		log.Warn("Unparseable course availability date", "course_id", c.ID, "available_from", c.AvailableFrom)
		return false
	}
	if contains(selected, AvailableNow) && !date.After(now) {
		return true
	}
	return contains(selected, ComingSoon) && date.After(now)
}
