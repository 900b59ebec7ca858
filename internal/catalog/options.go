package catalog

// Option is one selectable value of a filter category.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// OptionSet is the catalogue of filter and sort options served to clients.
type OptionSet struct {
	Topics       []Option `json:"topics"`
	Technologies []Option `json:"technologies"`
	CourseType   []Option `json:"courseType"`
	Difficulty   []Option `json:"difficulty"`
	Rating       []Option `json:"rating"`
	Duration     []Option `json:"duration"`
	Language     []Option `json:"language"`
	Availability []Option `json:"availability"`
	Sort         []Option `json:"sort"`
}

var FilterOptions = OptionSet{
	Topics: []Option{
		{"programming", "Програмування"},
		{"design", "Дизайн"},
		{"marketing", "Маркетинг"},
		{"project-management", "Управління проектами"},
		{"ai", "Штучний інтелект"},
		{"ux-ui", "UX/UI"},
		{"data-science", "Data Science"},
		{"frontend-backend", "Frontend / Backend"},
		{"game-dev", "Розробка ігор"},
		{"devops", "DevOps"},
		{"seo-smm", "SEO / SMM"},
	},
	Technologies: []Option{
		{"javascript", "JavaScript / TypeScript"},
		{"python", "Python"},
		{"csharp", "C# / .NET"},
		{"java", "Java"},
		{"php", "PHP"},
		{"frontend-frameworks", "Vue / React / Angular"},
		{"design-tools", "Figma / Adobe XD"},
		{"game-engines", "Unity / Unreal"},
		{"wordpress", "WordPress"},
	},
	CourseType: []Option{
		{"codegram", "Розробка Codegram"},
		{courseTypeUser, "Користувацький"},
	},
	Difficulty: []Option{
		{"beginner", "Початковий (beginner)"},
		{"intermediate", "Середній (intermediate)"},
		{"advanced", "Просунутий (advanced)"},
	},
	Rating: []Option{
		{"rating-5", "Від 5 зірок"},
		{"rating-4", "Від 4 зірок"},
		{"rating-3", "Від 3 зірок"},
		{RatingNone, "Без рейтингу"},
	},
	Duration: []Option{
		{DurationUpTo5, "До 5 годин"},
		{DurationUpTo10, "До 10 годин"},
		{DurationOver10, "10+ годин"},
	},
	Language: []Option{
		{LanguageUkr, "Українська"},
		{LanguageEng, "Англійська"},
		{LanguageOther, "Інші мови"},
	},
	Availability: []Option{
		{AvailableNow, "Доступний зараз"},
		{ComingSoon, "Очікується скоро"},
		{AlwaysAvailable, "Завжди доступний"},
	},
	Sort: []Option{
		{SortNewest, "Найновіші"},
		{SortPopular, "Найпопулярніші"},
		{SortRating, "За рейтингом"},
	},
}
