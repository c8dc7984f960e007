package achievement

// Category groups achievements for display
type Category string

const (
	CategoryLearning   Category = "learning"
	CategoryStreak     Category = "streak"
	CategoryVocabulary Category = "vocabulary"
	CategoryReading    Category = "reading"
	CategoryMilestone  Category = "milestone"
)

// Counter names persisted next to the XP ledger and read by unlock rules
const (
	CounterStreakDays        = "streak_days"
	CounterQuizzesCompleted  = "quizzes_completed"
	CounterWordsFavorited    = "words_favorited"
	CounterPDFsOpened        = "pdfs_opened"
	CounterFlashcardsFlipped = "flashcards_flipped"
)

// Achievement is an immutable catalog entry
type Achievement struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	XPReward    int64    `json:"xp_reward"`
	Category    Category `json:"category"`
}

// Rule pairs an achievement with its unlock predicate. Predicates must be pure.
type Rule struct {
	Achievement
	Unlocked func(Stats) bool
}

func counterAtLeast(name string, n int64) func(Stats) bool {
	return func(s Stats) bool { return s.Counter(name) >= n }
}

func levelAtLeast(n int) func(Stats) bool {
	return func(s Stats) bool { return s.Level >= n }
}

// rules is the static catalog, in evaluation order
var rules = []Rule{
	{Achievement{"first_quiz", "First Steps", "Complete your first quiz", 10, CategoryLearning},
		counterAtLeast(CounterQuizzesCompleted, 1)},
	{Achievement{"quiz_enthusiast", "Quiz Enthusiast", "Complete 10 quizzes", 50, CategoryLearning},
		counterAtLeast(CounterQuizzesCompleted, 10)},
	{Achievement{"quiz_master", "Quiz Master", "Complete 50 quizzes", 200, CategoryLearning},
		counterAtLeast(CounterQuizzesCompleted, 50)},
	{Achievement{"card_shark", "Card Shark", "Flip 100 flashcards", 50, CategoryLearning},
		counterAtLeast(CounterFlashcardsFlipped, 100)},
	{Achievement{"streak_3", "On a Roll", "Study 3 days in a row", 30, CategoryStreak},
		counterAtLeast(CounterStreakDays, 3)},
	{Achievement{"streak_7", "Week Warrior", "Study 7 days in a row", 70, CategoryStreak},
		counterAtLeast(CounterStreakDays, 7)},
	{Achievement{"streak_30", "Monthly Devotion", "Study 30 days in a row", 300, CategoryStreak},
		counterAtLeast(CounterStreakDays, 30)},
	{Achievement{"first_favorite", "Word Collector", "Save your first favorite word", 10, CategoryVocabulary},
		counterAtLeast(CounterWordsFavorited, 1)},
	{Achievement{"vocab_builder", "Vocabulary Builder", "Save 50 favorite words", 100, CategoryVocabulary},
		counterAtLeast(CounterWordsFavorited, 50)},
	{Achievement{"first_pdf", "Bookworm", "Open your first ebook", 10, CategoryReading},
		counterAtLeast(CounterPDFsOpened, 1)},
	{Achievement{"avid_reader", "Avid Reader", "Open 10 ebooks", 100, CategoryReading},
		counterAtLeast(CounterPDFsOpened, 10)},
	{Achievement{"level_5", "Rising Star", "Reach level 5", 50, CategoryMilestone},
		levelAtLeast(5)},
	{Achievement{"level_10", "Scholar", "Reach level 10", 100, CategoryMilestone},
		levelAtLeast(10)},
}

var byID = func() map[string]Achievement {
	m := make(map[string]Achievement, len(rules))
	for _, r := range rules {
		m[r.ID] = r.Achievement
	}
	return m
}()

// Catalog returns all achievements in catalog order
func Catalog() []Achievement {
	res := make([]Achievement, 0, len(rules))
	for _, r := range rules {
		res = append(res, r.Achievement)
	}
	return res
}

// Rules returns a copy of the built-in unlock rules
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// Lookup finds a catalog entry by id
func Lookup(id string) (Achievement, bool) {
	a, ok := byID[id]
	return a, ok
}
