package strengths

// ThemeCount is the number of themes in a complete profile.
const ThemeCount = 34

// Themes lists every CliftonStrengths theme in alphabetical order.
var Themes = []string{
	"Achiever", "Activator", "Adaptability", "Analytical", "Arranger",
	"Belief", "Command", "Communication", "Competition", "Connectedness",
	"Consistency", "Context", "Deliberative", "Developer", "Discipline",
	"Empathy", "Focus", "Futuristic", "Harmony", "Ideation",
	"Includer", "Individualization", "Input", "Intellection", "Learner",
	"Maximizer", "Positivity", "Relator", "Responsibility", "Restorative",
	"Self-Assurance", "Significance", "Strategic", "Woo",
}

var knownThemes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Themes))
	for _, t := range Themes {
		m[t] = struct{}{}
	}
	return m
}()

// IsTheme reports whether name is one of the canonical themes.
func IsTheme(name string) bool {
	_, ok := knownThemes[name]
	return ok
}

// UnknownThemes returns the entries of list that are not canonical themes, in order.
func UnknownThemes(list []string) []string {
	var unknown []string
	for _, name := range list {
		if !IsTheme(name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}
