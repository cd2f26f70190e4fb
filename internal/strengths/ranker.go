package strengths

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MissingThemePenalty is added for every target theme the candidate does not rank.
const MissingThemePenalty = ThemeCount

var (
	ErrMissingField      = errors.New("missing field")
	ErrIncompleteProfile = errors.New("incomplete profile")
	ErrComputation       = errors.New("computation fault")
)

// Comparison is a candidate profile scored against a target.
// Lower SimilarityScore means more similar.
type Comparison struct {
	EmailAddress    string   `json:"email_address" mapstructure:"email_address"`
	FirstName       string   `json:"first_name" mapstructure:"first_name"`
	LastName        string   `json:"last_name" mapstructure:"last_name"`
	Strengths       []string `json:"strengths" mapstructure:"strengths"`
	SimilarityScore int      `json:"similarity_score" mapstructure:"similarity_score"`
}

// Result is the outcome of Rank. On failure only Success and Message are set.
type Result struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Target      string       `json:"target,omitempty"`
	Comparisons []Comparison `json:"comparisons"`
}

// ValidateTarget checks that p can be used as a comparison target.
func ValidateTarget(p Profile) error {
	if len(p.Strengths) == 0 {
		return fmt.Errorf("%w: Target profile must include 'strengths' list", ErrMissingField)
	}
	if len(p.Strengths) < ThemeCount {
		return fmt.Errorf("%w: Target profile must include all %d strengths, found %d",
			ErrIncompleteProfile, ThemeCount, len(p.Strengths))
	}
	return nil
}

// RankMap maps every theme to its 1-based position in strengths.
// A theme listed twice keeps the position of its last occurrence.
func RankMap(strengths []string) map[string]int {
	ranks := make(map[string]int, len(strengths))
	for i, theme := range strengths {
		ranks[theme] = i + 1
	}
	return ranks
}

// Distance sums the rank differences of every target theme in candidate.
// Themes missing from candidate cost MissingThemePenalty. Themes only the
// candidate ranks are ignored.
func Distance(target, candidate []string) int {
	targetRanks := RankMap(target)
	candidateRanks := RankMap(candidate)

	distance := 0
	for _, theme := range target {
		rank, ok := candidateRanks[theme]
		if !ok {
			distance += MissingThemePenalty
			continue
		}
		distance += abs(targetRanks[theme] - rank)
	}
	return distance
}

// Compare scores every complete candidate against target and returns them
// sorted by ascending score. Equal scores keep their input order.
// Candidates with fewer than ThemeCount strengths are skipped.
func Compare(target Profile, candidates []Profile) ([]Comparison, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	comparisons := make([]Comparison, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Strengths) == 0 || !c.Complete() {
			continue
		}

		comparisons = append(comparisons, Comparison{
			EmailAddress:    c.EmailAddress,
			FirstName:       c.FirstName,
			LastName:        c.LastName,
			Strengths:       append([]string(nil), c.Strengths...),
			SimilarityScore: Distance(target.Strengths, c.Strengths),
		})
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].SimilarityScore < comparisons[j].SimilarityScore
	})

	return comparisons, nil
}

// Rank is Compare wrapped into a Result. It never panics and never returns an error:
// validation failures and unexpected faults are reported through Success and Message.
func Rank(target Profile, candidates []Profile) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Failure(fmt.Errorf("%w: %v", ErrComputation, r))
		}
	}()

	comparisons, err := Compare(target, candidates)
	if err != nil {
		return Failure(err)
	}

	label := TargetLabel(target)
	return Result{
		Success:     true,
		Message:     fmt.Sprintf("Compared %d profile(s) against %s", len(comparisons), label),
		Target:      label,
		Comparisons: comparisons,
	}
}

// Failure converts err into a failed Result. Validation errors keep their
// own message; anything else is reported as a comparison error.
func Failure(err error) Result {
	var msg string
	switch {
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrIncompleteProfile):
		msg = describe(err)
	default:
		msg = fmt.Sprintf("Error comparing profiles: %s", describe(err))
	}
	return Result{Success: false, Message: msg}
}

// describe strips the sentinel prefix from err.
func describe(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrMissingField, ErrIncompleteProfile, ErrComputation} {
		if !errors.Is(err, kind) {
			continue
		}
		if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
