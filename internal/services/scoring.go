package services

import (
	"sort"
	"strings"

	"partymatch/internal/domain"
)

// agreementScorer is the default CompatibilityScorer: the fraction of
// questions both guests answered on which their answers agree.
type agreementScorer struct{}

// NewAgreementScorer returns the default scorer. The score of two profiles
// is the mean agreement over their common questions: 1 per question whose
// answers are equal after case and whitespace normalization, 0 otherwise.
// Profiles with no common question are not comparable.
func NewAgreementScorer() domain.CompatibilityScorer {
	return agreementScorer{}
}

func (agreementScorer) Score(a, b map[string]string) (float64, bool) {
	common := 0
	agreed := 0
	for questionID, answerA := range a {
		answerB, found := b[questionID]
		if !found {
			continue
		}
		common++
		if normalizeAnswer(answerA) == normalizeAnswer(answerB) {
			agreed++
		}
	}
	if common == 0 {
		return 0, false
	}
	return float64(agreed) / float64(common), true
}

// normalizeAnswer makes answer comparison case- and whitespace-insensitive.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// eligiblePair reports whether two distinct guests may be matched under the
// event's matching mode. In preference-based mode satisfaction must be
// mutual: a pair where only one side's preference is met is not eligible.
func eligiblePair(mode string, a, b *domain.Guest) bool {
	if a.ID == b.ID {
		return false
	}
	if mode == domain.MatchingModeAny {
		return true
	}
	return wants(a, b) && wants(b, a)
}

// wants reports whether guest a's stated preference is satisfied by guest
// b's gender. An unset or "any" preference is a wildcard.
func wants(a, b *domain.Guest) bool {
	if a.LookingFor == "" || a.LookingFor == domain.LookingForAny {
		return true
	}
	return a.LookingFor == b.Gender
}

// buildProfiles groups responses into per-guest survey profiles
// (question ID -> answer).
func buildProfiles(responses []*domain.Response) map[string]map[string]string {
	profiles := make(map[string]map[string]string)
	for _, r := range responses {
		p, ok := profiles[r.GuestID]
		if !ok {
			p = make(map[string]string)
			profiles[r.GuestID] = p
		}
		p[r.QuestionID] = r.Answer
	}
	return profiles
}

// buildCandidates produces every scorable, eligible pair of the event's
// guests, each unordered pair exactly once with GuestAID < GuestBID. Guests
// without responses are skipped, as are pairs whose profiles are not
// comparable. The set is rebuilt from scratch on every run.
func buildCandidates(mode string, guests []*domain.Guest, profiles map[string]map[string]string, scorer domain.CompatibilityScorer) []domain.CandidatePair {
	ordered := make([]*domain.Guest, len(guests))
	copy(ordered, guests)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	candidates := make([]domain.CandidatePair, 0)
	for i := 0; i < len(ordered); i++ {
		a := ordered[i]
		profileA := profiles[a.ID]
		if len(profileA) == 0 {
			continue
		}
		for j := i + 1; j < len(ordered); j++ {
			b := ordered[j]
			profileB := profiles[b.ID]
			if len(profileB) == 0 {
				continue
			}
			if !eligiblePair(mode, a, b) {
				continue
			}
			score, ok := scorer.Score(profileA, profileB)
			if !ok {
				continue
			}
			candidates = append(candidates, domain.CandidatePair{
				GuestAID: a.ID,
				GuestBID: b.ID,
				Score:    score,
			})
		}
	}
	return candidates
}

// solveAssignment selects matches from the candidate set so that no guest
// appears in more than quota pairs. Greedy maximum-weight b-matching:
// candidates are walked once in score-descending order, ties broken by the
// pair's guest IDs ascending, and a pair is taken iff both guests still have
// quota left. The tie-break is part of the engine's contract: the same
// snapshot must always produce the same match set.
func solveAssignment(candidates []domain.CandidatePair, quota int) []domain.CandidatePair {
	ordered := make([]domain.CandidatePair, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if ordered[i].GuestAID != ordered[j].GuestAID {
			return ordered[i].GuestAID < ordered[j].GuestAID
		}
		return ordered[i].GuestBID < ordered[j].GuestBID
	})

	remaining := make(map[string]int)
	for _, c := range ordered {
		remaining[c.GuestAID] = quota
		remaining[c.GuestBID] = quota
	}

	selected := make([]domain.CandidatePair, 0, len(ordered))
	for _, c := range ordered {
		if remaining[c.GuestAID] == 0 || remaining[c.GuestBID] == 0 {
			continue
		}
		remaining[c.GuestAID]--
		remaining[c.GuestBID]--
		selected = append(selected, c)
	}
	return selected
}
