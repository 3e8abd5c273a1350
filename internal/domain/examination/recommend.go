package examination

// Examination names produced by the recommendation rules. These must
// match rows seeded into the examination catalog.
const (
	WomensHealthAssessment = "Women's Health Assessment"
	MensHealthAssessment   = "Men's Health Assessment"
	ChildHealthAssessment  = "Child Health Assessment"
	MaternityAssessment    = "Maternity Assessment"
)

// Rule recommends one examination when its predicate matches the
// patient/encounter snapshot. Rules are evaluated independently and
// their results unioned, so evaluation order never matters.
type Rule struct {
	Name        string
	Examination string
	Applies     func(p Patient, e Encounter) bool
}

var rules = []Rule{
	{
		Name:        "adult-female",
		Examination: WomensHealthAssessment,
		Applies: func(p Patient, _ Encounter) bool {
			return p.Gender == "female" && p.AgeYears >= 18
		},
	},
	{
		Name:        "adult-male",
		Examination: MensHealthAssessment,
		Applies: func(p Patient, _ Encounter) bool {
			return p.Gender == "male" && p.AgeYears >= 18
		},
	},
	{
		Name:        "child",
		Examination: ChildHealthAssessment,
		Applies: func(p Patient, _ Encounter) bool {
			return p.AgeYears < 18
		},
	},
	{
		Name:        "maternity",
		Examination: MaternityAssessment,
		Applies: func(_ Patient, e Encounter) bool {
			return e.Reason == "maternity"
		},
	},
}

// Recommend returns the set of examination names the rules derive for
// the given snapshot. Pure, no I/O.
func Recommend(p Patient, e Encounter) map[string]struct{} {
	return recommendWith(rules, p, e)
}

func recommendWith(rs []Rule, p Patient, e Encounter) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range rs {
		if r.Applies(p, e) {
			out[r.Examination] = struct{}{}
		}
	}
	return out
}
