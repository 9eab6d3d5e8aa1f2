package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"alfredoptarigan/interview-analyzer/internal/models"
)

// Context weights per CV section.
const (
	WeightFormations  = 0.3
	WeightProjets     = 0.6
	WeightExperiences = 0.8
	WeightMultiple    = 1.0
	WeightNoContext   = 0.1
)

// Score = Alpha*context + Beta*f(frequency) + Gamma*f(depth). Alpha+Beta+Gamma == 1.
const (
	Alpha = 0.5
	Beta  = 0.3
	Gamma = 0.2
)

// DefaultDurationYears is used for an experience whose dates cannot be resolved.
const DefaultDurationYears = 0.5

type SkillScoringEngine interface {
	Score(profile *models.CandidateProfile) []models.SkillScore
}

type skillScoringEngine struct {
	now func() time.Time
}

// NewSkillScoringEngine returns the contextual scorer. now resolves "today"
// dates; nil means time.Now.
func NewSkillScoringEngine(now func() time.Time) SkillScoringEngine {
	if now == nil {
		now = time.Now
	}
	return &skillScoringEngine{now: now}
}

// profileText is the lower-cased serialized form of each CV section.
type profileText struct {
	full        string
	formations  string
	projets     string
	experiences string
	perEntry    []string
}

// Score implements SkillScoringEngine.
func (e *skillScoringEngine) Score(profile *models.CandidateProfile) []models.SkillScore {
	skills := profile.HardSkills()
	scored := make([]models.SkillScore, 0, len(skills))
	if len(skills) == 0 {
		return scored
	}

	candidate := *profile.Candidat
	candidate.AnalyseCompetences = nil
	text := profileText{
		full:        serializeLower(candidate),
		formations:  serializeLower(sectionOrEmpty(candidate.Formations)),
		projets:     serializeLower(sectionOrEmpty(candidate.Projets)),
		experiences: serializeLower(experiencesOrEmpty(candidate.Experiences)),
		perEntry:    make([]string, len(candidate.Experiences)),
	}
	for i, exp := range candidate.Experiences {
		text.perEntry[i] = serializeLower(exp)
	}

	currentYear := e.now().Year()
	for _, skill := range skills {
		needle := strings.ToLower(strings.TrimSpace(skill))
		if needle == "" {
			continue
		}

		contextScore := contextScore(needle, text)
		frequency := strings.Count(text.full, needle)

		depth := 0.0
		for i, exp := range candidate.Experiences {
			if !strings.Contains(text.perEntry[i], needle) {
				continue
			}
			if d := durationInYears(exp.StartDate, exp.EndDate, currentYear); d > depth {
				depth = d
			}
		}

		score := Alpha*contextScore + Beta*Saturate(float64(frequency)) + Gamma*Saturate(depth)
		scored = append(scored, models.SkillScore{
			Skill: skill,
			Score: round(score, 2),
			Details: models.SkillDetails{
				ContextScore:     contextScore,
				Frequency:        frequency,
				MaxDurationYears: round(depth, 1),
			},
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}

// Saturate maps x >= 0 onto [0, 1) with diminishing returns: 1 - 1/(1+x).
func Saturate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return 1 - 1/(1+x)
}

func contextScore(needle string, text profileText) float64 {
	var matched []float64
	if strings.Contains(text.formations, needle) {
		matched = append(matched, WeightFormations)
	}
	if strings.Contains(text.projets, needle) {
		matched = append(matched, WeightProjets)
	}
	if strings.Contains(text.experiences, needle) {
		matched = append(matched, WeightExperiences)
	}

	switch len(matched) {
	case 0:
		return WeightNoContext
	case 1:
		return matched[0]
	default:
		return WeightMultiple
	}
}

// durationInYears is |end - start| in calendar years. Any side that cannot be
// resolved yields DefaultDurationYears for the whole entry.
func durationInYears(start, end string, currentYear int) float64 {
	startYear, ok := parseYear(start, currentYear)
	if !ok {
		return DefaultDurationYears
	}
	endYear, ok := parseYear(end, currentYear)
	if !ok {
		return DefaultDurationYears
	}
	return math.Abs(float64(endYear - startYear))
}

func parseYear(value string, currentYear int) (int, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "not specified", "non spécifié", "non specifie":
		return 0, false
	case "today", "aujourd'hui", "aujourd’hui", "present", "présent":
		return currentYear, true
	}

	if len(v) > 4 {
		return 0, false
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1 {
		return 0, false
	}
	return year, true
}

func serializeLower(v any) string {
	data, err := models.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(data))
}

func sectionOrEmpty(section []any) []any {
	if section == nil {
		return []any{}
	}
	return section
}

func experiencesOrEmpty(exps []models.Experience) []models.Experience {
	if exps == nil {
		return []models.Experience{}
	}
	return exps
}

func round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
