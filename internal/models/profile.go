package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CandidateProfile is the structured CV payload produced by the upstream parser.
// Fields the scorer does not know about are kept in Extra and written back untouched.
type CandidateProfile struct {
	Candidat           *Candidate     `json:"-"`
	AnalyseCompetences []SkillScore   `json:"-"`
	Extra              map[string]any `json:"-"`
}

type Candidate struct {
	Competences        Competences    `json:"-"`
	Formations         []any          `json:"-"`
	Projets            []any          `json:"-"`
	Experiences        []Experience   `json:"-"`
	AnalyseCompetences []SkillScore   `json:"-"`
	Extra              map[string]any `json:"-"`
}

type Competences struct {
	HardSkills []string       `json:"-"`
	Extra      map[string]any `json:"-"`
}

// Experience is one entry of the "expériences" section. Dates are kept as
// the raw strings sent by the parser: a year, "today", or a sentinel.
type Experience struct {
	StartDate string         `json:"-"`
	EndDate   string         `json:"-"`
	Fields    map[string]any `json:"-"`
}

type SkillScore struct {
	Skill   string       `json:"skill"`
	Score   float64      `json:"score"`
	Details SkillDetails `json:"details"`
}

type SkillDetails struct {
	ContextScore     float64 `json:"context_score"`
	Frequency        int     `json:"frequency"`
	MaxDurationYears float64 `json:"max_duration_years"`
}

const (
	keyCandidat           = "candidat"
	keyCompetences        = "compétences"
	keyHardSkills         = "hard_skills"
	keyFormations         = "formations"
	keyProjets            = "projets"
	keyExperiences        = "expériences"
	keyAnalyseCompetences = "analyse_competences"
	keyStartDate          = "start_date"
	keyEndDate            = "end_date"
)

// HardSkills returns the declared hard skills, or nil when the profile has no candidate.
func (p *CandidateProfile) HardSkills() []string {
	if p == nil || p.Candidat == nil {
		return nil
	}
	return p.Candidat.Competences.HardSkills
}

func (p *CandidateProfile) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}

	p.Extra = map[string]any{}
	for key, raw := range fields {
		switch key {
		case keyCandidat:
			if isNull(raw) {
				continue
			}
			var c Candidate
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("invalid %q: %w", key, err)
			}
			p.Candidat = &c
		case keyAnalyseCompetences:
			if err := json.Unmarshal(raw, &p.AnalyseCompetences); err != nil {
				return fmt.Errorf("invalid %q: %w", key, err)
			}
		default:
			if err := decodeExtra(p.Extra, key, raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p CandidateProfile) MarshalJSON() ([]byte, error) {
	out := copyExtra(p.Extra)
	if p.Candidat != nil {
		out[keyCandidat] = p.Candidat
	}
	if p.AnalyseCompetences != nil {
		out[keyAnalyseCompetences] = p.AnalyseCompetences
	}
	return Marshal(out)
}

func (c *Candidate) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}

	c.Extra = map[string]any{}
	for key, raw := range fields {
		var err error
		switch key {
		case keyCompetences:
			if !isNull(raw) {
				err = json.Unmarshal(raw, &c.Competences)
			}
		case keyFormations:
			err = json.Unmarshal(raw, &c.Formations)
		case keyProjets:
			err = json.Unmarshal(raw, &c.Projets)
		case keyExperiences:
			err = json.Unmarshal(raw, &c.Experiences)
		case keyAnalyseCompetences:
			err = json.Unmarshal(raw, &c.AnalyseCompetences)
		default:
			err = decodeExtra(c.Extra, key, raw)
		}
		if err != nil {
			return fmt.Errorf("invalid %q: %w", key, err)
		}
	}
	return nil
}

func (c Candidate) MarshalJSON() ([]byte, error) {
	out := copyExtra(c.Extra)
	out[keyCompetences] = c.Competences
	if c.Formations != nil {
		out[keyFormations] = c.Formations
	}
	if c.Projets != nil {
		out[keyProjets] = c.Projets
	}
	if c.Experiences != nil {
		out[keyExperiences] = c.Experiences
	}
	if c.AnalyseCompetences != nil {
		out[keyAnalyseCompetences] = c.AnalyseCompetences
	}
	return Marshal(out)
}

func (c *Competences) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}

	c.Extra = map[string]any{}
	for key, raw := range fields {
		if key == keyHardSkills {
			if err := json.Unmarshal(raw, &c.HardSkills); err != nil {
				return fmt.Errorf("invalid %q: %w", key, err)
			}
			continue
		}
		if err := decodeExtra(c.Extra, key, raw); err != nil {
			return err
		}
	}
	return nil
}

func (c Competences) MarshalJSON() ([]byte, error) {
	out := copyExtra(c.Extra)
	if c.HardSkills != nil {
		out[keyHardSkills] = c.HardSkills
	}
	return Marshal(out)
}

func (e *Experience) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		fields = map[string]any{}
	}

	e.StartDate = dateString(fields[keyStartDate])
	e.EndDate = dateString(fields[keyEndDate])
	delete(fields, keyStartDate)
	delete(fields, keyEndDate)
	e.Fields = fields
	return nil
}

func (e Experience) MarshalJSON() ([]byte, error) {
	out := copyExtra(e.Fields)
	if e.StartDate != "" {
		out[keyStartDate] = e.StartDate
	}
	if e.EndDate != "" {
		out[keyEndDate] = e.EndDate
	}
	return Marshal(out)
}

// Marshal encodes v as compact JSON without HTML escaping, so that skill
// names such as "C++" or "R&D" keep their literal form.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func splitObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeExtra(dst map[string]any, key string, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid %q: %w", key, err)
	}
	dst[key] = v
	return nil
}

func copyExtra(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func dateString(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	default:
		return ""
	}
}
