package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = `{
	"source": "parser-v2",
	"candidat": {
		"nom": "Jane Doe",
		"compétences": {"hard_skills": ["Go", "C++"], "soft_skills": ["écoute"]},
		"formations": [{"diplome": "Master"}],
		"projets": [],
		"expériences": [
			{"poste": "Backend", "start_date": 2019, "end_date": "aujourd'hui"},
			{"poste": "Stage", "start_date": null}
		]
	}
}`

func TestCandidateProfile_Unmarshal(t *testing.T) {
	var p CandidateProfile
	require.NoError(t, json.Unmarshal([]byte(sampleProfile), &p))

	require.NotNil(t, p.Candidat)
	assert.Equal(t, []string{"Go", "C++"}, p.HardSkills())
	assert.Equal(t, "parser-v2", p.Extra["source"])
	assert.Equal(t, "Jane Doe", p.Candidat.Extra["nom"])
	assert.Equal(t, []any{"écoute"}, p.Candidat.Competences.Extra["soft_skills"])

	require.Len(t, p.Candidat.Experiences, 2)
	assert.Equal(t, "2019", p.Candidat.Experiences[0].StartDate)
	assert.Equal(t, "aujourd'hui", p.Candidat.Experiences[0].EndDate)
	assert.Equal(t, "Backend", p.Candidat.Experiences[0].Fields["poste"])
	assert.Empty(t, p.Candidat.Experiences[1].StartDate)
	assert.Empty(t, p.Candidat.Experiences[1].EndDate)
}

func TestCandidateProfile_MarshalKeepsUnknownFields(t *testing.T) {
	var p CandidateProfile
	require.NoError(t, json.Unmarshal([]byte(sampleProfile), &p))

	p.Candidat.AnalyseCompetences = []SkillScore{{Skill: "Go", Score: 0.9}}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "parser-v2", out["source"])
	candidat := out["candidat"].(map[string]any)
	assert.Equal(t, "Jane Doe", candidat["nom"])
	assert.Len(t, candidat["analyse_competences"], 1)

	exps := candidat["expériences"].([]any)
	assert.Equal(t, "2019", exps[0].(map[string]any)["start_date"])
	assert.Contains(t, string(data), `"C++"`)
}

func TestCandidateProfile_NilAndMissingCandidate(t *testing.T) {
	var nilProfile *CandidateProfile
	assert.Nil(t, nilProfile.HardSkills())

	var p CandidateProfile
	require.NoError(t, json.Unmarshal([]byte(`{"candidat": null}`), &p))
	assert.Nil(t, p.Candidat)
	assert.Nil(t, p.HardSkills())
}

func TestCandidateProfile_RejectsBadSkills(t *testing.T) {
	var p CandidateProfile
	err := json.Unmarshal([]byte(`{"candidat": {"compétences": {"hard_skills": "Go"}}}`), &p)
	assert.Error(t, err)
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	data, err := Marshal(map[string]string{"skill": "R&D <ops>"})
	require.NoError(t, err)
	assert.Equal(t, `{"skill":"R&D <ops>"}`, string(data))
}

func TestUserMessages(t *testing.T) {
	history := []Utterance{
		{Role: RoleAssistant, Content: "Tell me about yourself"},
		{Role: RoleUser, Content: "I build APIs"},
		{Role: RoleAssistant, Content: "Why us?"},
		{Role: RoleUser, Content: "I like the product"},
	}

	assert.Equal(t, []string{"I build APIs", "I like the product"}, UserMessages(history))
	assert.NotNil(t, UserMessages(nil))
	assert.Empty(t, UserMessages(nil))
}
