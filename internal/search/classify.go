package search

import (
	"strings"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
)

// Keyword tables are matched against folded text, so diacritics are already
// stripped ("živnost" arrives as "zivnost").

type contractRule struct {
	target   job.ContractType
	keywords []string
}

var contractRules = []contractRule{
	{job.ContractICO, []string{
		"ico", "osvc", "zivnost", "zivnostensky list", "fakturace", "faktura",
		"contractor", "freelance", "freelancer", "b2b", "invoice", "invoicing",
		"self-employed",
	}},
	{job.ContractPartTime, []string{
		"part-time", "part time", "zkraceny uvazek", "castecny uvazek",
		"polovicni uvazek", "brigada", "dpp", "dpc",
	}},
}

// ClassifyContract infers a contract type from free text. Contractor and
// invoicing markers win over part-time markers; anything else with text is
// treated as standard employment.
func ClassifyContract(text string) job.ContractType {
	folded := Fold(text)
	if strings.TrimSpace(folded) == "" {
		return job.ContractUnknown
	}
	for _, rule := range contractRules {
		for _, kw := range rule.keywords {
			if containsKeyword(folded, kw) {
				return rule.target
			}
		}
	}
	return job.ContractHPP
}

var experienceAliases = map[job.ExperienceLevel][]string{
	job.ExperienceJunior: {"junior", "entry", "entry-level", "trainee", "graduate", "absolvent", "intern"},
	job.ExperienceMedior: {"medior", "mid-level", "mid level", "intermediate"},
	job.ExperienceSenior: {"senior", "experienced", "zkuseny"},
	job.ExperienceLead:   {"lead", "principal", "head", "architect", "staff"},
}

// Ordered so the most specific level wins when a title carries several
// markers ("senior / tech lead").
var experienceOrder = []job.ExperienceLevel{
	job.ExperienceLead,
	job.ExperienceSenior,
	job.ExperienceMedior,
	job.ExperienceJunior,
}

// ClassifyExperience infers a seniority level from free text via the alias
// tables.
func ClassifyExperience(text string) job.ExperienceLevel {
	folded := Fold(text)
	for _, level := range experienceOrder {
		for _, alias := range experienceAliases[level] {
			if containsKeyword(folded, alias) {
				return level
			}
		}
	}
	return job.ExperienceUnknown
}

// MatchesExperience reports whether the text matches any of the requested
// levels through their aliases.
func MatchesExperience(text string, levels []job.ExperienceLevel) bool {
	if len(levels) == 0 {
		return true
	}
	folded := Fold(text)
	for _, level := range levels {
		for _, alias := range experienceAliases[level] {
			if containsKeyword(folded, alias) {
				return true
			}
		}
	}
	return false
}

// containsKeyword expects folded inputs. Multi-word keywords fall back to
// substring containment; single tokens require word boundaries.
func containsKeyword(foldedText, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(foldedText, keyword)
	}
	return ContainsWholeToken(foldedText, keyword)
}
