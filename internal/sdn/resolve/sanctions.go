package resolve

import (
	"strconv"
	"strings"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
	pstrings "sdnscreen/pkg/platform/strings"
)

// Sanctions builds the assignment map keyed by profile ID. Several entries for
// one profile merge; programs and authorities keep first-seen order.
func Sanctions(src []source.SanctionsEntry, lookups *models.Lookups) (map[string]models.SanctionsAssignment, []models.Warning) {
	out := make(map[string]models.SanctionsAssignment)
	var warnings []models.Warning

	for i, raw := range src {
		profile := raw.Profile()
		if profile == "" {
			subject := strings.TrimSpace(raw.ID)
			if subject == "" {
				subject = "#" + strconv.Itoa(i)
			}
			warnings = append(warnings, models.Warning{Kind: models.WarnMalformedSanctionsEntry, Subject: subject, Ref: "ProfileID"})
			continue
		}

		m := assignmentMerger{lookups: lookups, subject: "profile " + profile, a: out[profile]}
		for _, measure := range raw.Measures {
			m.programs(measure.Comment)
			if measure.SanctionsProgramID != "" {
				m.programID(measure.SanctionsProgramID)
			}
			m.programs(measure.SanctionsLists...)
			m.authorities(measure.LegalAuthorities)
		}
		for _, ev := range raw.Events {
			if ev.LegalBasisID != "" {
				m.legalBasis(ev.LegalBasisID)
			}
			m.authorities(ev.LegalAuthorities)
		}
		m.programs(raw.SanctionsLists...)
		m.authorities(raw.LegalAuthorities)
		if remarks := strings.TrimSpace(raw.Remarks); remarks != "" {
			m.a.Remarks = remarks
		}

		out[profile] = m.a
		warnings = append(warnings, m.warnings...)
	}
	return out, warnings
}

// assignmentMerger folds the programs and authorities of one entry into the
// profile's assignment.
type assignmentMerger struct {
	lookups  *models.Lookups
	subject  string
	a        models.SanctionsAssignment
	warnings []models.Warning
}

func (m *assignmentMerger) programs(names ...string) {
	m.a.Programs = pstrings.AppendUnique(m.a.Programs, names...)
}

func (m *assignmentMerger) programID(id string) {
	if name, ok := m.lookups.Label(models.CategorySanctionsProgram, id).Get(); ok {
		m.programs(name)
		return
	}
	m.unresolved("SanctionsProgram " + id)
}

func (m *assignmentMerger) legalBasis(id string) {
	if ref, ok := m.lookups.Label(models.CategoryLegalBasis, id).Get(); ok {
		m.a.LegalAuthorities = pstrings.AppendUnique(m.a.LegalAuthorities, ref)
		return
	}
	m.unresolved("LegalBasis " + id)
}

// authorities resolves the ID and keeps the inline short reference. Bare text
// counts only when the element carries neither.
func (m *assignmentMerger) authorities(las []source.LegalAuthority) {
	for _, la := range las {
		id := strings.TrimSpace(la.LegalBasisID)
		short := strings.TrimSpace(la.ShortRef)
		if id != "" {
			m.legalBasis(id)
		}
		if short != "" {
			m.a.LegalAuthorities = pstrings.AppendUnique(m.a.LegalAuthorities, short)
		}
		if id == "" && short == "" {
			m.a.LegalAuthorities = pstrings.AppendUnique(m.a.LegalAuthorities, la.Text)
		}
	}
}

func (m *assignmentMerger) unresolved(ref string) {
	m.warnings = append(m.warnings, models.Warning{Kind: models.WarnUnresolvedLabel, Subject: m.subject, Ref: ref})
}
