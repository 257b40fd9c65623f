package progress

import "github.com/pavelanni/pacer/internal/model"

// Promotion moves a student who finished their module to the next one.
type Promotion struct {
	Profile    model.Profile `json:"profile"`
	FromModule int           `json:"fromModule"`
}

// Promote returns the promoted profile when the student has submitted every
// activity of the current module and a different next module is queued.
func Promote(p model.Profile, m *model.Module, subs []model.Submission) (model.Profile, bool) {
	if p.NextModuleID == nil || *p.NextModuleID == p.ModuleID {
		return p, false
	}
	if m == nil || len(m.Schedule) == 0 {
		return p, false
	}
	if ModuleProgress(p, m, subs) < 100 {
		return p, false
	}
	p.ModuleID = *p.NextModuleID
	p.NextModuleID = nil
	return p, true
}

// Promotions lists every student in the snapshot due for promotion.
func Promotions(snap model.Snapshot) []Promotion {
	var out []Promotion
	for _, p := range snap.Profiles {
		if p.Role != model.UserRoleStudent {
			continue
		}
		promoted, ok := Promote(p, snap.Module(p.ModuleID), snap.SubmissionsFor(p.ID))
		if ok {
			out = append(out, Promotion{Profile: promoted, FromModule: p.ModuleID})
		}
	}
	return out
}
