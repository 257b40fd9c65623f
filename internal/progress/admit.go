package progress

import (
	"errors"

	"github.com/pavelanni/pacer/internal/cadence"
	"github.com/pavelanni/pacer/internal/eligibility"
	"github.com/pavelanni/pacer/internal/model"
)

var (
	// ErrDayDone is returned when the student already finished today's activity.
	ErrDayDone = errors.New("today's activity is already done")
	// ErrNotEligible is returned when the activity is not open today, because
	// it is not next in the schedule or a weekly limit holds it back.
	ErrNotEligible = errors.New("activity is not open today")
)

// Admit decides whether a student may submit act now. An activity is open
// when it belongs to an eligible candidate. Once a student started today's
// bible group, the rest of that group stays open as long as every submission
// of the day is a reading from it.
func (t *Tracker) Admit(snap model.Snapshot, studentID string, act model.Activity) error {
	d, err := t.Dashboard(snap, studentID)
	if err != nil {
		return err
	}
	if c := d.Selection.For(act.Kind()); c != nil && c.Eligible && hasKey(c.Activities, act.Key()) {
		return nil
	}

	p, _ := snap.Profile(studentID)
	if act.Kind() == model.KindBible && t.continuesBibleGroup(p, snap.Module(p.ModuleID), snap.SubmissionsFor(p.ID), d, act) {
		return nil
	}
	if d.TodayDone {
		return ErrDayDone
	}
	return ErrNotEligible
}

func (t *Tracker) continuesBibleGroup(p model.Profile, mod *model.Module, subs []model.Submission, d Dashboard, act model.Activity) bool {
	if mod == nil || !d.TodayDone {
		return false
	}
	today := cadence.OnDay(t.cal, subs, d.Today)
	todayIDs := make(map[string]bool, len(today))
	for _, s := range today {
		if s.Type != model.SubmissionBible {
			return false
		}
		todayIDs[s.ID] = true
	}

	var before []model.Submission
	for _, s := range subs {
		if !todayIDs[s.ID] {
			before = append(before, s)
		}
	}
	completedBefore := model.CompletedTitles(before, p.ModuleID)
	if model.CompletedTitles(subs, p.ModuleID)[act.Key()] {
		return false
	}

	group := eligibility.BibleGroup(mod.Schedule, completedBefore, d.Config.GroupSize)
	for _, s := range today {
		if !hasKey(group, s.ContentLabel) {
			return false
		}
	}
	return hasKey(group, act.Key())
}

func hasKey(acts []model.Activity, key string) bool {
	for _, a := range acts {
		if a.Key() == key {
			return true
		}
	}
	return false
}
