package model

import "fmt"

// Dataset is the JSON document loaded into the store: the roster, the
// curriculum keyed by module ID, and the submission history.
type Dataset struct {
	Profiles    []Profile      `json:"profiles"`
	Curriculum  map[int]Module `json:"curriculum"`
	Submissions []Submission   `json:"submissions"`
}

// Check validates every record and fills module IDs from the curriculum keys.
func (d *Dataset) Check() error {
	for i := range d.Profiles {
		if err := Validate(d.Profiles[i]); err != nil {
			return fmt.Errorf("profile %d: %w", i, err)
		}
	}
	for id, m := range d.Curriculum {
		m.ID = id
		if err := Validate(m); err != nil {
			return fmt.Errorf("module %d: %w", id, err)
		}
		d.Curriculum[id] = m
	}
	for i := range d.Submissions {
		if d.Submissions[i].Status == "" {
			d.Submissions[i].Status = StatusCompleted
		}
		if err := Validate(d.Submissions[i]); err != nil {
			return fmt.Errorf("submission %d: %w", i, err)
		}
	}
	return nil
}
