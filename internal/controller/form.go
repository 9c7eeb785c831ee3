package controller

import "github.com/claude/planform/internal/models"

// Element ids shared with the page markup.
const (
	FocusID       = "focus"
	SubcategoryID = "subcategory"
	AccessID      = "access"
	DaysID        = "days"
	PlanID        = "plan"
	FormID        = "workout-form"
)

// NoSubcategoryLabel labels the placeholder shown when a focus has no subcategories.
const NoSubcategoryLabel = "No subcategory"

// Option is one entry of a select control.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Control is the state of one select element.
type Control struct {
	ID       string   `json:"id"`
	Options  []Option `json:"options"`
	Selected string   `json:"selected,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
}

// Values returns the option values in display order.
func (c Control) Values() []string {
	out := make([]string, len(c.Options))
	for i, o := range c.Options {
		out[i] = o.Value
	}
	return out
}

func (c Control) clone() Control {
	c.Options = append([]Option(nil), c.Options...)
	return c
}

// Form is the state of the whole workout form.
type Form struct {
	Focus       Control `json:"focus"`
	Subcategory Control `json:"subcategory"`
	Access      Control `json:"access"`
	Days        string  `json:"days"`
}

func newForm() Form {
	return Form{
		Focus:       Control{ID: FocusID},
		Subcategory: Control{ID: SubcategoryID},
		Access:      Control{ID: AccessID},
	}
}

func (f Form) clone() Form {
	f.Focus = f.Focus.clone()
	f.Subcategory = f.Subcategory.clone()
	f.Access = f.Access.clone()
	return f
}

// Selection returns the currently selected values.
func (f Form) Selection() models.FormSelection {
	return models.FormSelection{
		Focus:       f.Focus.Selected,
		Subcategory: f.Subcategory.Selected,
		Access:      f.Access.Selected,
		Days:        f.Days,
	}
}

// plainOptions builds one option per value, label equal to value.
func plainOptions(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

// subcategoryControl builds the subcategory select for focus from the index.
// A focus without subcategories yields a single disabled placeholder.
func subcategoryControl(idx *models.SubcategoryIndex, focus string) Control {
	subs := idx.Lookup(focus)
	if len(subs) == 0 {
		return Control{
			ID:       SubcategoryID,
			Options:  []Option{{Value: focus, Label: NoSubcategoryLabel, Disabled: true}},
			Selected: focus,
			Disabled: true,
		}
	}

	opts := make([]Option, len(subs))
	for i, sub := range subs {
		opts[i] = Option{Value: models.JoinTag(focus, sub), Label: sub}
	}
	return Control{ID: SubcategoryID, Options: opts, Selected: opts[0].Value}
}

// initialSubcategory is the derived-mode subcategory control right after a
// catalog load. Without any focus there is nothing to refine, so it is disabled.
func initialSubcategory(idx *models.SubcategoryIndex, focus string) Control {
	if focus == "" {
		return Control{ID: SubcategoryID, Disabled: true}
	}
	return subcategoryControl(idx, focus)
}
