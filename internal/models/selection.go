package models

import "net/url"

// Query parameter names shared by the form markup and the upstream /get_workouts endpoint.
const (
	ParamFocus       = "focus"
	ParamSubcategory = "subcategory"
	ParamAccess      = "access"
	ParamDays        = "days"
)

// FormSelection holds the four field values read at submission time. Values are
// passed upstream exactly as the user picked them; nothing is validated here.
type FormSelection struct {
	Focus       string `json:"focus"`
	Subcategory string `json:"subcategory"`
	Access      string `json:"access"`
	Days        string `json:"days"`
}

// Query encodes the selection as /get_workouts query parameters.
func (s FormSelection) Query() url.Values {
	v := url.Values{}
	v.Set(ParamFocus, s.Focus)
	v.Set(ParamSubcategory, s.Subcategory)
	v.Set(ParamAccess, s.Access)
	v.Set(ParamDays, s.Days)
	return v
}

// SelectionFromQuery reads a selection back from request query parameters.
func SelectionFromQuery(v url.Values) FormSelection {
	return FormSelection{
		Focus:       v.Get(ParamFocus),
		Subcategory: v.Get(ParamSubcategory),
		Access:      v.Get(ParamAccess),
		Days:        v.Get(ParamDays),
	}
}

// HasSelection reports whether any of the four fields was supplied.
func HasSelection(v url.Values) bool {
	for _, k := range []string{ParamFocus, ParamSubcategory, ParamAccess, ParamDays} {
		if v.Has(k) {
			return true
		}
	}
	return false
}
