// Package form decides whether an edit form may be saved.
//
// A form is savable iff every required field holds a non-empty value and
// every filled field passes its own rule.
package form

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/go-playground/validator/v10"
)

const DateTimeLayout = time.RFC3339

type Field struct {
	Name     string
	Required bool
	// Rule is a validator tag applied to non-empty values.
	Rule string
}

type Result struct {
	CanSave bool              `json:"can_save"`
	Errors  map[string]string `json:"errors,omitempty"`
}

var definitions = map[string][]Field{
	"trip": {
		{Name: "name", Required: true},
	},
	"event": {
		{Name: "name", Required: true},
		{Name: "start", Required: true, Rule: "datetime=" + DateTimeLayout},
		{Name: "end", Rule: "datetime=" + DateTimeLayout},
	},
	"pass": {
		{Name: "name", Required: true},
		{Name: "member_name"},
		{Name: "member_number"},
		{Name: "valid_from", Rule: "datetime=" + DateTimeLayout},
		{Name: "valid_until", Rule: "datetime=" + DateTimeLayout},
	},
	"reservation": {
		{Name: "name"},
		{Name: "reservation_number", Rule: "max=64"},
		{Name: "under_name", Rule: "max=128"},
		{Name: "start", Required: true, Rule: "datetime=" + DateTimeLayout},
		{Name: "end", Rule: "datetime=" + DateTimeLayout},
	},
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Names returns the known form names.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check validates values against fields.
func (v *Validator) Check(fields []Field, values map[string]string) Result {
	res := Result{CanSave: true, Errors: map[string]string{}}
	for _, f := range fields {
		value := strings.TrimSpace(values[f.Name])
		if value == "" {
			if f.Required {
				res.CanSave = false
				res.Errors[f.Name] = "required"
			}
			continue
		}
		if f.Rule == "" {
			continue
		}
		if err := v.validate.Var(value, f.Rule); err != nil {
			res.CanSave = false
			res.Errors[f.Name] = "invalid"
		}
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res
}

// CheckForm validates a named form, including the cross-field rules of that form.
func (v *Validator) CheckForm(name string, values map[string]string) (Result, error) {
	fields, ok := definitions[name]
	if !ok {
		return Result{}, domain.ValidationError{Field: "form", Msg: fmt.Sprintf("unknown form %q", name)}
	}
	res := v.Check(fields, values)

	switch name {
	case "pass":
		v.checkOrder(&res, values, "valid_from", "valid_until")
	case "event", "reservation":
		v.checkOrder(&res, values, "start", "end")
	}
	return res, nil
}

// Require returns a ValidationError for the first failing field, or nil when the form can be saved.
func (v *Validator) Require(name string, values map[string]string) error {
	res, err := v.CheckForm(name, values)
	if err != nil {
		return err
	}
	if res.CanSave {
		return nil
	}
	keys := make([]string, 0, len(res.Errors))
	for k := range res.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return domain.ValidationError{Field: keys[0], Msg: res.Errors[keys[0]]}
}

func (v *Validator) checkOrder(res *Result, values map[string]string, fromKey, untilKey string) {
	from, errFrom := time.Parse(DateTimeLayout, strings.TrimSpace(values[fromKey]))
	until, errUntil := time.Parse(DateTimeLayout, strings.TrimSpace(values[untilKey]))
	if errFrom != nil || errUntil != nil {
		return
	}
	if until.Before(from) {
		res.CanSave = false
		if res.Errors == nil {
			res.Errors = map[string]string{}
		}
		res.Errors[untilKey] = "before " + fromKey
	}
}
