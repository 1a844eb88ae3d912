package render

import (
	"github.com/goliatone/go-formstate/pkg/form"
)

// FieldSpec describes how a field is presented.
type FieldSpec struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Secret bool   `json:"secret"`
}

// FieldView is the presentation state of one field.
type FieldView struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Touched     bool   `json:"touched"`
	Error       string `json:"error,omitempty"`
	ServerError string `json:"server_error,omitempty"`
}

// View is the presentation state of the whole form.
type View struct {
	Fields    []FieldView `json:"fields"`
	Submitted bool        `json:"submitted"`
	Pending   bool        `json:"pending"`
	Valid     bool        `json:"valid"`
}

// DefaultLoginFields lists the email and password fields of the login form.
func DefaultLoginFields() []FieldSpec {
	return []FieldSpec{
		{Name: "email", Label: "Email", Type: "email"},
		{Name: "password", Label: "Password", Type: "password", Secret: true},
	}
}

// BuildView merges a snapshot with server errors. Validation and server
// errors on the same field are both kept. Secret values are never
// echoed back. Without specs every field in the snapshot is rendered as text.
func BuildView(state form.State, server form.Errors, specs ...FieldSpec) View {
	if len(specs) == 0 {
		for _, name := range sortedNames(state.Values) {
			specs = append(specs, FieldSpec{Name: name, Label: name, Type: "text"})
		}
	}

	view := View{
		Fields:    make([]FieldView, 0, len(specs)),
		Submitted: state.Submitted,
		Pending:   state.Pending,
		Valid:     len(state.Errors) == 0 && len(server) == 0,
	}
	for _, spec := range specs {
		field := FieldView{
			Name:    spec.Name,
			Label:   spec.Label,
			Type:    spec.Type,
			Touched: state.Touched[spec.Name],
		}
		if field.Type == "" {
			field.Type = "text"
		}
		if !spec.Secret {
			field.Value = state.Values[spec.Name]
		}
		field.Error = state.Errors[spec.Name]
		field.ServerError = server[spec.Name]
		view.Fields = append(view.Fields, field)
	}
	return view
}

func sortedNames(values form.Values) []string {
	errs := make(form.Errors, len(values))
	for name := range values {
		errs[name] = ""
	}
	return errs.Fields()
}
