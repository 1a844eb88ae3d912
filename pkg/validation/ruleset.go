package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
)

// RuleType names a built-in check.
type RuleType string

const (
	RuleRequired  RuleType = "required"
	RuleEmail     RuleType = "email"
	RulePattern   RuleType = "pattern"
	RuleMinLength RuleType = "min_length"
)

// Conditions used when a rule omits `when`. Required checks wait for the
// first submit; the others apply as soon as the field holds a value.
const (
	whenSubmitted         = "submitted"
	whenFilledOrSubmitted = "value != '' || submitted"
)

// Rule is one check on a field. When is an expr-lang boolean expression
// evaluated against `value`, `submitted`, and `values`.
type Rule struct {
	Type    RuleType `yaml:"type" json:"type"`
	When    string   `yaml:"when,omitempty" json:"when,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Min     int      `yaml:"min,omitempty" json:"min,omitempty"`
	Message string   `yaml:"message,omitempty" json:"message,omitempty"`

	condition *vm.Program
	pattern   *regexp.Regexp
}

// FieldRules declares a field, its default value and its checks.
type FieldRules struct {
	Default string `yaml:"default" json:"default"`
	Rules   []Rule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// RuleSet declares a whole form.
type RuleSet struct {
	Fields map[string]FieldRules `yaml:"fields" json:"fields"`

	compiled bool
}

// ParseRuleSet decodes a YAML (or JSON) document and compiles it.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("validation: decode rule set: %w", err)
	}
	if err := rs.Compile(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func conditionEnv() map[string]any {
	return map[string]any{
		"value":     "",
		"submitted": false,
		"values":    map[string]string{},
	}
}

// Compile validates every rule and prepares patterns and conditions.
func (rs *RuleSet) Compile() error {
	if rs == nil {
		return errors.New("validation: rule set is nil")
	}
	if len(rs.Fields) == 0 {
		return errors.New("validation: rule set declares no fields")
	}

	for _, name := range rs.fieldNames() {
		field := rs.Fields[name]
		for i := range field.Rules {
			if err := compileRule(&field.Rules[i]); err != nil {
				return fmt.Errorf("validation: field %q rule %d: %w", name, i, err)
			}
		}
		rs.Fields[name] = field
	}
	rs.compiled = true
	return nil
}

func compileRule(rule *Rule) error {
	rule.Type = RuleType(strings.TrimSpace(string(rule.Type)))
	when := strings.TrimSpace(rule.When)

	switch rule.Type {
	case RuleRequired:
		if when == "" {
			when = whenSubmitted
		}
	case RuleEmail:
	case RulePattern:
		if strings.TrimSpace(rule.Pattern) == "" {
			return errors.New("pattern rule requires a pattern")
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("compile pattern: %w", err)
		}
		rule.pattern = re
	case RuleMinLength:
		if rule.Min <= 0 {
			return errors.New("min_length rule requires min > 0")
		}
	default:
		return fmt.Errorf("unknown rule type %q", rule.Type)
	}

	if when == "" {
		when = whenFilledOrSubmitted
	}
	program, err := expr.Compile(when, expr.Env(conditionEnv()), expr.AsBool())
	if err != nil {
		return fmt.Errorf("compile when %q: %w", when, err)
	}
	rule.When = when
	rule.condition = program
	return nil
}

func (rs *RuleSet) fieldNames() []string {
	names := make([]string, 0, len(rs.Fields))
	for name := range rs.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults builds the defaults configuration declared by the rule set. Each
// call returns a new identity.
func (rs *RuleSet) Defaults() *form.Defaults {
	values := make(map[string]string, len(rs.Fields))
	for name, field := range rs.Fields {
		values[name] = field.Default
	}
	return form.NewDefaults(values)
}

// Validator returns a form.Validator reporting the first failing rule per
// field. Rules without a custom message use printer. An uncompiled set is
// compiled first; rules that still lack a condition are always checked.
func (rs *RuleSet) Validator(printer messages.Printer) form.Validator {
	if !rs.compiled {
		_ = rs.Compile()
	}
	names := rs.fieldNames()
	return func(values form.Values, submitted bool) form.Errors {
		errs := form.Errors{}
		plain := map[string]string(values.Clone())
		for _, name := range names {
			value := values[name]
			for _, rule := range rs.Fields[name].Rules {
				if !rule.applies(value, submitted, plain) {
					continue
				}
				if message, failed := rule.check(value, printer); failed {
					errs[name] = message
					break
				}
			}
		}
		return errs
	}
}

// applies evaluates the rule condition. Missing or failing conditions count
// as applying so a broken rule never disables its check.
func (r Rule) applies(value string, submitted bool, values map[string]string) bool {
	if r.condition == nil {
		return true
	}
	out, err := expr.Run(r.condition, map[string]any{
		"value":     value,
		"submitted": submitted,
		"values":    values,
	})
	if err != nil {
		return true
	}
	ok, isBool := out.(bool)
	return ok || !isBool
}

func (r Rule) check(value string, printer messages.Printer) (string, bool) {
	var (
		failed bool
		key    string
		args   []any
	)
	switch r.Type {
	case RuleRequired:
		failed, key = value == "", messages.KeyFieldRequired
	case RuleEmail:
		failed, key = !IsEmail(value), messages.KeyEmailInvalid
	case RulePattern:
		failed, key = r.pattern == nil || !r.pattern.MatchString(value), messages.KeyFieldPattern
	case RuleMinLength:
		failed, key, args = utf8.RuneCountInString(value) < r.Min, messages.KeyFieldMinLength, []any{r.Min}
	}
	if !failed {
		return "", false
	}
	if r.Message != "" {
		return r.Message, true
	}
	return printer.Message(key, args...), true
}

// Compiled reports whether Compile succeeded.
func (rs *RuleSet) Compiled() bool {
	return rs != nil && rs.compiled
}
