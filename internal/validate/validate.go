// Package validate evaluates descriptor validation rules against a record
// before it is sent to the API. Rule checks are delegated to
// go-playground/validator; messages come from the rule itself or, when the
// rule has none, from an English translator.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// DateLayout is the format accepted by the date rule.
const DateLayout = "2006-01-02"

const integerTag = "integer"

var integerRegex = regexp.MustCompile(`^[-+]?\d+$`)

// default texts, keyed by rule name. {0} is the field, {1} the rule value.
var defaultTexts = map[string]string{
	types.RuleRequired:  "{0} is required",
	types.RuleMinLength: "{0} must be at least {1} characters",
	types.RuleMaxLength: "{0} must be at most {1} characters",
	types.RuleMin:       "{0} must be at least {1}",
	types.RuleMax:       "{0} must be at most {1}",
	types.RuleInteger:   "{0} must be an integer",
	types.RuleNumeric:   "{0} must be a number",
	types.RuleEmail:     "{0} must be a valid email address",
	types.RuleURL:       "{0} must be a valid URL",
	types.RuleDate:      "{0} must be a date in YYYY-MM-DD format",
	types.RulePattern:   "{0} has an invalid format",
	types.RuleOneOf:     "{0} must be one of [{1}]",
	types.RuleSameAs:    "{0} must match {1}",
}

// Validator checks records against field-keyed rule sets. Safe for
// concurrent use.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New returns a Validator with the English default messages registered.
func New() *Validator {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")

	v := validator.New()
	_ = v.RegisterValidation(integerTag, func(fl validator.FieldLevel) bool {
		return integerRegex.MatchString(fl.Field().String())
	})
	for rule, text := range defaultTexts {
		_ = trans.Add(rule, text, false)
	}
	return &Validator{v: v, trans: trans, patterns: make(map[string]*regexp.Regexp)}
}

// Check evaluates rules against data. With partial set, fields absent from
// data are skipped, which is how updates validate only what they send.
// Rules of a field run in declaration order and stop at the first failure.
// Returns nil or a *types.ValidationError.
func (v *Validator) Check(entityType string, rules map[string][]types.ValidationRule, data types.Record, partial bool) error {
	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var failed []types.FieldError
	for _, field := range fields {
		value, present := data[field]
		if partial && !present {
			continue
		}
		for _, rule := range rules[field] {
			if rule.Condition != nil && !rule.Condition(data) {
				continue
			}
			ok, err := v.passes(rule, value, data)
			if err != nil {
				return &types.ConfigurationError{EntityType: entityType, Err: fmt.Errorf("field %s: %w", field, err)}
			}
			if !ok {
				failed = append(failed, types.FieldError{Field: field, Rule: rule.Rule, Message: v.message(field, rule)})
				break
			}
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &types.ValidationError{EntityType: entityType, Fields: failed}
}

func (v *Validator) message(field string, rule types.ValidationRule) string {
	if rule.Message != "" {
		return rule.Message
	}
	param := ""
	switch val := rule.Value.(type) {
	case nil:
	case []any, []string:
		param = strings.Join(cast.ToStringSlice(val), " ")
	default:
		param = cast.ToString(val)
	}
	msg, err := v.trans.T(rule.Rule, field, param)
	if err != nil {
		return field + " is invalid"
	}
	return msg
}

// passes reports whether value satisfies rule. Blank values satisfy every
// rule except required and same_as; presence is required's job.
func (v *Validator) passes(rule types.ValidationRule, value any, data types.Record) (bool, error) {
	switch rule.Rule {
	case types.RuleRequired:
		return !blank(value), nil
	case types.RuleSameAs:
		other, err := cast.ToStringE(rule.Value)
		if err != nil || other == "" {
			return false, fmt.Errorf("%w: same_as needs a field name", types.ErrConfiguration)
		}
		return v.v.VarWithValue(text(value), text(data[other]), "eqcsfield") == nil, nil
	}
	if blank(value) {
		return true, nil
	}

	switch rule.Rule {
	case types.RuleMinLength, types.RuleMaxLength:
		n, err := cast.ToIntE(rule.Value)
		if err != nil {
			return false, fmt.Errorf("%w: %s needs an integer value", types.ErrConfiguration, rule.Rule)
		}
		tag := "min"
		if rule.Rule == types.RuleMaxLength {
			tag = "max"
		}
		return v.v.Var(text(value), fmt.Sprintf("%s=%d", tag, n)) == nil, nil

	case types.RuleMin, types.RuleMax:
		bound, err := cast.ToFloat64E(rule.Value)
		if err != nil {
			return false, fmt.Errorf("%w: %s needs a numeric value", types.ErrConfiguration, rule.Rule)
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(text(value)))
		if err != nil {
			return false, nil
		}
		tag := "gte"
		if rule.Rule == types.RuleMax {
			tag = "lte"
		}
		return v.v.Var(f, fmt.Sprintf("%s=%v", tag, bound)) == nil, nil

	case types.RuleInteger:
		if f, ok := value.(float64); ok {
			return f == math.Trunc(f), nil
		}
		return v.v.Var(strings.TrimSpace(text(value)), integerTag) == nil, nil

	case types.RuleNumeric:
		return v.v.Var(strings.TrimSpace(text(value)), "numeric") == nil, nil

	case types.RuleEmail:
		return v.v.Var(text(value), "email") == nil, nil

	case types.RuleURL:
		return v.v.Var(text(value), "url") == nil, nil

	case types.RuleDate:
		return v.v.Var(text(value), "datetime="+DateLayout) == nil, nil

	case types.RulePattern:
		re, err := v.pattern(rule.Value)
		if err != nil {
			return false, err
		}
		return re.MatchString(text(value)), nil

	case types.RuleOneOf:
		s := text(value)
		for _, opt := range cast.ToStringSlice(rule.Value) {
			if opt == s {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", types.ErrUnknownRule, rule.Rule)
}

// pattern compiles and caches a pattern rule value.
func (v *Validator) pattern(value any) (*regexp.Regexp, error) {
	src, err := cast.ToStringE(value)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern needs a string value", types.ErrConfiguration)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if re, ok := v.patterns[src]; ok {
		return re, nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", types.ErrConfiguration, src, err)
	}
	v.patterns[src] = re
	return re, nil
}

// blank reports a missing value: nil, an all-space string or an empty list.
func blank(value any) bool {
	switch t := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func text(value any) string {
	if value == nil {
		return ""
	}
	if f, ok := value.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return cast.ToString(int64(f))
	}
	return cast.ToString(value)
}
