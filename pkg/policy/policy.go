// Package policy lints design facts with the Rego rules embedded from
// rules/. Every rule adds objects to the data.cvhdl.lint.violations set.
package policy

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"cvhdl/pkg/design"
	"cvhdl/pkg/schema"
)

//go:embed rules/*.rego
var rulesFS embed.FS

const violationsQuery = "data.cvhdl.lint.violations"

// Engine evaluates the lint rules against design facts.
type Engine struct {
	query     rego.PreparedEvalQuery
	validator *schema.Validator
}

// Violation is one lint finding.
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Entity   string `json:"entity"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// New prepares the embedded rules.
func New(ctx context.Context) (*Engine, error) {
	files, err := fs.Glob(rulesFS, "rules/*.rego")
	if err != nil {
		return nil, fmt.Errorf("finding policy files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no policy files embedded")
	}

	opts := []func(*rego.Rego){rego.Query(violationsQuery)}
	for _, f := range files {
		content, err := rulesFS.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		opts = append(opts, rego.Module(f, string(content)))
	}

	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing violations query: %w", err)
	}

	validator, err := schema.New()
	if err != nil {
		return nil, err
	}

	return &Engine{query: query, validator: validator}, nil
}

// Evaluate checks facts against the #Facts contract and runs the rules.
// Violations are sorted by line, then rule.
func (e *Engine) Evaluate(ctx context.Context, facts *design.Facts) ([]Violation, error) {
	if err := e.validator.ValidateFacts(facts); err != nil {
		return nil, fmt.Errorf("design facts: %w", err)
	}

	input, err := structToMap(facts)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	var violations []Violation
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		values, _ := rs[0].Expressions[0].Value.([]interface{})
		for _, v := range values {
			vmap, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			violations = append(violations, Violation{
				Rule:     getString(vmap, "rule"),
				Severity: getString(vmap, "severity"),
				Entity:   getString(vmap, "entity"),
				Line:     getInt(vmap, "line"),
				Message:  getString(vmap, "message"),
			})
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
	return violations, nil
}

// Filter keeps the violations whose rule enabled accepts.
func Filter(violations []Violation, enabled func(rule string) bool) []Violation {
	var kept []Violation
	for _, v := range violations {
		if enabled(v.Rule) {
			kept = append(kept, v)
		}
	}
	return kept
}

// ApplySeverity rewrites each violation's severity through severity, which
// receives the rule name and its default, and drops the ones it turns "off".
func ApplySeverity(violations []Violation, severity func(rule, def string) string) []Violation {
	var kept []Violation
	for _, v := range violations {
		v.Severity = severity(v.Rule, v.Severity)
		if v.Severity == "off" {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
