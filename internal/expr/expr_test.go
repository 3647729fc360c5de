package expr

import (
	"testing"
)

// mapResolver implements Resolver for tests.
type mapResolver struct {
	data map[string]any
}

func (m *mapResolver) Resolve(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	v, ok := m.data[path[0]]
	if !ok || len(path) == 1 {
		return v, ok
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return (&mapResolver{data: sub}).Resolve(path[1:])
}

func vals(kv ...any) *mapResolver {
	m := &mapResolver{data: make(map[string]any)}
	for i := 0; i < len(kv)-1; i += 2 {
		m.data[kv[i].(string)] = kv[i+1]
	}
	return m
}

type evalCase struct {
	name    string
	expr    string
	r       Resolver
	want    bool
	wantErr bool
}

func TestEvaluate(t *testing.T) {
	cases := []evalCase{
		// Numeric comparisons
		{name: "gt true", expr: "amount > 1000", r: vals("amount", float64(1500)), want: true},
		{name: "gt false", expr: "amount > 1000", r: vals("amount", float64(500)), want: false},
		{name: "gte equal", expr: "amount >= 1000", r: vals("amount", float64(1000)), want: true},
		{name: "lt true", expr: "amount < 100", r: vals("amount", float64(50)), want: true},
		{name: "lte false", expr: "amount <= 9", r: vals("amount", float64(10)), want: false},
		{name: "int operand", expr: "amount == 5", r: vals("amount", 5), want: true},
		{name: "negative literal", expr: "delta > -3", r: vals("delta", float64(-2)), want: true},
		// Strings and booleans
		{name: "eq string true", expr: `category == "food"`, r: vals("category", "food"), want: true},
		{name: "eq string false", expr: `category == "food"`, r: vals("category", "fuel"), want: false},
		{name: "neq", expr: `category != "food"`, r: vals("category", "fuel"), want: true},
		{name: "bool literal", expr: "enabled == true", r: vals("enabled", true), want: true},
		{name: "single quotes", expr: "name == 'ada'", r: vals("name", "ada"), want: true},
		// Logic
		{name: "and both", expr: "a > 1 and b > 1", r: vals("a", 2.0, "b", 2.0), want: true},
		{name: "and short-circuit", expr: "a > 5 and b > 1", r: vals("a", 2.0, "b", 2.0), want: false},
		{name: "or second", expr: "a > 5 or b > 1", r: vals("a", 2.0, "b", 2.0), want: true},
		{name: "not", expr: "not a > 5", r: vals("a", 2.0), want: true},
		{name: "parens", expr: "(a > 5 or b > 1) and c == 1", r: vals("a", 1.0, "b", 2.0, "c", 1.0), want: true},
		// Dotted paths
		{name: "nested path", expr: "vars.amount > 10", r: vals("vars", map[string]any{"amount": float64(20)}), want: true},
		// contains / matches
		{name: "contains true", expr: `title contains "plan"`, r: vals("title", "master plan"), want: true},
		{name: "contains false", expr: `title contains "plan"`, r: vals("title", "sketch"), want: false},
		{name: "matches", expr: `code matches "^[A-Z]{3}-\\d+$"`, r: vals("code", "ABC-42"), want: true},
		// Errors
		{name: "undefined identifier", expr: "missing > 1", r: vals(), wantErr: true},
		{name: "order on strings", expr: "name > 1", r: vals("name", "ada"), wantErr: true},
		{name: "contains non-string", expr: `amount contains "4"`, r: vals("amount", float64(42)), wantErr: true},
		{name: "bad pattern", expr: `code matches "("`, r: vals("code", "x"), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Compile(tc.expr)
			if err != nil {
				t.Fatalf("compile %q: %v", tc.expr, err)
			}
			got, err := e.Bool(tc.r)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("want error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("eval %q: %v", tc.expr, err)
			}
			if got != tc.want {
				t.Fatalf("eval %q = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	bad := []string{
		"",
		"a >",
		"a ?? b",
		"(a > 1",
		`name == "unterminated`,
		"a > 1 trailing",
	}
	for _, src := range bad {
		if _, err := Compile(src); err == nil {
			t.Errorf("Compile(%q) succeeded, want error", src)
		}
	}
}

func TestCompiledExprIsReusable(t *testing.T) {
	e, err := Compile("amount > 10")
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range map[float64]bool{5: false, 15: true} {
		got, err := e.Bool(vals("amount", i))
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("amount=%v: got %v, want %v", i, got, want)
		}
	}
}
