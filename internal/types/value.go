package types

// QueryKind names the value-flow question a ValueReport answers
type QueryKind string

const (
	QueryAssigned QueryKind = "assigned"
	QueryReturn   QueryKind = "return"
)

// Value is one expression found by a value-flow query
type Value struct {
	Expr     string   `json:"expr"`
	Kind     string   `json:"kind"`
	Location Location `json:"location"`
}

// ValueReport lists the values a symbol may hold or a member may return
type ValueReport struct {
	Kind   QueryKind `json:"kind"`
	Query  string    `json:"query"`
	Symbol string    `json:"symbol"`
	At     string    `json:"at,omitempty"`
	Scope  string    `json:"scope"`
	Values []Value   `json:"values"`
}
