package model

// RuleField is the transaction attribute a rule inspects.
type RuleField string

const (
	RuleFieldDescription RuleField = "description"
	RuleFieldPayee       RuleField = "payee"
	RuleFieldAmount      RuleField = "amount"
)

// RuleOperator compares a transaction field to a rule's value.
type RuleOperator string

const (
	RuleContains    RuleOperator = "contains"
	RuleStartsWith  RuleOperator = "starts_with"
	RuleEndsWith    RuleOperator = "ends_with"
	RuleEquals      RuleOperator = "equals"
	RuleGreaterThan RuleOperator = "greater_than"
	RuleLessThan    RuleOperator = "less_than"
)

// RuleOperators lists every operator.
var RuleOperators = []RuleOperator{
	RuleContains, RuleStartsWith, RuleEndsWith, RuleEquals, RuleGreaterThan, RuleLessThan,
}

// Rule categorizes transactions whose Field satisfies Operator against
// Value. Higher Priority rules are tried first.
type Rule struct {
	ID         string
	OwnerID    string
	Name       string
	Priority   int
	Field      RuleField
	Operator   RuleOperator
	Value      string
	CategoryID string
	Payee      string
	Active     bool
}
