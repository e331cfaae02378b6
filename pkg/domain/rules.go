package domain

import "context"

// RuleView provides read-only access to a candidate design for rule
// evaluation.
type RuleView interface {
	Parameters() Parameters
	ListHelices() []HelixID
	ListStrands() []StrandID
	FindHelix(id HelixID) (*Helix, bool)
	FindStrand(id StrandID) (*Strand, bool)
	StrandOfNucl(n Nucl) (StrandID, bool)
	Xovers() *XoverRegistry
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (e *RulesEngine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// View exposes d to rules.
func View(d *Design) RuleView { return designView{d} }

type designView struct{ d *Design }

func (v designView) Parameters() Parameters { return v.d.Parameters.OrDefault() }

func (v designView) ListHelices() []HelixID { return v.d.Helices.Keys() }

func (v designView) ListStrands() []StrandID { return v.d.Strands.Keys() }

func (v designView) FindHelix(id HelixID) (*Helix, bool) { return v.d.Helices.Get(id) }

func (v designView) FindStrand(id StrandID) (*Strand, bool) { return v.d.Strands.Get(id) }

func (v designView) StrandOfNucl(n Nucl) (StrandID, bool) { return v.d.StrandOfNucl(n) }

func (v designView) Xovers() *XoverRegistry { return v.d.Xovers() }
