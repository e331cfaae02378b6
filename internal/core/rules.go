package core

import (
	"origamicore/pkg/domain"
)

// Rule aliases domain.Rule for callers that extend the default engine.
type Rule = domain.Rule

// RulesEngine aliases domain.RulesEngine.
type RulesEngine = domain.RulesEngine

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in sanity checks
// every committed design must pass.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	for _, rule := range defaultRules() {
		engine.Register(rule)
	}
	return engine
}

func defaultRules() []Rule {
	return []Rule{
		NewHalfHelixExclusivityRule(),
		NewHelixReferenceRule(),
		NewSaneStrandRule(),
		NewXoverBijectionRule(),
	}
}

// touches reports whether changes may affect entities of kind. A nil change
// set means the whole design is evaluated.
func touches(changes []domain.Change, kinds ...domain.EntityType) bool {
	if changes == nil {
		return true
	}
	for _, c := range changes {
		for _, k := range kinds {
			if c.Entity == k {
				return true
			}
		}
	}
	return false
}
