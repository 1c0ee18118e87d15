package validator

// Registry holds rules in registration order. Order matters: the engine runs
// rules in sequence so repeated validation of the same draft yields an
// identically ordered discrepancy list.
type Registry struct {
	rules []Rule
	keys  map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]bool)}
}

// Register appends a rule. A rule key registered twice is ignored.
func (r *Registry) Register(rule Rule) {
	if r.keys[rule.RuleKey()] {
		return
	}
	r.keys[rule.RuleKey()] = true
	r.rules = append(r.rules, rule)
}

// All returns the registered rules in registration order.
func (r *Registry) All() []Rule {
	return r.rules
}

// Get returns the rule for a given key, or nil if not registered.
func (r *Registry) Get(key string) Rule {
	for _, rule := range r.rules {
		if rule.RuleKey() == key {
			return rule
		}
	}
	return nil
}
