// Package dependency tracks conditional fields.
//
// A Rule declares that a dependent field is active only while a predicate
// holds for the value of a watched field. A RuleSet validates paths when it
// is built and Evaluate turns a snapshot of form values into the set of
// active fields plus a copy of the values with inactive fields removed.
//
//	rules, err := dependency.NewRuleSet([]dependency.Rule{
//		{Watch: "attendeeType", When: dependency.Equals("speaker"), Field: "affiliation"},
//		{Watch: "affiliation", When: dependency.Equals("company"), Field: "orgName", KeepValue: true},
//	}, dependency.WithSchema(formSchema))
//
//	result, err := rules.Evaluate(values)
//
// Evaluate is pure: it never mutates its input and holds no state between
// calls, so hosts can call it on every change event. Rules are ordered so
// that a field is settled before anything watching it runs, which makes
// multi-tier chains resolve in a single pass; cycles fail with
// ErrCyclicDependency.
package dependency
