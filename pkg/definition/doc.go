// Package definition loads declarative form definitions (schema, defaults,
// field order and dependency rules) from JSON or YAML files.
//
//	id: attendee
//	schema:
//	  type: object
//	  properties: { ... }
//	fields:
//	  - path: attendeeType
//	    label: Attendee type
//	rules:
//	  - watch: attendeeType
//	    oneOf: [attendee, sponsor]
//	    field: affiliation
//	  - watch: affiliation
//	    when: value == "company"
//	    engine: expr
//	    field: orgName
//
// Conditions combine: `equals`, `oneOf`, `present`, `truthy` and an
// expression in `when` must all hold; `not` negates the result.
package definition
