// Package schema holds the JSON schemas for the decision provider wire format.
package schema

import _ "embed"

//go:embed decision_response_v1.schema.json
var DecisionResponseV1 string

const DecisionResponseV1Name = "decision_response_v1.schema.json"
