package state

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed save.schema.json
var saveSchemaJSON string

var saveSchema = jsonschema.MustCompileString("save.schema.json", saveSchemaJSON)

// Audit checks a blob against the save JSON Schema. Loading never rejects a
// save; callers log the result to catch migrations that produce off-shape
// output (negative stock, wrong element types).
func Audit(b Blob) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode save: %w", err)
	}
	if err := saveSchema.Validate(doc); err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}
