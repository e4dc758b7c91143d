package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// rawSchema describes the JSON object providers are instructed to return.
// Numeric fields may arrive as strings; Normalize repairs those, so the
// schema accepts both and validation is advisory rather than blocking.
const rawSchema = `{
  "type": "object",
  "properties": {
    "date":          {"type": ["string", "null"]},
    "quantity":      {"type": ["number", "string", "null"]},
    "amountUSD":     {"type": ["number", "string", "null"]},
    "commissionUSD": {"type": ["number", "string", "null"]},
    "totalUSD":      {"type": ["number", "string", "null"]},
    "totalKRW":      {"type": ["number", "string", "null"]},
    "balanceKRW":    {"type": ["number", "string", "null"]}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader([]byte(rawSchema))); err != nil {
			schemaErr = fmt.Errorf("failed to load record schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("record.json")
	})
	return compiledSchema, schemaErr
}

// ValidateRaw checks a decoded provider object against the expected field
// shape. Failures are reported for logging only; Normalize still produces a
// complete record from whatever arrived.
func ValidateRaw(raw map[string]any) error {
	schema, err := compiled()
	if err != nil {
		return err
	}

	// Round-trip through JSON so numeric types match what the validator
	// expects from a decoded document.
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode raw object: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("failed to decode raw object: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("raw extraction does not match expected shape: %w", err)
	}
	return nil
}
