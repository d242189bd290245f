// Package schemavalidate validates pipedag's on-disk JSON documents — the
// run_info.json manifest and the loaded Config projection — against
// embedded JSON Schemas using gojsonschema.
package schemavalidate

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/run_info.schema.json schemas/config.schema.json
var schemaFS embed.FS

// ErrSchemaViolation is returned when a document fails schema validation;
// the error string carries every individual gojsonschema result.
var ErrSchemaViolation = errors.New("schemavalidate: document violates schema")

// ValidateRunInfo validates doc (typically a *runinfo.Manifest, or the
// generic map produced by decoding run_info.json) against the published
// manifest schema.
func ValidateRunInfo(doc any) error {
	return validate("schemas/run_info.schema.json", doc)
}

// ValidateConfig validates doc (typically a *config.Config) against the
// published configuration schema.
func ValidateConfig(doc any) error {
	return validate("schemas/config.schema.json", doc)
}

func validate(schemaPath string, doc any) error {
	schemaBytes, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("schemavalidate: read embedded schema %q: %w", schemaPath, err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	docLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schemavalidate: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		messages = append(messages, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(messages, "; "))
}
