// Package schema validates model-produced pain point entities.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/painpoint-cli/internal/model"
)

const painPointSchemaURL = "https://painpoint.local/schema/pain_point.schema.json"

//go:embed pain_point.schema.json
var painPointSchemaJSON []byte

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// ValidatePainPoint checks one entity against the pain point schema and
// decodes it. Frequency, sentiment and relevance are left for the caller to
// derive.
func ValidatePainPoint(raw json.RawMessage) (model.PainPoint, error) {
	schema, err := painPointSchema()
	if err != nil {
		return model.PainPoint{}, err
	}

	var value any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return model.PainPoint{}, eris.Wrap(err, "schema: decode entity")
	}
	if err := schema.Validate(value); err != nil {
		return model.PainPoint{}, eris.Wrap(err, "schema: pain point invalid")
	}

	var entity struct {
		Name        string                  `json:"name"`
		Description string                  `json:"description"`
		Examples    []string                `json:"examples"`
		Sources     []model.PainPointSource `json:"sources"`
	}
	if err := json.Unmarshal(raw, &entity); err != nil {
		return model.PainPoint{}, eris.Wrap(err, "schema: unmarshal entity")
	}
	return model.PainPoint{
		Name:        strings.TrimSpace(entity.Name),
		Description: strings.TrimSpace(entity.Description),
		Examples:    entity.Examples,
		Sources:     entity.Sources,
	}, nil
}

func painPointSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(painPointSchemaURL, bytes.NewReader(painPointSchemaJSON)); err != nil {
			compileErr = eris.Wrap(err, "schema: add pain point resource")
			return
		}
		compiledSchema, compileErr = compiler.Compile(painPointSchemaURL)
		if compileErr != nil {
			compileErr = eris.Wrap(compileErr, "schema: compile pain point")
		}
	})
	return compiledSchema, compileErr
}
