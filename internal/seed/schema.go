// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package seed

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the seed manifest schema.
const SchemaID = "https://inventra.dev/schemas/seed.schema.json"

const schemaResource = "seed.schema.json"

var (
	schemaMu    sync.Mutex
	schemaCache *jschema.Schema
)

// GenerateSchema generates the JSON Schema of the Manifest type.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&Manifest{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Inventra Seed Manifest"
	schema.Description = "Branches, roles and accounts provisioned by inventra seed"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").With("operation", "marshal schema").Wrap(err)
	}
	return data, nil
}

// ValidateSchema checks YAML data against the manifest schema. It catches
// structural errors only; ParseManifest also checks references.
func ValidateSchema(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return oops.Code(CodeInvalidManifest).Errorf("manifest data is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code(CodeInvalidManifest).With("operation", "decode YAML").Wrap(err)
	}

	// Round trip through JSON so the validator sees JSON value types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return oops.Code(CodeInvalidManifest).With("operation", "convert YAML to JSON").Wrap(err)
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return oops.Code(CodeInvalidManifest).With("operation", "convert YAML to JSON").Wrap(err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return oops.Code(CodeInvalidManifest).With("operation", "validate schema").Wrap(err)
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if schemaCache != nil {
		return schemaCache, nil
	}

	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").With("operation", "parse schema").Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").With("operation", "add schema resource").Wrap(err)
	}
	sch, err := c.Compile(schemaResource)
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").With("operation", "compile schema").Wrap(err)
	}

	schemaCache = sch
	return sch, nil
}

// FormatSchemaError returns the validator's message without wrapping
// prefixes, for display to operators.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	var ve *jschema.ValidationError
	if errors.As(err, &ve) {
		return strings.TrimSpace(ve.Error())
	}
	return err.Error()
}
