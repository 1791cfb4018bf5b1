// Package contract holds the OpenAPI description of the prediction service
// and checks form definitions and outbound payloads against it. The document
// is embedded so the binary carries the contract it was built against.
package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-riskintake/pkg/forms"
	"github.com/goliatone/go-riskintake/pkg/model"
)

//go:embed openapi.yaml
var embeddedDocument []byte

// ErrUnknownOperation is returned when a definition names an operation the
// document does not declare.
var ErrUnknownOperation = errors.New("contract: unknown operation")

// Document is a parsed and validated contract.
type Document struct {
	spec       *openapi3.T
	operations map[string]operation
}

type operation struct {
	method  string
	path    string
	request *openapi3.Schema
}

// Raw returns the embedded OpenAPI source.
func Raw() []byte {
	return append([]byte(nil), embeddedDocument...)
}

// Load parses the embedded document.
func Load(ctx context.Context) (*Document, error) {
	return LoadData(ctx, embeddedDocument)
}

// LoadData parses and validates an OpenAPI document from raw bytes.
func LoadData(ctx context.Context, raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return nil, errors.New("contract: document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate document: %w", err)
	}

	doc := &Document{spec: spec, operations: make(map[string]operation)}
	if spec.Paths != nil {
		for path, item := range spec.Paths.Map() {
			if item == nil || item.Post == nil {
				continue
			}
			doc.collect("POST", path, item.Post)
		}
	}
	if len(doc.operations) == 0 {
		return nil, errors.New("contract: no operations declared")
	}
	return doc, nil
}

func (d *Document) collect(method, path string, op *openapi3.Operation) {
	if op.OperationID == "" {
		return
	}
	var request *openapi3.Schema
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if mt := op.RequestBody.Value.Content.Get("application/json"); mt != nil && mt.Schema != nil {
			request = mt.Schema.Value
		}
	}
	d.operations[op.OperationID] = operation{method: method, path: path, request: request}
}

// Operations lists the declared operation IDs in sorted order.
func (d *Document) Operations() []string {
	ids := make([]string, 0, len(d.operations))
	for id := range d.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Path returns the URL path an operation is mounted at.
func (d *Document) Path(operationID string) (string, bool) {
	op, ok := d.operations[operationID]
	return op.path, ok
}

// Check verifies that def and its operation agree: same field names, numeric
// fields typed as numbers, categorical codes equal to the schema enum.
func (d *Document) Check(def forms.Definition) error {
	op, ok := d.operations[def.Operation]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownOperation, def.Operation)
	}
	if op.request == nil {
		return fmt.Errorf("contract: %s: request schema missing", def.Operation)
	}

	var problems []string
	declared := make(map[string]struct{}, len(def.Fields))
	for _, field := range def.Fields {
		declared[field.Name] = struct{}{}
		ref, ok := op.request.Properties[field.Name]
		if !ok || ref == nil || ref.Value == nil {
			problems = append(problems, fmt.Sprintf("%s: not in request schema", field.Name))
			continue
		}
		if msg := checkField(def, field, ref.Value); msg != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", field.Name, msg))
		}
	}
	for name := range op.request.Properties {
		if _, ok := declared[name]; !ok {
			problems = append(problems, fmt.Sprintf("%s: missing from form %s", name, def.ID))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("contract: %s does not match %s: %s", def.ID, def.Operation, strings.Join(problems, "; "))
}

func checkField(def forms.Definition, field model.FieldSpec, schema *openapi3.Schema) string {
	switch field.Kind {
	case model.FieldKindNumeric:
		if !schema.Type.Is(openapi3.TypeNumber) && !schema.Type.Is(openapi3.TypeInteger) {
			return "expected a numeric schema"
		}
		return ""
	case model.FieldKindCategorical:
		wantType := openapi3.TypeString
		if def.Encoding == forms.CodesAsIntegers {
			wantType = openapi3.TypeInteger
		}
		if !schema.Type.Is(wantType) {
			return fmt.Sprintf("expected %s codes", wantType)
		}
		codes := make([]string, 0, len(field.Options))
		for _, opt := range field.Options {
			codes = append(codes, opt.Code)
		}
		enum := make([]string, 0, len(schema.Enum))
		for _, v := range schema.Enum {
			enum = append(enum, fmt.Sprint(v))
		}
		sort.Strings(codes)
		sort.Strings(enum)
		if strings.Join(codes, ",") != strings.Join(enum, ",") {
			return fmt.Sprintf("codes [%s] differ from enum [%s]", strings.Join(codes, ","), strings.Join(enum, ","))
		}
		return ""
	default:
		return fmt.Sprintf("unsupported kind %q", field.Kind)
	}
}

// ValidatePayload checks an outbound payload against the request schema of
// def's operation.
func (d *Document) ValidatePayload(_ context.Context, def forms.Definition, payload map[string]any) error {
	op, ok := d.operations[def.Operation]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownOperation, def.Operation)
	}
	if op.request == nil {
		return nil
	}

	// VisitJSON expects decoded JSON values, so round-trip the payload.
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("contract: encode payload: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("contract: decode payload: %w", err)
	}
	if err := op.request.VisitJSON(decoded, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("contract: %s payload rejected: %w", def.Operation, err)
	}
	return nil
}
