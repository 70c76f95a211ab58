package api

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaCurriculum = "curriculum_request"
	schemaSEO        = "seo_request"
)

// validator checks request bodies against the embedded JSON schemas.
type validator struct {
	schemas map[string]*gojsonschema.Schema
}

func newValidator() (*validator, error) {
	v := &validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, name := range []string{schemaCurriculum, schemaSEO} {
		b, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", name, err)
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
		if err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// validate returns a client-facing error when body does not satisfy schema.
func (v *validator) validate(schema string, body []byte) error {
	s, ok := v.schemas[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed JSON body")
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
