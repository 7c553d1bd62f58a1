package replyclient

import (
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ReplyRequest is the body of the "generate reply" call.
type ReplyRequest struct {
	Message string `json:"message" jsonschema:"description=the message the user submitted"`
}

// ReplyResponse is the expected body of a successful call. Extra fields are ignored.
type ReplyResponse struct {
	Reply string `json:"reply" jsonschema:"description=the assistant reply text"`
}

var (
	responseSchemaOnce sync.Once
	responseSchema     *gojsonschema.Schema
	responseSchemaErr  error
)

// ResponseSchema reflects ReplyResponse into a JSON schema: an object with a
// required string "reply" and any number of additional properties.
func ResponseSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
		Anonymous:                 true,
	}
	s := r.Reflect(&ReplyResponse{})
	// gojsonschema only understands up to draft 7, keep it on auto-detection
	s.Version = ""
	s.ID = ""
	return s
}

func compiledResponseSchema() (*gojsonschema.Schema, error) {
	responseSchemaOnce.Do(func() {
		responseSchema, responseSchemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(ResponseSchema()))
	})
	return responseSchema, responseSchemaErr
}

// ValidateResponse checks body against the response schema.
func ValidateResponse(body []byte) error {
	schema, err := compiledResponseSchema()
	if err != nil {
		return errors.Wrap(err, "could not compile response schema")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.Wrap(err, "response is not valid json")
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}
		return errors.Errorf("response does not match schema: %s", strings.Join(descriptions, "; "))
	}

	return nil
}
