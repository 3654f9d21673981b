package scene

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema describes the scene document for editors and validators.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(Scene{}))
	schema.Title = "Navigation Scene"
	schema.Description = "Collision geometry, mesh parameters, agents and node links of one navigation scene."
	return schema
}

// SchemaJSON renders Schema as indented JSON with a trailing newline.
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("scene: marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
