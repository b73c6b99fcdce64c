package classify

import "github.com/xeipuuv/gojsonschema"

// intentSchemaJSON accepts any strategy/field/order string; values are normalized after validation.
const intentSchemaJSON = `{
  "type": "object",
  "required": ["strategy"],
  "properties": {
    "strategy": {"type": "string", "minLength": 1},
    "filters": {
      "type": ["object", "null"],
      "properties": {
        "league": {"type": ["string", "null"]},
        "nationality": {"type": ["string", "null"]}
      }
    },
    "sort": {
      "type": ["object", "null"],
      "properties": {
        "field": {"type": ["string", "null"]},
        "order": {"type": ["string", "null"]}
      }
    }
  }
}`

var intentSchema = mustSchema(intentSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("classify: invalid intent schema: " + err.Error())
	}
	return s
}

// validate reports schema violations. A non-nil error means body is not JSON at all.
func validate(body string) ([]string, error) {
	res, err := intentSchema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, err
	}
	if res.Valid() {
		return nil, nil
	}
	errs := make([]string, len(res.Errors()))
	for i, desc := range res.Errors() {
		errs[i] = desc.String()
	}
	return errs, nil
}
