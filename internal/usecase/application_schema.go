package usecase

import (
	"github.com/xeipuuv/gojsonschema"
)

// applicationDocumentSchema is the shape accepted by ValidateApplication.
// Value rules (formats, dates, required fields) are left to the form engine so
// that they come back as form errors, not as a rejected document.
const applicationDocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["profile"],
  "properties": {
    "profile": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "firstname":   {"type": "string"},
        "lastname":    {"type": "string"},
        "email":       {"type": "string"},
        "phoneNumber": {"type": "string"}
      }
    },
    "address": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "street": {"type": "string", "maxLength": 200},
        "city":   {"type": "string", "maxLength": 100},
        "zip":    {"type": "string", "maxLength": 10},
        "state":  {"type": "string", "maxLength": 2}
      }
    },
    "education": {
      "type": "array",
      "maxItems": 20,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "id":         {"type": "integer"},
          "schoolType": {"enum": ["", "highschool", "undergraduate", "graduate", "doctorate"]},
          "schoolName": {"type": "string"},
          "state":      {"type": "string"},
          "gradDate":   {"type": "string"},
          "degree":     {"enum": ["", "highschooldiploma", "bachelors", "masters", "doctoral"]}
        }
      }
    },
    "workExperience": {
      "type": "array",
      "maxItems": 20,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "id":          {"type": "integer"},
          "jobTitle":    {"type": "string"},
          "companyName": {"type": "string"},
          "location":    {"type": "string"},
          "startDate":   {"type": "string"},
          "endDate":     {"type": "string"},
          "duties":      {"type": "string"}
        }
      }
    },
    "resume": {"oneOf": [{"type": "null"}, {"$ref": "#/definitions/fileRef"}]},
    "documents": {
      "type": "array",
      "items": {"$ref": "#/definitions/fileRef"}
    },
    "demographics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "race":            {"enum": ["", "White", "Black", "Native Indian", "Hawaiian", "Hispanic", "Asian", "Multiple", "Decline"]},
        "gender":          {"enum": ["", "male", "female", "other", "Decline"]},
        "willingToTravel": {"enum": ["", "yes", "no"]}
      }
    }
  },
  "definitions": {
    "fileRef": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name":        {"type": "string"},
        "size":        {"type": "integer", "minimum": 0},
        "contentType": {"type": "string"},
        "uploadedAt":  {"type": "string"},
        "storageKey":  {"type": "string"}
      }
    }
  }
}`

func mustCompileApplicationSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(applicationDocumentSchema))
	if err != nil {
		panic("usecase: invalid application document schema: " + err.Error())
	}
	return schema
}

// checkDocumentShape returns one message per schema violation, or nil.
func checkDocumentShape(schema *gojsonschema.Schema, document []byte) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return errs, nil
}
