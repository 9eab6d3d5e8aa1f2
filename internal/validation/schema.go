package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"alfredoptarigan/interview-analyzer/internal/apperror"
)

const dateSchema = `{"type": ["string", "number", "null"]}`

// ProfileSchema describes the structured CV accepted by the scoring endpoint.
// Only the shape the scorer depends on is constrained; other fields pass through.
var ProfileSchema = `{
  "type": "object",
  "required": ["candidat"],
  "properties": {
    "candidat": {
      "type": "object",
      "properties": {
        "compétences": {
          "type": ["object", "null"],
          "properties": {
            "hard_skills": {"type": ["array", "null"], "items": {"type": "string"}}
          }
        },
        "formations": {"type": ["array", "null"]},
        "projets": {"type": ["array", "null"]},
        "expériences": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "properties": {
              "start_date": ` + dateSchema + `,
              "end_date": ` + dateSchema + `
            }
          }
        }
      }
    }
  }
}`

// AnalysisRequestSchema describes the interview analysis request body.
var AnalysisRequestSchema = `{
  "type": "object",
  "required": ["conversation_history", "job_description_text"],
  "properties": {
    "conversation_history": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "properties": {
          "role": {"type": "string", "enum": ["user", "assistant"]},
          "content": {"type": "string"}
        }
      }
    },
    "job_description_text": {"type": "string", "minLength": 1}
  }
}`

var (
	profileSchema  = mustCompile(ProfileSchema)
	analysisSchema = mustCompile(AnalysisRequestSchema)
)

func mustCompile(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return s
}

// ValidateProfile checks a raw scoring payload. Failures are InvalidInput errors.
func ValidateProfile(data []byte) error {
	return validate("validate profile", profileSchema, data)
}

// ValidateAnalysisRequest checks a raw analysis payload. Failures are InvalidInput errors.
func ValidateAnalysisRequest(data []byte) error {
	return validate("validate analysis request", analysisSchema, data)
}

func validate(op string, schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return apperror.InvalidInput(op, fmt.Sprintf("malformed JSON: %v", err))
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return apperror.InvalidInput(op, strings.Join(errs, "; "))
	}

	return nil
}
