package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/rfp-agent/constants"
)

func str() map[string]any { return map[string]any{"type": "string"} }

func nonEmpty() map[string]any { return map[string]any{"type": "string", "minLength": 1} }

func strList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func object(required []string, props map[string]any) map[string]any {
	props["id"] = nonEmpty()
	props["timestamp"] = map[string]any{"type": "string", "format": "date-time"}
	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"required":   append([]string{"id", "timestamp"}, required...),
		"properties": props,
	}
}

var recordSchemas = map[constants.Category]map[string]any{
	constants.RFPInsights: object([]string{"rfp_id", "insight_type", "content", "keywords"}, map[string]any{
		"rfp_id":          nonEmpty(),
		"insight_type":    nonEmpty(),
		"content":         str(),
		"keywords":        strList(),
		"outcome":         str(),
		"client_industry": str(),
		"project_domain":  str(),
		"related_section": str(),
	}),
	constants.ProposalFeedback: object([]string{"rfp_id", "proposal_version", "feedback_source", "feedback_text"}, map[string]any{
		"rfp_id":           nonEmpty(),
		"proposal_version": nonEmpty(),
		"feedback_source":  nonEmpty(),
		"feedback_text":    str(),
		"sentiment":        str(),
		"related_section":  str(),
	}),
	constants.BestPractices: object([]string{"title", "description", "keywords"}, map[string]any{
		"title":         nonEmpty(),
		"description":   str(),
		"category":      str(),
		"keywords":      strList(),
		"applicability": str(),
	}),
	constants.LessonsLearned: object([]string{"rfp_id", "lesson_title", "description", "keywords"}, map[string]any{
		"rfp_id":          nonEmpty(),
		"lesson_title":    nonEmpty(),
		"description":     str(),
		"impact":          str(),
		"recommendation":  str(),
		"keywords":        strList(),
		"related_section": str(),
	}),
}

func compileSchemas() (map[constants.Category]*jsonschema.Schema, error) {
	out := make(map[constants.Category]*jsonschema.Schema, len(recordSchemas))
	for cat, m := range recordSchemas {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", cat, err)
		}
		name := string(cat) + ".schema.json"
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", cat, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", cat, err)
		}
		out[cat] = schema
	}
	return out, nil
}

// validate checks a marshalled record against its category schema.
func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
