package gemini

import (
	"github.com/smallnest/researchdeck/research"
	"google.golang.org/genai"
)

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

var planSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":           str(),
			"title":        str(),
			"researchPlan": str(),
		},
		Required: []string{"id", "title", "researchPlan"},
	},
}

var critiqueSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sufficient":   {Type: genai.TypeBoolean},
		"feedback":     str(),
		"refinedQuery": str(),
	},
	Required: []string{"sufficient", "feedback"},
}

var designSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":        str(),
		"points":       {Type: genai.TypeArray, Items: str()},
		"visualPrompt": str(),
		"layout":       {Type: genai.TypeString, Enum: layoutEnum()},
	},
	Required: []string{"title", "points", "visualPrompt", "layout"},
}

var auditSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"authenticityScore": {Type: genai.TypeNumber},
		"hallucinationRisk": {Type: genai.TypeString, Enum: []string{string(research.RiskLow), string(research.RiskMedium), string(research.RiskHigh)}},
		"critique":          str(),
	},
	Required: []string{"authenticityScore", "hallucinationRisk", "critique"},
}

var reportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":          str(),
		"detailedAnalysis": str(),
		"keyFindings":      {Type: genai.TypeArray, Items: str()},
		"dataPoints": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"label": str(),
					"value": {Type: genai.TypeNumber},
				},
				Required: []string{"label", "value"},
			},
		},
	},
	Required: []string{"summary", "detailedAnalysis", "keyFindings", "dataPoints"},
}

func layoutEnum() []string {
	out := make([]string, len(research.Layouts))
	for i, l := range research.Layouts {
		out[i] = string(l)
	}
	return out
}

func jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}
