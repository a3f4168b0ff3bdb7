package tools

import "encoding/json"

// Response schemas for schema-constrained gateway calls.

var keywordExpansionSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "translated": {"type": "array", "items": {"type": "string"}},
    "related": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["translated", "related"]
}`)

var comparisonSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "ranking": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "score": {"type": "number", "minimum": 0, "maximum": 100},
          "fit": {"type": "string"},
          "risks": {"type": "string"}
        },
        "required": ["title", "score", "fit"]
      }
    },
    "recommendation": {"type": "string"}
  },
  "required": ["ranking", "recommendation"]
}`)

// validationSchemaText is embedded in the prompt; grounded calls cannot
// carry a response schema.
const validationSchemaText = `{
  "callSummary": "string: key technical facts of the call",
  "overallScore": "number 0-100",
  "justification": "string",
  "suggestedRole": "string: coordinator, partner, subcontractor or not eligible",
  "criteria": [{"criterion": "string", "weight": "number", "score": "number 0-100", "reasoning": "string"}],
  "improvementPlan": {"steps": ["string"], "projectedScore": "number 0-100"}
}`

var evaluationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "scores": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "criterion": {"type": "string"},
          "score": {"type": "number"},
          "maxScore": {"type": "number"},
          "comments": {"type": "string"}
        },
        "required": ["criterion", "score", "maxScore", "comments"]
      }
    },
    "totalScore": {"type": "number"},
    "maxTotalScore": {"type": "number"},
    "verdict": {"type": "string"},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["scores", "totalScore", "maxTotalScore", "verdict"]
}`)

var conceptSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "idea": {"type": "string"},
    "objectives": {"type": "array", "items": {"type": "string"}},
    "mandatoryConditions": {"type": "array", "items": {"type": "string"}},
    "partners": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string"},
          "profile": {"type": "string"},
          "country": {"type": "string"}
        },
        "required": ["role", "profile"]
      }
    },
    "workPackages": {
      "type": "array",
      "minItems": 6,
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "objective": {"type": "string"},
          "leader": {"type": "string"},
          "startMonth": {"type": "integer", "minimum": 1},
          "endMonth": {"type": "integer", "minimum": 1}
        },
        "required": ["title", "objective", "leader", "startMonth", "endMonth"]
      }
    }
  },
  "required": ["idea", "objectives", "mandatoryConditions", "partners", "workPackages"]
}`)

var publicationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "acronym": {"type": "string"},
    "title": {"type": "string"},
    "pitch": {"type": "string"},
    "abstract": {"type": "string"},
    "keywords": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["acronym", "title", "pitch", "abstract"]
}`)

var reviewSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}},
    "inconsistencies": {"type": "array", "items": {"type": "string"}},
    "suggestions": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["strengths", "weaknesses", "inconsistencies", "suggestions"]
}`)

var adaptationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "actionPlan": {"type": "string"},
    "keyChanges": {"type": "array", "items": {"type": "string"}},
    "adaptedSections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "section": {"type": "string"},
          "text": {"type": "string"}
        },
        "required": ["section", "text"]
      }
    },
    "comparisonReport": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "section": {"type": "string"},
          "original": {"type": "string"},
          "adapted": {"type": "string"},
          "reason": {"type": "string"}
        },
        "required": ["section", "original", "adapted", "reason"]
      }
    }
  },
  "required": ["actionPlan", "keyChanges", "adaptedSections", "comparisonReport"]
}`)

var extractionSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "acronym": {"type": "string"},
    "budget": {"type": "string"},
    "durationMonths": {"type": "integer"},
    "objectives": {"type": "array", "items": {"type": "string"}},
    "summary": {"type": "string"},
    "feedbackSummary": {"type": "string"}
  },
  "required": ["title", "budget", "objectives", "summary"]
}`)

var reapplicationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "improvementPlan": {"type": "string"},
    "priorities": {"type": "array", "items": {"type": "string"}},
    "addressedWeaknesses": {"type": "array", "items": {"type": "string"}},
    "estimatedSuccessRate": {"type": "number", "minimum": 0, "maximum": 100}
  },
  "required": ["improvementPlan", "priorities", "estimatedSuccessRate"]
}`)
