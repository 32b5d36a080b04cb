package analytics

import (
	"encoding/json"

	"survey-server/internal/models"
)

// Схемы структурированных ответов LLM для классификации вопроса и четырех
// качественных анализов. Формы подобраны под конкретные визуализации на
// клиенте (радар тем, граф персон, поток сентимента, тепловая карта).

const classificationSchemaBody = `{
    "type": "object",
    "properties": {
        "scale_type": {
            "type": "string",
            "enum": ["likert", "numeric", "binary", "categorical"]
        },
        "is_likert": {"type": "boolean"},
        "ordered_options": {
            "type": ["array", "null"],
            "description": "Options ordered from negative to positive, null if no natural order.",
            "items": {"type": "string"}
        }
    },
    "required": ["scale_type", "is_likert", "ordered_options"],
    "additionalProperties": false
}`

func classificationSchema() *models.ResponseSchema {
	return &models.ResponseSchema{
		Name:        "question_classification",
		Description: "Classification of a survey question scale type.",
		Strict:      true,
		Schema:      json.RawMessage(classificationSchemaBody),
	}
}

const themeRadarSchemaBody = `{
    "type": "object",
    "properties": {
        "themes": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "name": {"type": "string"},
                    "strength": {"type": "number"},
                    "sentiment": {
                        "type": "string",
                        "enum": ["positive", "negative", "mixed"]
                    },
                    "frequency": {"type": "integer"},
                    "supporting_quotes": {
                        "type": "array",
                        "items": {"type": "string"}
                    },
                    "related_themes": {
                        "type": "array",
                        "items": {"type": "string"}
                    }
                },
                "required": ["name", "strength", "sentiment", "frequency", "supporting_quotes", "related_themes"],
                "additionalProperties": false
            }
        },
        "primary_theme": {"type": "string"},
        "theme_connections": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "source": {"type": "string"},
                    "target": {"type": "string"}
                },
                "required": ["source", "target"],
                "additionalProperties": false
            }
        }
    },
    "required": ["themes", "primary_theme", "theme_connections"],
    "additionalProperties": false
}`

const personaNetworkSchemaBody = `{
    "type": "object",
    "properties": {
        "nodes": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "id": {"type": "string"},
                    "role": {"type": "string"},
                    "experience_level": {
                        "type": "string",
                        "enum": ["junior", "mid", "senior", "leadership"]
                    },
                    "sentiment_score": {"type": "number"},
                    "key_concerns": {
                        "type": "array",
                        "items": {"type": "string"}
                    },
                    "primary_response": {"type": "string"}
                },
                "required": ["id", "role", "experience_level", "sentiment_score", "key_concerns", "primary_response"],
                "additionalProperties": false
            }
        },
        "connections": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "source_id": {"type": "string"},
                    "target_id": {"type": "string"},
                    "strength": {"type": "number"},
                    "shared_views": {
                        "type": "array",
                        "items": {"type": "string"}
                    },
                    "divergent_views": {
                        "type": "array",
                        "items": {"type": "string"}
                    }
                },
                "required": ["source_id", "target_id", "strength", "shared_views", "divergent_views"],
                "additionalProperties": false
            }
        },
        "clusters": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "name": {"type": "string"},
                    "members": {
                        "type": "array",
                        "items": {"type": "string"}
                    }
                },
                "required": ["name", "members"],
                "additionalProperties": false
            }
        }
    },
    "required": ["nodes", "connections", "clusters"],
    "additionalProperties": false
}`

const sentimentFlowSchemaBody = `{
    "type": "object",
    "properties": {
        "stages": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "stage_name": {"type": "string"},
                    "positive_score": {"type": "number"},
                    "neutral_score": {"type": "number"},
                    "negative_score": {"type": "number"},
                    "key_drivers": {
                        "type": "array",
                        "items": {"type": "string"}
                    },
                    "common_phrases": {
                        "type": "array",
                        "items": {"type": "string"}
                    }
                },
                "required": ["stage_name", "positive_score", "neutral_score", "negative_score", "key_drivers", "common_phrases"],
                "additionalProperties": false
            }
        },
        "trend": {
            "type": "string",
            "enum": ["improving", "declining", "stable", "mixed"]
        },
        "critical_points": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "stage": {"type": "string"},
                    "description": {"type": "string"}
                },
                "required": ["stage", "description"],
                "additionalProperties": false
            }
        }
    },
    "required": ["stages", "trend", "critical_points"],
    "additionalProperties": false
}`

const responseHeatmapSchemaBody = `{
    "type": "object",
    "properties": {
        "x_axis": {
            "type": "array",
            "items": {"type": "string"}
        },
        "y_axis": {
            "type": "array",
            "items": {"type": "string"}
        },
        "cells": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "x": {"type": "string"},
                    "y": {"type": "string"},
                    "value": {"type": "number"},
                    "count": {"type": "integer"},
                    "notable_responses": {
                        "type": "array",
                        "items": {"type": "string"}
                    }
                },
                "required": ["x", "y", "value", "count", "notable_responses"],
                "additionalProperties": false
            }
        },
        "patterns": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "name": {"type": "string"},
                    "description": {"type": "string"}
                },
                "required": ["name", "description"],
                "additionalProperties": false
            }
        },
        "hotspots": {
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "location": {"type": "string"},
                    "insights": {
                        "type": "array",
                        "items": {"type": "string"}
                    }
                },
                "required": ["location", "insights"],
                "additionalProperties": false
            }
        }
    },
    "required": ["x_axis", "y_axis", "cells", "patterns", "hotspots"],
    "additionalProperties": false
}`

func themeRadarSchema() *models.ResponseSchema {
	return &models.ResponseSchema{
		Name:        "theme_radar",
		Description: "Thematic analysis of survey responses for a radar chart.",
		Strict:      true,
		Schema:      json.RawMessage(themeRadarSchemaBody),
	}
}

func personaNetworkSchema() *models.ResponseSchema {
	return &models.ResponseSchema{
		Name:        "persona_network",
		Description: "Relationships and clusters among personas for a network graph.",
		Strict:      true,
		Schema:      json.RawMessage(personaNetworkSchemaBody),
	}
}

func sentimentFlowSchema() *models.ResponseSchema {
	return &models.ResponseSchema{
		Name:        "sentiment_flow",
		Description: "Sentiment progression across experience stages for a flow chart.",
		Strict:      true,
		Schema:      json.RawMessage(sentimentFlowSchemaBody),
	}
}

func responseHeatmapSchema() *models.ResponseSchema {
	return &models.ResponseSchema{
		Name:        "response_heatmap",
		Description: "Response patterns by experience level for a heatmap.",
		Strict:      true,
		Schema:      json.RawMessage(responseHeatmapSchemaBody),
	}
}
