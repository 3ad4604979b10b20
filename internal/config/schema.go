package config

import "github.com/santhosh-tekuri/jsonschema/v5"

const schemaSource = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "sphsum case",
  "type": "object",
  "required": ["bodies"],
  "properties": {
    "name":          {"type": "string"},
    "dimension":     {"type": "integer", "enum": [2, 3]},
    "kernel":        {"type": "string", "enum": ["wendland_c2", "cubic_spline"]},
    "scheme":        {"type": "string", "minLength": 1},
    "steps":         {"type": "integer", "minimum": 1},
    "dt":            {"type": "number", "exclusiveMinimum": 0},
    "rebuild_every": {"type": "integer", "minimum": 0},
    "workers":       {"type": "integer", "minimum": 0},
    "backend":       {"type": "string", "enum": ["cpu", "serial"]},
    "h_ratio":       {"type": "number", "exclusiveMinimum": 0},
    "calibrate":     {"type": "boolean"},
    "bodies": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/$defs/body"}
    }
  },
  "additionalProperties": false,
  "$defs": {
    "vector": {
      "type": "array",
      "minItems": 2,
      "maxItems": 3,
      "items": {"type": "number"}
    },
    "body": {
      "type": "object",
      "required": ["name", "rho0", "dx", "size"],
      "properties": {
        "name":              {"type": "string", "minLength": 1},
        "rho0":              {"type": "number", "exclusiveMinimum": 0},
        "dx":                {"type": "number", "exclusiveMinimum": 0},
        "origin":            {"$ref": "#/$defs/vector"},
        "size":              {"$ref": "#/$defs/vector"},
        "scheme":            {"type": "string", "minLength": 1},
        "free_surface_band": {"type": "number", "minimum": 0},
        "contacts": {
          "type": "array",
          "items": {"type": "string"},
          "uniqueItems": true
        },
        "refinement": {
          "type": "object",
          "required": ["axis", "from", "ratio"],
          "properties": {
            "axis":  {"type": "integer", "minimum": 0, "maximum": 2},
            "from":  {"type": "number"},
            "ratio": {"type": "number", "exclusiveMinimum": 0}
          },
          "additionalProperties": false
        }
      },
      "additionalProperties": false
    }
  }
}`

var caseSchema = jsonschema.MustCompileString("sphsum-case.schema.json", schemaSource)
