// Copyright 2026 The Lattice Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpc

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goccy/go-yaml"
)

// OpenAPI builds an OpenAPI 3.1 document describing the procedure tree,
// served at {prefix}/openapi.json and {prefix}/openapi.yaml.
//
// Queries become GET operations whose input travels as the "input" query
// parameter; mutations become POST operations with a JSON request body.
// Procedures are tagged by their first path segment and identified by
// their full dotted path.
func (h *Handler) OpenAPI() map[string]any {
	paths := make(map[string]any, len(h.paths))
	tagSet := make(map[string]bool)

	for _, path := range h.paths {
		proc := h.procedures[path]
		tag := path
		if i := strings.Index(path, "."); i >= 0 {
			tag = path[:i]
		}
		tagSet[tag] = true

		operation := map[string]any{
			"operationId": path,
			"tags":        []string{tag},
			"responses": map[string]any{
				"200": map[string]any{
					"description": "Result envelope",
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": resultEnvelopeSchema(proc),
						},
					},
				},
				"default": map[string]any{
					"description": "Error envelope",
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": map[string]any{"$ref": "#/components/schemas/Error"},
						},
					},
				},
			},
		}

		var method string
		if proc.kind == KindMutation {
			method = "post"
			if proc.input != nil {
				if schema := proc.input.JSONSchema(); schema != nil {
					operation["requestBody"] = map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{"schema": schema},
						},
					}
				}
			}
		} else {
			method = "get"
			if proc.input != nil {
				parameter := map[string]any{
					"name":     "input",
					"in":       "query",
					"required": true,
				}
				if schema := proc.input.JSONSchema(); schema != nil {
					// The parameter is a JSON document inside a query
					// string value, so the schema rides under content.
					parameter["content"] = map[string]any{
						"application/json": map[string]any{"schema": schema},
					}
				} else {
					parameter["schema"] = map[string]any{"type": "string"}
				}
				operation["parameters"] = []any{parameter}
			}
		}

		paths["/"+path] = map[string]any{method: operation}
	}

	tags := make([]any, 0, len(tagSet))
	for _, path := range h.paths {
		tag := path
		if i := strings.Index(path, "."); i >= 0 {
			tag = path[:i]
		}
		if tagSet[tag] {
			tags = append(tags, map[string]any{"name": tag})
			delete(tagSet, tag)
		}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   h.info.Title,
			"version": h.info.Version,
		},
		"servers": []any{
			map[string]any{"url": h.prefix},
		},
		"paths": paths,
		"tags":  tags,
		"components": map[string]any{
			"schemas": map[string]any{
				"Error": map[string]any{
					"type":     "object",
					"required": []any{"error"},
					"properties": map[string]any{
						"error": map[string]any{
							"type":     "object",
							"required": []any{"message", "code"},
							"properties": map[string]any{
								"message": map[string]any{"type": "string"},
								"code":    map[string]any{"type": "string"},
								"issues":  map[string]any{"type": "array"},
							},
						},
					},
				},
			},
		},
	}
}

func resultEnvelopeSchema(proc *Procedure) map[string]any {
	result := map[string]any{}
	if proc.output != nil {
		if schema := proc.output.JSONSchema(); schema != nil {
			result = schema
		}
	}
	return map[string]any{
		"type":       "object",
		"required":   []any{"result"},
		"properties": map[string]any{"result": result},
	}
}

func (h *Handler) serveOpenAPIJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.OpenAPI()); err != nil {
		h.logger.Warn("openapi write failed", "error", err)
	}
}

func (h *Handler) serveOpenAPIYAML(w http.ResponseWriter) {
	doc, err := yaml.Marshal(h.OpenAPI())
	if err != nil {
		h.logger.Error("openapi yaml encoding failed", "error", err)
		h.writeError(w, &Error{
			Message: "internal server error",
			ErrCode: CodeInternalError,
			Status:  http.StatusInternalServerError,
		})
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		h.logger.Warn("openapi write failed", "error", err)
	}
}
