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
)

// Manifest is the machine-readable inventory of a procedure tree, served
// at {prefix}/manifest.json. Clients use it for discovery and codegen.
type Manifest struct {
	Title      string                       `json:"title"`
	Version    string                       `json:"version"`
	Procedures map[string]ManifestProcedure `json:"procedures"`
}

// ManifestProcedure describes one mounted procedure.
type ManifestProcedure struct {
	Type         string         `json:"type"`
	Path         string         `json:"path"`
	InputSchema  map[string]any `json:"inputSchema,omitempty"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

// Manifest builds the inventory document.
func (h *Handler) Manifest() Manifest {
	procedures := make(map[string]ManifestProcedure, len(h.paths))
	for _, path := range h.paths {
		proc := h.procedures[path]
		entry := ManifestProcedure{Type: proc.kind.String(), Path: path}
		if proc.input != nil {
			entry.InputSchema = proc.input.JSONSchema()
		}
		if proc.output != nil {
			entry.OutputSchema = proc.output.JSONSchema()
		}
		procedures[path] = entry
	}
	return Manifest{
		Title:      h.info.Title,
		Version:    h.info.Version,
		Procedures: procedures,
	}
}

func (h *Handler) serveManifest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.Manifest()); err != nil {
		h.logger.Warn("manifest write failed", "error", err)
	}
}
