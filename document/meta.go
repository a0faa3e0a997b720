// Copyright 2025 Poiesic Systems
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


package document

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// DefaultSystemMetaKey is the metadata key under which the source system
// stores its nested JSON-encoded block. The schema of that block is a
// source-system convention, so the key is configurable on the Builder.
const DefaultSystemMetaKey = "helium"

// Meta is the index-safe reshaping of an object's free-form metadata.
// Maps are never nil and strings never null-like, so the indexed field
// types stay stable.
type Meta struct {
	System  map[string]any
	User    map[string]any
	Comment string
	Target  string
	Text    string
}

// TransformMeta reshapes raw object metadata. If the nested system block is
// present under systemKey, its user_meta sub-block and comment/target
// fields are popped out of it; Text concatenates comment, target, the
// serialized remainder of the system block, and the serialized user block,
// in that order.
func TransformMeta(meta map[string]any, systemKey string) Meta {
	system := map[string]any{}
	user := map[string]any{}
	comment := ""
	target := ""

	if nested, ok := meta[systemKey].(map[string]any); ok {
		for k, v := range nested {
			system[k] = v
		}
		if u, ok := system["user_meta"].(map[string]any); ok {
			user = u
		}
		delete(system, "user_meta")
		if c, ok := system["comment"].(string); ok {
			comment = c
		}
		delete(system, "comment")
		if t, ok := system["target"].(string); ok {
			target = t
		}
		delete(system, "target")
	}

	parts := []string{comment, target}
	if len(system) > 0 {
		parts = append(parts, marshalForText(system))
	}
	if len(user) > 0 {
		parts = append(parts, marshalForText(user))
	}

	return Meta{
		System:  system,
		User:    user,
		Comment: comment,
		Target:  target,
		Text:    strings.Join(parts, " "),
	}
}

// DecodeHeadMeta lifts the string-valued metadata mapping returned by a
// head probe into the form TransformMeta consumes, JSON-decoding the nested
// system block. An undecodable block is kept as its raw string so the
// object still indexes.
func DecodeHeadMeta(meta map[string]string, systemKey string) map[string]any {
	if len(meta) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	if raw, ok := meta[systemKey]; ok {
		var nested map[string]any
		if err := json.Unmarshal([]byte(raw), &nested); err != nil {
			slog.Warn("unable to parse nested system metadata", "key", systemKey, "error", err)
		} else {
			out[systemKey] = nested
		}
	}
	return out
}

func marshalForText(m map[string]any) string {
	encoded, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(encoded)
}
