// Copyright 2026 The JazzPetri Authors
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

package petri

import (
	"fmt"
	"sort"
	"strings"
)

// Marking is a snapshot of token counts per place. Only the initial marking
// of a net is ever materialized as a Marking; all other markings exist as
// symbolic variable vectors inside generated formulas. Witness markings
// extracted from solver models also use this type.
type Marking map[string]int

// Copy returns a deep copy of the marking.
// Modifications to one do not affect the other.
func (m Marking) Copy() Marking {
	c := make(Marking, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// String returns the marking in the textual format of the .net tooling:
// one "place(count)" entry per place with tokens, sorted by place ID,
// or "empty marking" when no place has a token.
func (m Marking) String() string {
	ids := make([]string, 0, len(m))
	for id, count := range m {
		if count > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "empty marking"
	}
	sort.Strings(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s(%d)", id, m[id])
	}
	return strings.Join(parts, " ")
}
