// Copyright 2025 Tom Barlow
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

package shared

import (
	"fmt"
	"regexp"

	"github.com/tombee/healthvault/pkg/thing"
)

var typeIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ResolveTypeID accepts a registered display name ("weight", "Blood
// Pressure") or a type id. Unregistered type ids are accepted as-is.
func ResolveTypeID(registry *thing.Registry, s string) (string, error) {
	if id, ok := registry.LookupName(s); ok {
		return id, nil
	}
	if registry.IsRegistered(s) || typeIDPattern.MatchString(s) {
		return s, nil
	}
	return "", NewUsageError(fmt.Sprintf("unknown thing type %q", s), fmt.Errorf("run 'hvctl types' to list known types"))
}
