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

package thing

import (
	"fmt"
	"strings"
)

// Key identifies one version of a thing. The service assigns both parts; the
// version stamp changes on every successful write.
type Key struct {
	ID           string
	VersionStamp string
}

// IsZero reports whether the key has no id.
func (k Key) IsZero() bool {
	return strings.TrimSpace(k.ID) == ""
}

// String formats the key as id@version.
func (k Key) String() string {
	if k.VersionStamp == "" {
		return k.ID
	}
	return fmt.Sprintf("%s@%s", k.ID, k.VersionStamp)
}
