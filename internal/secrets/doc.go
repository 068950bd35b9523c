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

/*
Package secrets stores HealthVault session tokens.

Tokens live in a SecretBackend: the OS keychain for interactive use, or
read-only environment variables for CI and containers.

	backend, err := secrets.NewBackend("keychain")
	tokens := secrets.NewSessionTokens(backend, secrets.TokenKey(appID), nil)
	conn, err := connection.NewHTTPConnection(client, connection.Options{Tokens: tokens, ...})

SessionTokens implements oauth2.TokenSource and drops its cached token when
the platform reports the session expired.
*/
package secrets
