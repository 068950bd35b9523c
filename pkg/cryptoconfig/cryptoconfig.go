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

// Package cryptoconfig selects the hash and HMAC algorithms used to sign
// request envelopes.
package cryptoconfig

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"strings"

	hverrors "github.com/tombee/healthvault/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Configuration is the collaborator that picks cryptographic primitives for
// the envelope's info hash and header HMAC.
type Configuration interface {
	// HashAlgorithm is the algName written next to the info hash.
	HashAlgorithm() string
	Hash(data []byte) []byte

	// HMACAlgorithm is the algName written next to the header HMAC.
	HMACAlgorithm() string
	HMAC(key, data []byte) []byte
}

type algorithm struct {
	hashName string
	hmacName string
	newHash  func() hash.Hash
	newKeyed func(key []byte) hash.Hash
}

var algorithms = map[string]algorithm{
	"sha256": {
		hashName: "SHA256",
		hmacName: "HMACSHA256",
		newHash:  sha256.New,
		newKeyed: func(key []byte) hash.Hash { return hmac.New(sha256.New, key) },
	},
	"sha512": {
		hashName: "SHA512",
		hmacName: "HMACSHA512",
		newHash:  sha512.New,
		newKeyed: func(key []byte) hash.Hash { return hmac.New(sha512.New, key) },
	},
	"blake2b-256": {
		hashName: "BLAKE2B256",
		hmacName: "BLAKE2B256MAC",
		newHash: func() hash.Hash {
			h, _ := blake2b.New256(nil)
			return h
		},
		newKeyed: func(key []byte) hash.Hash {
			// blake2b accepts keys up to 64 bytes; longer keys are hashed first.
			if len(key) > blake2b.Size {
				sum := blake2b.Sum512(key)
				key = sum[:]
			}
			h, _ := blake2b.New256(key)
			return h
		},
	},
}

type config struct {
	alg algorithm
}

// New returns the configuration for a named algorithm family: "sha256",
// "sha512" or "blake2b-256". An unknown name is a *errors.ConfigError.
func New(name string) (Configuration, error) {
	alg, ok := algorithms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &hverrors.ConfigError{
			Key:    "crypto.hash_algorithm",
			Reason: fmt.Sprintf("unsupported algorithm %q (supported: %s)", name, strings.Join(Supported(), ", ")),
		}
	}
	return &config{alg: alg}, nil
}

// Default returns the SHA-256 configuration.
func Default() Configuration {
	return &config{alg: algorithms["sha256"]}
}

// Supported lists the accepted algorithm names.
func Supported() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *config) HashAlgorithm() string { return c.alg.hashName }

func (c *config) Hash(data []byte) []byte {
	h := c.alg.newHash()
	h.Write(data)
	return h.Sum(nil)
}

func (c *config) HMACAlgorithm() string { return c.alg.hmacName }

func (c *config) HMAC(key, data []byte) []byte {
	h := c.alg.newKeyed(key)
	h.Write(data)
	return h.Sum(nil)
}
