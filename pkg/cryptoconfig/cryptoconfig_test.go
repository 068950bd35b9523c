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

package cryptoconfig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hverrors "github.com/tombee/healthvault/pkg/errors"
)

func TestNew_Unknown(t *testing.T) {
	_, err := New("md5")

	var cfgErr *hverrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "crypto.hash_algorithm", cfgErr.Key)
}

func TestDefault_SHA256(t *testing.T) {
	c := Default()
	assert.Equal(t, "SHA256", c.HashAlgorithm())
	assert.Equal(t, "HMACSHA256", c.HMACAlgorithm())

	sum := sha256.Sum256([]byte("info"))
	assert.Equal(t, sum[:], c.Hash([]byte("info")))

	mac := hmac.New(sha256.New, []byte("key"))
	mac.Write([]byte("header"))
	assert.Equal(t, mac.Sum(nil), c.HMAC([]byte("key"), []byte("header")))
}

func TestAllAlgorithms(t *testing.T) {
	for _, name := range Supported() {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)

			a := c.Hash([]byte("data"))
			assert.Equal(t, a, c.Hash([]byte("data")), "hash must be deterministic")
			assert.NotEqual(t, hex.EncodeToString(a), hex.EncodeToString(c.Hash([]byte("other"))))

			longKey := make([]byte, 100)
			assert.NotEqual(t, c.HMAC([]byte("k1"), []byte("d")), c.HMAC([]byte("k2"), []byte("d")))
			assert.NotEmpty(t, c.HMAC(longKey, []byte("d")))
		})
	}
}

func TestNew_CaseInsensitive(t *testing.T) {
	c, err := New(" BLAKE2b-256 ")
	require.NoError(t, err)
	assert.Equal(t, "BLAKE2B256", c.HashAlgorithm())
	assert.Len(t, c.Hash(nil), 32)
}
