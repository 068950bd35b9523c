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

package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"strings"
	"time"

	"github.com/tombee/healthvault/pkg/cryptoconfig"
	hverrors "github.com/tombee/healthvault/pkg/errors"
)

const (
	requestNamespace = "urn:com.microsoft.wc.request"
	msgTimeFormat    = "2006-01-02T15:04:05.000Z"

	// DefaultMessageTTL is the validity window, in seconds, written to msg-ttl.
	DefaultMessageTTL = 1800
)

// Request is the outer envelope for one platform method call.
type Request struct {
	Method        string
	MethodVersion int

	// RecordID targets a health record. Application-level calls leave it empty.
	RecordID string

	AppID string

	// AuthToken is the user session token. When empty the request
	// authenticates with AppID alone.
	AuthToken string

	// SharedSecret, when set, is used to HMAC the header.
	SharedSecret []byte

	Language string
	Country  string

	// MessageTime defaults to the current time.
	MessageTime time.Time

	// MessageTTL is in seconds and defaults to DefaultMessageTTL.
	MessageTTL int

	// Version identifies the client library.
	Version string

	// Info is the content of the <info> element, as produced by the Build*
	// functions.
	Info []byte
}

type headerXML struct {
	XMLName       xml.Name        `xml:"header"`
	Method        string          `xml:"method"`
	MethodVersion int             `xml:"method-version"`
	RecordID      string          `xml:"record-id,omitempty"`
	AuthSession   *authSessionXML `xml:"auth-session,omitempty"`
	AppID         string          `xml:"app-id,omitempty"`
	Language      string          `xml:"language"`
	Country       string          `xml:"country"`
	MsgTime       string          `xml:"msg-time"`
	MsgTTL        int             `xml:"msg-ttl"`
	Version       string          `xml:"version"`
	InfoHash      hashXML         `xml:"info-hash>hash-data"`
}

type authSessionXML struct {
	AuthToken string `xml:"auth-token"`
}

type hashXML struct {
	Algorithm string `xml:"algName,attr"`
	Value     string `xml:",chardata"`
}

type authXML struct {
	XMLName xml.Name `xml:"auth"`
	HMAC    hashXML  `xml:"hmac-data"`
}

// Marshal renders the envelope. The info hash covers the serialized <info>
// element and the HMAC, when a shared secret is set, covers the serialized
// <header> element.
func (r *Request) Marshal(crypto cryptoconfig.Configuration) ([]byte, error) {
	if strings.TrimSpace(r.Method) == "" {
		return nil, &hverrors.ValidationError{Field: "method", Message: "must not be empty"}
	}
	if r.AuthToken == "" && r.AppID == "" {
		return nil, &hverrors.ValidationError{Field: "app-id", Message: "an app id or auth token is required"}
	}
	if crypto == nil {
		crypto = cryptoconfig.Default()
	}

	info := make([]byte, 0, len(r.Info)+13)
	info = append(info, "<info>"...)
	info = append(info, r.Info...)
	info = append(info, "</info>"...)

	msgTime := r.MessageTime
	if msgTime.IsZero() {
		msgTime = time.Now()
	}
	ttl := r.MessageTTL
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	version := r.MethodVersion
	if version <= 0 {
		version = 1
	}

	h := headerXML{
		Method:        r.Method,
		MethodVersion: version,
		RecordID:      r.RecordID,
		Language:      orDefault(r.Language, "en"),
		Country:       orDefault(r.Country, "US"),
		MsgTime:       msgTime.UTC().Format(msgTimeFormat),
		MsgTTL:        ttl,
		Version:       r.Version,
		InfoHash: hashXML{
			Algorithm: crypto.HashAlgorithm(),
			Value:     base64.StdEncoding.EncodeToString(crypto.Hash(info)),
		},
	}
	if r.AuthToken != "" {
		h.AuthSession = &authSessionXML{AuthToken: r.AuthToken}
	} else {
		h.AppID = r.AppID
	}
	header, err := xml.Marshal(h)
	if err != nil {
		return nil, &hverrors.SerializationError{Type: "header", Message: "encoding", Cause: err}
	}

	var buf bytes.Buffer
	buf.WriteString(`<wc-request:request xmlns:wc-request="` + requestNamespace + `">`)
	if len(r.SharedSecret) > 0 && r.AuthToken != "" {
		auth, err := xml.Marshal(authXML{HMAC: hashXML{
			Algorithm: crypto.HMACAlgorithm(),
			Value:     base64.StdEncoding.EncodeToString(crypto.HMAC(r.SharedSecret, header)),
		}})
		if err != nil {
			return nil, &hverrors.SerializationError{Type: "auth", Message: "encoding", Cause: err}
		}
		buf.Write(auth)
	}
	buf.Write(header)
	buf.Write(info)
	buf.WriteString(`</wc-request:request>`)
	return buf.Bytes(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
