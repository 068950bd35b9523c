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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/healthvault/pkg/cryptoconfig"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/itemtypes"
	"github.com/tombee/healthvault/pkg/query"
	"github.com/tombee/healthvault/pkg/thing"
)

func newWeight(kg float64) *itemtypes.Weight {
	w := itemtypes.NewWeight()
	w.SetWhen(time.Date(2024, 3, 14, 7, 30, 0, 0, time.UTC))
	w.SetKilograms(kg)
	return w
}

func TestBuildGetThingsInfo(t *testing.T) {
	info, err := BuildGetThingsInfo([]*query.ThingQuery{
		query.ForThingID("a"),
		query.ForTypeIDs(itemtypes.WeightTypeID),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(info), "<group>"))
	assert.Less(t, strings.Index(string(info), "<id>a</id>"), strings.Index(string(info), "<type-id>"))
}

func TestBuildGetThingsInfo_Empty(t *testing.T) {
	_, err := BuildGetThingsInfo(nil)
	var protoErr *hverrors.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.ErrorIs(t, err, query.ErrEmptyFilter)

	_, err = BuildGetThingsInfo([]*query.ThingQuery{query.ForThingID("a"), query.New()})
	assert.ErrorIs(t, err, query.ErrEmptyFilter)
}

func TestBuildPutThingsInfo(t *testing.T) {
	w := newWeight(72.5)
	info, written, err := BuildPutThingsInfo([]thing.Thing{w}, false)
	require.NoError(t, err)
	require.Len(t, written, 1)

	s := string(info)
	assert.True(t, strings.HasPrefix(s, "<thing><type-id>"+itemtypes.WeightTypeID+"</type-id>"), s)
	assert.Contains(t, s, "<thing-state>Active</thing-state><flags>0</flags><data-xml><weight>")
	assert.NotContains(t, s, "<thing-id", "new items carry no key")
	assert.True(t, strings.HasSuffix(s, "</weight></data-xml></thing>"), s)
}

func TestBuildPutThingsInfo_OnlyChanged(t *testing.T) {
	clean := newWeight(70)
	clean.BindKey(thing.Key{ID: "1", VersionStamp: "v1"})
	clean.ClearDirtyFlags()

	dirty := newWeight(71)
	dirty.BindKey(thing.Key{ID: "2", VersionStamp: "v1"})
	dirty.ClearDirtyFlags()
	dirty.SetKilograms(72)

	info, written, err := BuildPutThingsInfo([]thing.Thing{clean, dirty}, true)
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Same(t, dirty, written[0])
	assert.Contains(t, string(info), `<thing-id version-stamp="v1">2</thing-id>`)
	assert.NotContains(t, string(info), ">1</thing-id>")

	info, written, err = BuildPutThingsInfo([]thing.Thing{clean}, true)
	require.NoError(t, err)
	assert.Empty(t, written)
	assert.Empty(t, info)
}

func TestBuildPutThingsInfo_Errors(t *testing.T) {
	_, _, err := BuildPutThingsInfo([]thing.Thing{newWeight(1), nil}, false)
	var valErr *hverrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "items[1]", valErr.Field)

	_, _, err = BuildPutThingsInfo([]thing.Thing{(*itemtypes.Weight)(nil)}, true)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "items[0]", valErr.Field)

	_, _, err = BuildPutThingsInfo([]thing.Thing{itemtypes.NewWeight()}, false)
	var serErr *hverrors.SerializationError
	require.ErrorAs(t, err, &serErr)
	assert.Contains(t, err.Error(), itemtypes.WeightTypeID)
}

func TestBuildRemoveThingsInfo(t *testing.T) {
	a := newWeight(1)
	a.BindKey(thing.Key{ID: "a", VersionStamp: "va"})
	b := newWeight(2)
	b.BindKey(thing.Key{ID: "b", VersionStamp: "vb"})

	info, err := BuildRemoveThingsInfo([]thing.Thing{a, b})
	require.NoError(t, err)
	assert.Equal(t, `<thing-id version-stamp="va">a</thing-id><thing-id version-stamp="vb">b</thing-id>`, string(info))

	_, err = BuildRemoveThingsInfo([]thing.Thing{a, newWeight(3)})
	var valErr *hverrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "items[1]", valErr.Field)

	_, err = BuildRemoveThingsInfo([]thing.Thing{a, (*itemtypes.Weight)(nil)})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "items[1]", valErr.Field)
}

func TestRequest_Marshal(t *testing.T) {
	req := &Request{
		Method:        "GetThings",
		MethodVersion: 3,
		RecordID:      "rec-1",
		AppID:         "app-1",
		AuthToken:     "token-1",
		SharedSecret:  []byte("secret"),
		MessageTime:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Version:       "hvctl/1.0",
		Info:          []byte("<group><id>x</id></group>"),
	}
	out, err := req.Marshal(cryptoconfig.Default())
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasPrefix(s, `<wc-request:request xmlns:wc-request="urn:com.microsoft.wc.request"><auth>`), s)
	assert.Contains(t, s, "<method>GetThings</method><method-version>3</method-version><record-id>rec-1</record-id>")
	assert.Contains(t, s, "<auth-session><auth-token>token-1</auth-token></auth-session>")
	assert.NotContains(t, s, "<app-id>", "session requests identify by token")
	assert.Contains(t, s, "<msg-time>2024-01-02T03:04:05.000Z</msg-time><msg-ttl>1800</msg-ttl>")
	assert.True(t, strings.HasSuffix(s, "<info><group><id>x</id></group></info></wc-request:request>"), s)

	sum := sha256.Sum256([]byte("<info><group><id>x</id></group></info>"))
	assert.Contains(t, s, `<hash-data algName="SHA256">`+base64.StdEncoding.EncodeToString(sum[:])+`</hash-data>`)

	header := s[strings.Index(s, "<header>") : strings.Index(s, "</header>")+len("</header>")]
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(header))
	assert.Contains(t, s, `<hmac-data algName="HMACSHA256">`+base64.StdEncoding.EncodeToString(mac.Sum(nil))+`</hmac-data>`)
}

func TestRequest_MarshalAppOnly(t *testing.T) {
	req := &Request{Method: "GetServiceDefinition", AppID: "app-1"}
	out, err := req.Marshal(nil)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<app-id>app-1</app-id>")
	assert.NotContains(t, s, "<auth>")
	assert.Contains(t, s, "<method-version>1</method-version>")
	assert.Contains(t, s, "<language>en</language><country>US</country>")

	_, err = (&Request{Method: "GetThings"}).Marshal(nil)
	var valErr *hverrors.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte(`<?xml version="1.0"?>
<response><status><code>0</code></status><wc:info xmlns:wc="urn:com.microsoft.wc.methods.response.PutThings"><thing-id version-stamp="v">1</thing-id></wc:info></response>`))
	require.NoError(t, err)
	assert.Equal(t, hverrors.StatusOK, resp.Code)
	assert.True(t, resp.HasInfo)
	assert.NoError(t, resp.Err("PutThings"))

	info, err := resp.RequireInfo()
	require.NoError(t, err)
	keys, err := ParseThingKeys(info)
	require.NoError(t, err)
	assert.Equal(t, []thing.Key{{ID: "1", VersionStamp: "v"}}, keys)
}

func TestParseResponse_ServiceError(t *testing.T) {
	resp, err := ParseResponse([]byte(`<response><status><code>7</code><error><message> record not found </message></error></status></response>`))
	require.NoError(t, err)
	assert.False(t, resp.HasInfo)

	err = resp.Err("GetThings")
	var svcErr *hverrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, hverrors.StatusInvalidRecord, svcErr.Code)
	assert.Equal(t, "record not found", svcErr.Message)
	assert.Equal(t, "GetThings", svcErr.Method)

	_, err = resp.RequireInfo()
	var serErr *hverrors.SerializationError
	assert.ErrorAs(t, err, &serErr)
}

func TestParseResponse_Structural(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"wrong root": "<html><body>gateway</body></html>",
		"malformed":  "<response><status>",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse([]byte(body))
			var serErr *hverrors.SerializationError
			assert.ErrorAs(t, err, &serErr)
		})
	}
}

func TestParseThingGroups(t *testing.T) {
	w := newWeight(80.25)
	put, _, err := BuildPutThingsInfo([]thing.Thing{w}, false)
	require.NoError(t, err)
	withKey := strings.Replace(string(put), "<thing>",
		`<thing><thing-id version-stamp="v9">w1</thing-id>`, 1)
	withKey = strings.Replace(withKey, "<flags>0</flags>", "<flags>0</flags><eff-date>2024-03-14T07:30:00Z</eff-date>", 1)

	info := `<group name="first">` + withKey +
		`<thing><thing-id version-stamp="u1">u</thing-id><type-id>unknown-type</type-id><thing-state>Active</thing-state><flags>2</flags><data-xml><custom><a>1</a></custom></data-xml></thing>` +
		`</group><group name="second"><unprocessed-thing-key-info><thing-id version-stamp="z">p</thing-id></unprocessed-thing-key-info></group>`

	groups, err := ParseThingGroups([]byte(info), itemtypes.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "first", groups[0].Name)
	require.Len(t, groups[0].Things, 2)

	got, ok := groups[0].Things[0].(*itemtypes.Weight)
	require.True(t, ok)
	assert.InDelta(t, 80.25, got.Kilograms(), 0.0001)
	key, ok := got.Key()
	require.True(t, ok)
	assert.Equal(t, thing.Key{ID: "w1", VersionStamp: "v9"}, key)
	assert.Equal(t, thing.Clean, got.Lifecycle())
	assert.Equal(t, time.Date(2024, 3, 14, 7, 30, 0, 0, time.UTC), got.EffectiveDate())
	assert.True(t, got.Metadata().Sections.Has(thing.SectionXML))

	raw, ok := groups[0].Things[1].(*thing.Raw)
	require.True(t, ok)
	assert.Equal(t, "unknown-type", raw.TypeID())
	assert.Equal(t, "<custom><a>1</a></custom>", string(raw.Data))
	assert.Equal(t, 2, raw.Metadata().Flags)

	assert.Empty(t, groups[1].Things)
	assert.Equal(t, []thing.Key{{ID: "p", VersionStamp: "z"}}, groups[1].Unprocessed)
}

func TestParseThingGroups_BadPayload(t *testing.T) {
	info := `<group><thing><type-id>` + itemtypes.WeightTypeID + `</type-id><data-xml><not-weight/></data-xml></thing></group>`
	_, err := ParseThingGroups([]byte(info), itemtypes.DefaultRegistry())
	var serErr *hverrors.SerializationError
	require.ErrorAs(t, err, &serErr)
	assert.Equal(t, "Weight", serErr.Type)
}
