package circle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircle_MarshalJSON(t *testing.T) {
	c := &Circle{
		ID:                json.RawMessage(`7`),
		Name:              "Kiwi & Co",
		Booths:            []string{"Q-42"},
		Day:               DaySunday,
		Fandoms:           []string{"Original"},
		SampleworksImages: nil,
		Extra: map[string]json.RawMessage{
			"zeta":  json.RawMessage(`true`),
			"alpha": json.RawMessage(`{"x": 1}`),
		},
	}

	data, err := c.MarshalJSON()
	require.NoError(t, err)

	assert.Equal(t,
		`{"id":7,"name":"Kiwi & Co","booths":["Q-42"],"day":"SUN","fandoms":["Original"],"sampleworks_images":[],"alpha":{"x": 1},"zeta":true}`,
		string(data))
}

func TestCircle_RoundTrip(t *testing.T) {
	doc := `{
		"id": "k-1",
		"user_id": 12,
		"name": "Kiwi",
		"booths": ["O-16a", "O-16b"],
		"day": "BOTH",
		"urls": [{"title": "Twitter", "url": "https://x.com/kiwi"}],
		"raw_fandoms": ["Gi"],
		"fandoms": ["Genshin Impact"],
		"works_type": ["Comic"],
		"sampleworks_images": ["a.png"],
		"circle_cut": "cut.png",
		"circle_code": "O-16ab",
		"profileImage": "p.png",
		"informations": {"note": "x"},
		"custom": [1, 2]
	}`

	var c Circle
	require.NoError(t, json.Unmarshal([]byte(doc), &c))

	assert.Equal(t, "Kiwi", c.Name)
	assert.Equal(t, []string{"O-16a", "O-16b"}, c.Booths)
	assert.JSONEq(t, `[1, 2]`, string(c.Extra["custom"]))

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(data))
}

func TestCircle_UnmarshalJSONKeepsMistypedValues(t *testing.T) {
	doc := `{"id":3,"name":{"en":"Alpha"},"booths":[],"day":"SAT","urls":[],"sampleworks_images":[]}`

	var c Circle
	require.NoError(t, json.Unmarshal([]byte(doc), &c))
	assert.Empty(t, c.Name)
	assert.JSONEq(t, `{"en":"Alpha"}`, string(c.Verbatim["name"]))

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, doc, string(data))
}

func TestCircle_Set(t *testing.T) {
	c := &Circle{Name: "Before", CircleCut: "cut.png"}

	require.NoError(t, c.Set("name", json.RawMessage(`"After"`)))
	assert.Equal(t, "After", c.Name)

	require.NoError(t, c.Set("circle_cut", json.RawMessage(`null`)))
	assert.Empty(t, c.CircleCut)

	err := c.Set("booths", json.RawMessage(`"A-1"`))
	require.ErrorIs(t, err, ErrFieldType)
	assert.Contains(t, err.Error(), "decoding booths")
	assert.Nil(t, c.Booths)
	assert.JSONEq(t, `"A-1"`, string(c.Verbatim["booths"]))

	require.NoError(t, c.Set("booths", json.RawMessage(`["B-1"]`)))
	assert.Equal(t, []string{"B-1"}, c.Booths)
	assert.NotContains(t, c.Verbatim, "booths")

	require.NoError(t, c.Set("new_key", json.RawMessage(`"value"`)))
	assert.JSONEq(t, `"value"`, string(c.Extra["new_key"]))
	assert.False(t, IsKnownField("new_key"))
	assert.True(t, IsKnownField("profileImage"))
}

func TestSameID(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal numbers", `5`, `5`, true},
		{"equal strings", `"k-1"`, `"k-1"`, true},
		{"whitespace ignored", ` 5 `, `5`, true},
		{"number vs string", `5`, `"5"`, false},
		{"different", `5`, `6`, false},
		{"empty", ``, `5`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameID(json.RawMessage(tt.a), json.RawMessage(tt.b)))
		})
	}
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "<none>", IDString(nil))
	assert.Equal(t, "k-1", IDString(json.RawMessage(`"k-1"`)))
	assert.Equal(t, "42", IDString(json.RawMessage(`42`)))
}
