package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"section": [
			{"title": "Week 1", "summary": "<p>Intro</p>", "cmlist": [11, "12"]},
			{"title": "", "name": "Topic 2", "cmlist": []}
		],
		"cm": [
			{"id": 11, "name": "Slides File", "module": "resource", "url": "https://moodle.example/mod/resource/view.php?id=11"},
			{"id": "12", "name": "Forum", "module": "forum", "url": "https://moodle.example/mod/forum/view.php?id=12"}
		]
	}`)

	st, err := ParseState(data)
	require.NoError(t, err)

	require.Len(t, st.Sections, 2)
	assert.Equal(t, "Week 1", st.Sections[0].DisplayTitle())
	assert.Equal(t, []ID{"11", "12"}, st.Sections[0].ModuleIDs)
	assert.Equal(t, "Topic 2", st.Sections[1].DisplayTitle())

	require.Len(t, st.Modules, 2)
	assert.Equal(t, ID("11"), st.Modules[0].ID)
	assert.True(t, st.Modules[0].IsResource())
	assert.Equal(t, ID("12"), st.Modules[1].ID)
	assert.False(t, st.Modules[1].IsResource())
}

func TestParseState_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseState([]byte("not json"))
	require.Error(t, err)
}

func TestIDUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    ID
		wantErr bool
	}{
		{name: "number", in: `42`, want: ID("42")},
		{name: "string", in: `"42"`, want: ID("42")},
		{name: "large number stays exact", in: `9007199254740993`, want: ID("9007199254740993")},
		{name: "object rejected", in: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var id ID
			err := id.UnmarshalJSON([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestModuleIndex(t *testing.T) {
	t.Parallel()

	st := &State{
		Modules: []Module{
			{ID: "1", Name: "first"},
			{ID: "2", Name: "second"},
			{ID: "1", Name: "shadowed"},
		},
	}

	idx := st.ModuleIndex()
	require.Len(t, idx, 2)
	// Duplicate ids resolve to the last record.
	assert.Equal(t, "shadowed", idx["1"].Name)
	assert.Equal(t, "second", idx["2"].Name)
}

func TestSectionDisplayTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Week 1", Section{Title: "Week 1", Name: "sec-1"}.DisplayTitle())
	assert.Equal(t, "sec-1", Section{Name: "sec-1"}.DisplayTitle())
	assert.Equal(t, "General", Section{}.DisplayTitle())
}
