package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	t.Parallel()
	items := []string{"a", "b", "c", "d", "e"}
	ip := func(v int) *int { return &v }

	testCases := []struct {
		name string
		sel  Selector
		want []string
	}{
		{"zero value selects all", Selector{}, items},
		{"explicit all", All(), items},
		{"indices keep order", Indices(3, 0), []string{"d", "a"}},
		{"negative index", Indices(-1), []string{"e"}},
		{"duplicate indices", Indices(1, 1), []string{"b", "b"}},
		{"slice", Slice(ip(1), ip(3), 1), []string{"b", "c"}},
		{"open slice with step", Slice(nil, nil, 2), []string{"a", "c", "e"}},
		{"reverse slice", Slice(nil, nil, -1), []string{"e", "d", "c", "b", "a"}},
		{"negative bounds", Slice(ip(-2), nil, 1), []string{"d", "e"}},
		{"clamped stop", Slice(ip(3), ip(100), 1), []string{"d", "e"}},
		{"empty slice", Slice(ip(4), ip(1), 1), []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Select(tc.sel, items)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSelect_DoesNotAliasInput(t *testing.T) {
	t.Parallel()
	items := []string{"a", "b"}
	got, err := Select(All(), items)
	require.NoError(t, err)
	got[0] = "z"
	require.Equal(t, "a", items[0])
}

func TestSelect_Errors(t *testing.T) {
	t.Parallel()
	items := []int{1, 2, 3}

	_, err := Select(Indices(3), items)
	require.ErrorIs(t, err, ErrConfig)

	_, err = Select(Indices(-4), items)
	require.ErrorIs(t, err, ErrConfig)

	_, err = Select(Slice(nil, nil, 0), items)
	require.ErrorIs(t, err, ErrConfig)
}

func TestParseSlice(t *testing.T) {
	t.Parallel()
	items := []int{0, 1, 2, 3, 4, 5}

	sel, err := ParseSlice("1:5:2")
	require.NoError(t, err)
	got, err := Select(sel, items)
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, got)

	sel, err = ParseSlice(":2")
	require.NoError(t, err)
	got, err = Select(sel, items)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, got)
	require.Equal(t, ":2:1", sel.String())

	for _, bad := range []string{"1", "a:b", "1:2:0", "1:2:3:4"} {
		_, err := ParseSlice(bad)
		require.ErrorIs(t, err, ErrConfig, "input %q", bad)
	}
}
