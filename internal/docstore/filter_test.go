package docstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type status string

func TestFilterValidateNormalizesTypedValues(t *testing.T) {
	f, err := Where("status", OpEqual, status("PENDING")).Validate()
	require.NoError(t, err)
	require.Equal(t, "PENDING", f.Value)

	f, err = Where("commission", OpGreater, 10).Validate()
	require.NoError(t, err)
	require.Equal(t, float64(10), f.Value)
}

func TestFilterValidateRejectsBadInput(t *testing.T) {
	_, err := Where("", OpEqual, "x").Validate()
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = Where("a.b", OpEqual, "x").Validate()
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = Where("a", Op("~"), "x").Validate()
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = Where("a", OpIn, "not-a-list").Validate()
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestFilterMatch(t *testing.T) {
	doc := map[string]any{"agentId": "a1", "commission": float64(150), "read": false}
	cases := []struct {
		f    Filter
		want bool
	}{
		{Where("agentId", OpEqual, "a1"), true},
		{Where("agentId", OpNotEqual, "a1"), false},
		{Where("commission", OpGreaterEqual, 150), true},
		{Where("commission", OpLess, 100), false},
		{Where("read", OpEqual, false), true},
		{Where("agentId", OpIn, []string{"a2", "a1"}), true},
		{Where("missing", OpNotEqual, "x"), false},
		{Where("commission", OpGreater, "100"), false},
	}
	for _, tc := range cases {
		f, err := tc.f.Validate()
		require.NoError(t, err)
		require.Equal(t, tc.want, f.Match(doc), "%+v", tc.f)
	}
}

func TestReason(t *testing.T) {
	require.Equal(t, "unavailable", Reason(ErrUnavailable))
	require.Equal(t, "permission_denied", Reason(ErrPermissionDenied))
	require.True(t, Expected(ErrPermissionDenied))
	require.False(t, Expected(ErrNotFound))
}
