package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_Precedes(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusNotStarted, StatusNotStarted, true},
		{StatusNotStarted, StatusActive, true},
		{StatusNotStarted, StatusEnded, true},
		{StatusActive, StatusEnded, true},
		{StatusActive, StatusNotStarted, false},
		{StatusEnded, StatusActive, false},
		{Status("paused"), StatusActive, false},
		{StatusActive, Status("paused"), false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.from.Precedes(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
