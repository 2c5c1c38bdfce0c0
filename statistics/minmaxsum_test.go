package statistics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinMaxSum(t *testing.T) {
	var m MinMaxSum
	require.Equal(t, int64(0), m.Avg())

	m.Add(30)
	m.Add(10)
	m.Add(20)
	require.Equal(t, int64(10), m.Min)
	require.Equal(t, int64(30), m.Max)
	require.Equal(t, int64(60), m.Sum)
	require.Equal(t, int64(3), m.Count)
	require.Equal(t, int64(20), m.Avg())

	m.Reset()
	require.Equal(t, MinMaxSum{}, m)

	// a first negative value must become both min and max
	m.Add(-5)
	require.Equal(t, int64(-5), m.Min)
	require.Equal(t, int64(-5), m.Max)
}
