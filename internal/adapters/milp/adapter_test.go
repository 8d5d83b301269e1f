package milp

import (
	"testing"

	"github.com/nextmv-io/sdk/mip"
	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/model"
)

func TestProductKeyIsOrderInsensitive(t *testing.T) {
	require.Equal(t, productKey("x_0_1_2", "x_0_2_3"), productKey("x_0_2_3", "x_0_1_2"))
	require.NotEqual(t, productKey("a", "b"), productKey("a", "c"))
}

func TestSenseOf(t *testing.T) {
	s, err := senseOf(model.Equal)
	require.NoError(t, err)
	require.Equal(t, mip.Equal, s)

	s, err = senseOf(model.LessEqual)
	require.NoError(t, err)
	require.Equal(t, mip.LessThanOrEqual, s)

	s, err = senseOf(model.GreaterEqual)
	require.NoError(t, err)
	require.Equal(t, mip.GreaterThanOrEqual, s)

	_, err = senseOf(model.Sense(99))
	require.Error(t, err)
}
