package clipboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteText(t *testing.T) {
	if err := Init(); err != nil {
		t.Skipf("clipboard unavailable: %v", err)
	}
	require.NoError(t, WriteText("test text"))
}
