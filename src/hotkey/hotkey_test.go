package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// press feeds key-down events for rawcodes and reports which of them
// completed the combination.
func press(c *combo, rawcodes ...uint16) []bool {
	fired := make([]bool, 0, len(rawcodes))
	for _, rc := range rawcodes {
		fired = append(fired, c.handle(true, rc))
	}
	return fired
}

func TestComboFromConfig(t *testing.T) {
	for _, tc := range []struct {
		hotkey string
		names  []string
		// presses completes the combination on its last key.
		presses []uint16
	}{
		{"Ctrl+Shift+X", []string{"ctrl", "shift", "x"}, []uint16{162, 160, 88}},
		{"ctrl + alt + q", []string{"ctrl", "alt", "q"}, []uint16{163, 165, 81}},
		{"Alt+F4", []string{"alt", "f4"}, []uint16{164, 115}},
		{"Shift+F24", []string{"shift", "f24"}, []uint16{161, 135}},
		{"Win+Shift+S", []string{"cmd", "shift", "s"}, []uint16{92, 160, 83}},
		{"Super+9", []string{"cmd", "9"}, []uint16{91, 57}},
		{"Ctrl+Space", []string{"ctrl", "space"}, []uint16{162, 32}},
	} {
		t.Run(tc.hotkey, func(t *testing.T) {
			c, err := newCombo(tc.hotkey)
			require.NoError(t, err)
			assert.Equal(t, tc.names, c.names())

			fired := press(c, tc.presses...)
			last := len(fired) - 1
			assert.True(t, fired[last], "the final key completes %s", tc.hotkey)
			assert.NotContains(t, fired[:last], true)
		})
	}
}

func TestComboOrderDoesNotMatter(t *testing.T) {
	c, err := newCombo("Ctrl+Shift+X")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true}, press(c, 88, 161, 163))
}

func TestComboResetsAfterActivation(t *testing.T) {
	c, err := newCombo("Ctrl+Shift+X")
	require.NoError(t, err)

	require.Equal(t, []bool{false, false, true}, press(c, 162, 160, 88))
	// Holding the keys does not repeat; every key must be pressed again.
	assert.Equal(t, []bool{false, false}, press(c, 88, 88))
	assert.Equal(t, []bool{false, true}, press(c, 162, 160))
}

func TestComboReleaseCancels(t *testing.T) {
	c, err := newCombo("Alt+F4")
	require.NoError(t, err)

	c.handle(true, 164)
	assert.False(t, c.handle(false, 164))
	assert.False(t, c.handle(true, 115), "activated after the modifier was released")
}

func TestComboIgnoresUnrelatedKeys(t *testing.T) {
	c, err := newCombo("Ctrl+X")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, true}, press(c, 65, 162, 27, 88))
}

func TestNewComboRejectsUnknownKeys(t *testing.T) {
	for _, hotkey := range []string{"", "+", " + ", "Ctrl+Banana", "F25"} {
		_, err := newCombo(hotkey)
		assert.Error(t, err, "hotkey %q", hotkey)
	}
}

func TestModifierAliasesShareRawcodes(t *testing.T) {
	assert.Equal(t, keyNameToRawcodes("cmd"), keyNameToRawcodes("win"))
	assert.Equal(t, keyNameToRawcodes("cmd"), keyNameToRawcodes("super"))
	assert.Nil(t, keyNameToRawcodes("unknown"))
}
