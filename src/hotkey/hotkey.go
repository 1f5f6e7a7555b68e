package hotkey

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	gohook "github.com/robotn/gohook"
)

// Listen starts a global keyboard hook and calls callback from the hook
// goroutine each time the whole combination is held down. The returned
// stop function ends the hook.
func Listen(ctx context.Context, hotkeyConfig string, callback func()) (stop func(), err error) {
	c, err := newCombo(hotkeyConfig)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "hotkey %q parsed as %v", hotkeyConfig, c.names())

	evChan := gohook.Start()
	if evChan == nil {
		return nil, fmt.Errorf("unable to start the keyboard hook")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf(ctx, "panic in hotkey goroutine: %v", r)
			}
		}()
		defer logger.Debugf(ctx, "hotkey event channel closed")

		for ev := range evChan {
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			if c.handle(ev.Kind == gohook.KeyDown, ev.Rawcode) {
				logger.Debugf(ctx, "hotkey %s activated", hotkeyConfig)
				if callback != nil {
					callback()
				}
			}
		}
	}()

	logger.Infof(ctx, "hotkey listener configured for %s", hotkeyConfig)
	var once sync.Once
	return func() { once.Do(gohook.End) }, nil
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// combo tracks which keys of a combination are currently held.
type combo struct {
	mu   sync.Mutex
	keys []keyState
}

func newCombo(hotkeyConfig string) (*combo, error) {
	c := &combo{}
	for _, name := range parseHotkey(hotkeyConfig) {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return nil, fmt.Errorf("unable to map key %q of hotkey %q", name, hotkeyConfig)
		}
		c.keys = append(c.keys, keyState{name: name, rawcodes: rawcodes})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("no valid keys in hotkey %q", hotkeyConfig)
	}
	return c, nil
}

func (c *combo) names() []string {
	names := make([]string, 0, len(c.keys))
	for _, k := range c.keys {
		names = append(names, k.name)
	}
	return names
}

// handle records a key transition and reports whether the combination just
// completed. States reset on activation so holding keys does not repeat.
func (c *combo) handle(down bool, rawcode uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.keys {
		for _, rc := range c.keys[i].rawcodes {
			if rc == rawcode {
				c.keys[i].pressed = down
				break
			}
		}
	}
	if !down {
		return false
	}
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

var specialKeys = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
	"print":     {44}, // VK_SNAPSHOT
}

// keyNameToRawcodes maps a key name to its virtual key code rawcodes, both
// left and right variants for modifiers.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if rawcodes, ok := specialKeys[keyName]; ok {
		return rawcodes
	}
	if keyName == "win" || keyName == "super" {
		return specialKeys["cmd"]
	}

	if len(keyName) == 1 {
		switch ch := keyName[0]; {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch-'a') + 65}
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch-'0') + 48}
		}
	}

	// F1-F24 are VK 112-135.
	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	return nil
}
