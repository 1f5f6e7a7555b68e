package clipboard

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

var ErrNotInitialized = errors.New("clipboard is not initialized")

var (
	writeMu     sync.Mutex
	initialized bool
)

func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := clipboard.Init(); err != nil {
		return err
	}
	initialized = true
	return nil
}

// WriteImage performs a mutex-guarded clipboard write of PNG data.
func WriteImage(png []byte) error {
	return write(clipboard.FmtImage, png)
}

// WriteText performs a mutex-guarded clipboard write of text.
func WriteText(text string) error {
	return write(clipboard.FmtText, []byte(text))
}

func write(format clipboard.Format, data []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}
	clipboard.Write(format, data)
	return nil
}
