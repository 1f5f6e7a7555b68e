//go:build windows

package main

import "golang.org/x/sys/windows"

const processPerMonitorDPIAware = 2

// enableDPIAwareness sets per-monitor DPI awareness so GLFW sees physical
// monitor sizes.
func enableDPIAwareness() {
	// Prefer Shcore.SetProcessDpiAwareness (Win 8.1+)
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	if err := setProcessDpiAwareness.Find(); err == nil {
		_, _, _ = setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		return
	}
	// Fallback: user32.SetProcessDPIAware (Vista+)
	user32 := windows.NewLazySystemDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		_, _, _ = setProcessDPIAware.Call()
	}
}
