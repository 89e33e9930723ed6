// Package core holds process-wide crash handling shared by every goroutine the program starts.
package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
)

var (
	crashMu      sync.Mutex
	crashRestore func()
	crashOut     io.Writer = os.Stderr
	crashExit              = os.Exit
)

// SetCrashRestore registers the terminal restore hook run before a crash report is printed
// Pass nil to clear it
func SetCrashRestore(restore func()) {
	crashMu.Lock()
	crashRestore = restore
	crashMu.Unlock()
}

// HandleCrash is the unified panic handler that restores the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	restore := crashRestore
	out := crashOut
	exit := crashExit
	crashMu.Unlock()

	if restore != nil {
		restore()
	}

	// Use \r\n for raw mode compatibility to avoid zig-zag output
	fmt.Fprintf(out, "\r\n\x1b[31mRECTLAP CRASHED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(out, "Stack Trace:\r\n%s\r\n", debug.Stack())

	exit(1)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
