package sigkv

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"4d63.com/tz"
)

// for tons of debug output. SetVerbose turns it on.
var verbose bool = false

var utcTz *time.Location

func init() {
	var err error
	utcTz, err = tz.LoadLocation("UTC")
	panicOn(err)
}

const rfc3339NanoNumericTZ0pad = "2006-01-02T15:04:05.000000000-07:00"

// SetVerbose turns client wire tracing on or off.
// The trace goes to stderr, separate from the zerolog
// output of the server.
func SetVerbose(on bool) {
	tsPrintfMut.Lock()
	verbose = on
	tsPrintfMut.Unlock()
}

func vv(format string, a ...interface{}) {
	tsPrintfMut.Lock()
	on := verbose
	tsPrintfMut.Unlock()
	if on {
		tsPrintf(format, a...)
	}
}

// tsPrintfMut prevents message interleaving in the trace output.
var tsPrintfMut sync.Mutex

// time-stamped printf
func tsPrintf(format string, a ...interface{}) {
	tsPrintfMut.Lock()
	printf("%s %s ", fileLine(3), ts())
	printf(format+"\n", a...)
	tsPrintfMut.Unlock()
}

// get timestamp for logging purposes
func ts() string {
	return time.Now().In(utcTz).Format(rfc3339NanoNumericTZ0pad)
}

// traceOut is swapped in tests.
var traceOut io.Writer = os.Stderr

func printf(format string, a ...interface{}) (n int, err error) {
	return fmt.Fprintf(traceOut, format, a...)
}

func fileLine(depth int) string {
	_, fileName, fileLine, ok := runtime.Caller(depth)
	var s string
	if ok {
		s = fmt.Sprintf("%s:%d", path.Base(fileName), fileLine)
	} else {
		s = ""
	}
	return s
}

func panicOn(err error) {
	if err != nil {
		panic(err)
	}
}

// return stack dump for calling goroutine.
func stack() string {
	return string(debug.Stack())
}

func fileExists(name string) bool {
	fi, err := os.Stat(name)
	if err != nil {
		return false
	}
	if fi.IsDir() {
		return false
	}
	return true
}
