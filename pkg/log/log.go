// Copyright © 2019 mg
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package log

import (
	"fmt"
	"os"
)

// Logger receives every log line produced by the simulator
type Logger interface {
	Log(msg string)
}

type stderrLogger struct {
}

func (l *stderrLogger) Log(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

var (
	defaultLoggerImpl = &stderrLogger{}
	logger            Logger = defaultLoggerImpl

	logEnable = true
)

// SetLogger replaces the log sink, nil restores the default stderr sink
func SetLogger(impl Logger) {
	if impl == nil {
		logger = defaultLoggerImpl
	} else {
		logger = impl
	}
}

// SetEnable turns logging on or off globally
func SetEnable(enable bool) {
	logEnable = enable
}

// L logs a plain message
func L(msg string) {
	if logEnable {
		logger.Log(msg)
	}
}

// Lf logs a formatted message
func Lf(format string, args ...interface{}) {
	if logEnable {
		logger.Log(fmt.Sprintf(format, args...))
	}
}
