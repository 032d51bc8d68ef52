package internal

import (
	"fmt"
	"io"
	"os"
)

// Writer carries diagnostics: request log lines, discovery warnings and
// failed cleanups. Page bodies never go through a Writer. In CGI mode
// stdout is the HTTP response, so diagnostics must be routable to stderr.
type Writer interface {
	// Printf writes a formatted message to the log stream.
	Printf(format string, v ...interface{})

	// Warningf writes a formatted warning, prefixed with "Warning: " and
	// terminated by a newline, to the warning stream.
	Warningf(format string, v ...interface{})
}

// StandardWriter implements Writer on top of two io.Writers.
type StandardWriter struct {
	out io.Writer
	err io.Writer
}

// NewStandardWriter logs to stdout and warns on stderr. Used by the serve
// command.
func NewStandardWriter() *StandardWriter {
	return NewCustomWriter(os.Stdout, os.Stderr)
}

// NewCGIWriter sends everything to stderr.
func NewCGIWriter() *StandardWriter {
	return NewCustomWriter(os.Stderr, os.Stderr)
}

// NewCustomWriter creates a Writer with custom streams.
func NewCustomWriter(out, err io.Writer) *StandardWriter {
	return &StandardWriter{
		out: out,
		err: err,
	}
}

func (w *StandardWriter) Printf(format string, v ...interface{}) {
	fmt.Fprintf(w.out, format, v...)
}

func (w *StandardWriter) Warningf(format string, v ...interface{}) {
	fmt.Fprintf(w.err, "Warning: "+format+"\n", v...)
}
