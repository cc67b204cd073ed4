package output

import (
	"fmt"
	"io"
)

// RawFormatter prints values the way redis-cli does.
type RawFormatter struct{}

// Format writes data followed by a newline.
func (f *RawFormatter) Format(w io.Writer, data any) error {
	_, err := fmt.Fprintln(w, data)
	return err
}
