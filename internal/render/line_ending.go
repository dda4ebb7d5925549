package render

import (
	"fmt"
	"runtime"
	"strings"
)

// LineEnding selects the newline sequence of generated files.
type LineEnding string

const (
	// Native uses the newline of the host operating system.
	Native  LineEnding = "native"
	Unix    LineEnding = "unix"
	Windows LineEnding = "windows"
)

// ParseLineEnding parses a configured line ending. Empty input means Native.
func ParseLineEnding(s string) (LineEnding, error) {
	switch LineEnding(strings.ToLower(strings.TrimSpace(s))) {
	case "", Native:
		return Native, nil
	case Unix:
		return Unix, nil
	case Windows:
		return Windows, nil
	default:
		return "", fmt.Errorf("unknown line ending %q (want native, unix or windows)", s)
	}
}

// Sequence returns the newline characters for l.
func (l LineEnding) Sequence() string {
	switch l {
	case Unix:
		return "\n"
	case Windows:
		return "\r\n"
	default:
		if runtime.GOOS == "windows" {
			return "\r\n"
		}
		return "\n"
	}
}
