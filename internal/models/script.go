package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKind is returned for request kinds other than short and long.
var ErrInvalidKind = errors.New("type must be 'short' or 'long'")

// ScriptKind selects the script outline and the render format.
type ScriptKind string

const (
	KindShort ScriptKind = "short"
	KindLong  ScriptKind = "long"
)

// ParseKind validates a raw request kind.
func ParseKind(raw string) (ScriptKind, error) {
	switch ScriptKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindShort:
		return KindShort, nil
	case KindLong:
		return KindLong, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidKind, raw)
	}
}
