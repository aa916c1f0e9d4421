package plugin

import (
	"errors"
	"fmt"
)

// ErrIncompleteMetadata is returned when a plugin artifact is missing one of
// the required metadata fields (name, id, vendors).
var ErrIncompleteMetadata = errors.New("plugin: incomplete metadata")

func errMissingMetadata(field string) error {
	return fmt.Errorf("%w: missing field %q", ErrIncompleteMetadata, field)
}
