package compiler

import "fmt"

// UnsupportedStructureError reports a Markdown construct that has no
// counterpart in the document model. Offset is the byte offset of the
// construct in the source, or -1 when goldmark records no position for it.
type UnsupportedStructureError struct {
	Construct string
	Offset    int
}

func (e *UnsupportedStructureError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("unsupported Markdown construct: %s", e.Construct)
	}
	return fmt.Sprintf("unsupported Markdown construct at offset %d: %s", e.Offset, e.Construct)
}
