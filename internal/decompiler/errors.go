package decompiler

import "fmt"

// UnsupportedStructureError reports document content that MEBDF cannot
// represent. Dropping it silently would lose the document's structure.
type UnsupportedStructureError struct {
	Element string
	Index   int64
}

func (e *UnsupportedStructureError) Error() string {
	return fmt.Sprintf("unsupported %s at index %d", e.Element, e.Index)
}
