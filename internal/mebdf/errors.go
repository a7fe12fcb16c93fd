package mebdf

import "fmt"

// MalformedSpanError reports an unmatched or improperly placed token. Offset
// is the byte offset of the offending token.
type MalformedSpanError struct {
	Offset int
	Reason string
}

func (e *MalformedSpanError) Error() string {
	return fmt.Sprintf("malformed span at offset %d: %s", e.Offset, e.Reason)
}

// UnknownDirectiveError reports a directive name the grammar does not define.
type UnknownDirectiveError struct {
	Offset int
	Name   string
}

func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("unknown directive %q at offset %d", e.Name, e.Offset)
}

// InvalidDirectiveArgumentError reports a missing, superfluous or malformed
// directive argument.
type InvalidDirectiveArgumentError struct {
	Offset    int
	Directive string
	Arg       string
	Reason    string
}

func (e *InvalidDirectiveArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q for %s at offset %d: %s", e.Arg, e.Directive, e.Offset, e.Reason)
}
