package preview

import "fmt"

// IndexError reports a preview request for an index outside the
// current listing.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("preview index %d out of range for %d images", e.Index, e.Len)
}
