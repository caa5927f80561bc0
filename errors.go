package rtree

// Error types attached to the errors returned by this package. They can be
// matched with errors.IsType from github.com/aukilabs/go-tooling/pkg/errors.
const (
	ErrTypeDimensionMismatch = "rtree_dimension_mismatch"
	ErrTypeInconsistentTree  = "rtree_inconsistent_tree"
)
