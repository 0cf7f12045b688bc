package registry

import "github.com/npezzotti/tvdash/internal/types"

// Repository is the authoritative set of TV records. Implementations must
// make each operation atomic with respect to the others and must hand out
// copies, never references to their own state.
type Repository interface {
	Add(name string) (types.TV, error)
	// SetImage points the record at ref and also returns the reference
	// it held before, nil if it had none.
	SetImage(id int, ref string) (types.TV, *string, error)
	SetYoutubeLink(id int, link *string) (types.TV, error)
	Remove(id int) (types.TV, error)
	Get(id int) (types.TV, error)
	List() []types.TV
}
