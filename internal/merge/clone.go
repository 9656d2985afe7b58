package merge

import (
	"github.com/mitchellh/copystructure"
)

// clone returns a structural deep copy of v. Merge results never share maps,
// slices or pointers with their inputs.
func clone[T any](v T) T {
	return copystructure.Must(copystructure.Copy(v)).(T)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
