package spr

import "errors"

// errExcluded marks a candidate node that falls inside the subtree being
// re-placed and so cannot be re-entered during the search (spec.md 4.4
// step 2).
var errExcluded = errors.New("spr: candidate lies within the detached subtree")
