package place

import "errors"

// errNoRoomForMidBranch marks an edge too short to carve out a mid-branch
// split point while respecting cfg.MinBlengthMid on both sides; the caller
// falls back to the below candidate.
var errNoRoomForMidBranch = errors.New("place: branch too short for mid-branch split")
