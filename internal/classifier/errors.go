package classifier

import "errors"

// errShortCandidate is returned by Investigate when a signature match
// lies too close to the start of the file for its header to fit.
var errShortCandidate = errors.New("classifier: candidate too close to start of file")
