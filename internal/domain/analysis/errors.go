package analysis

import "errors"

// ErrUpstream indicates the LLM call failed or returned output that does not
// satisfy the required schema. It is captured as the session's terminal error
// state, never propagated raw to API callers.
var ErrUpstream = errors.New("upstream analysis service failed")
