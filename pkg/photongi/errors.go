package photongi

import "errors"

// ErrEmptyScene is returned when the Metropolis bootstrap exhausts its
// attempts without finding a single useful light path. The scene has no
// light-reachable surface that accepts photons; it may be empty.
var ErrEmptyScene = errors.New("photongi: unable to find a useful light path, the scene may be empty")
