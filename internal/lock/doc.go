// Package lock provides the exclusive-access guard that serializes every
// load-modify-save cycle on the shared status document.
//
// The guard is an advisory flock on "<resource>.lock" (gofrs/flock), visible
// to every worker process that mounts the same filesystem. Acquisition blocks
// by default; callers may bound the wait with WithTimeout, in which case a
// missed deadline surfaces as ErrTimeout. Guards are not reentrant.
package lock
