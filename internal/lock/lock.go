// Package lock keeps overlapping forwarding runs apart.
package lock

import "errors"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("lock held by another run")
