package order

import "sync"

// UserLocker serializes checkouts per user: the cart-read, order-record,
// cart-clear sequence is a critical section, and two concurrent checkouts
// for the same user must not both observe the same cart.
type UserLocker interface {
	// LockUser blocks until the user's lock is held and returns the
	// matching unlock function.
	LockUser(userID string) (unlock func())
}

type keyedLocker struct {
	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// NewUserLocker returns an in-process UserLocker keyed by user id.
func NewUserLocker() UserLocker {
	return &keyedLocker{users: make(map[string]*sync.Mutex)}
}

func (l *keyedLocker) LockUser(userID string) func() {
	l.mu.Lock()
	um, ok := l.users[userID]
	if !ok {
		um = &sync.Mutex{}
		l.users[userID] = um
	}
	l.mu.Unlock()

	um.Lock()
	return um.Unlock
}
