package businessflow

import "sync"

// Activation attempts for one account are a read-modify-write of its metadata
// document, so concurrent submissions by the same account must serialize.
// A fixed stripe of mutexes keyed by account id bounds memory while keeping
// unrelated accounts independent.
const activationLockStripes = 64

var activationLocks [activationLockStripes]sync.Mutex

func lockActivation(accountID uint) *sync.Mutex {
	m := &activationLocks[accountID%activationLockStripes]
	m.Lock()
	return m
}
