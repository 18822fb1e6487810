// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import "sync"

// Roster is the partitioned view of the current user's friends by presence
// state. A user id lives in at most one of the three partitions at any
// time; the flattened friends view is recomputed on every mutation so
// readers never observe a roster mid-update.
//
// The roster is owned by the presence channel's receive loop. External
// readers only ever get copies.
type Roster struct {
	mu      sync.RWMutex
	online  []*User
	active  []*User
	offline []*User
	friends []*User // offline, then active, then online
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{}
}

// Upsert removes the user's id from whichever partition currently holds it,
// inserts the user into the partition implied by its state, and returns the
// prior record if one existed. State "offline" maps to the offline
// partition, "active" to active, and any other state to online.
func (r *Roster) Upsert(u *User) *User {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior := r.removeLocked(u.ID)
	switch u.State {
	case StateOffline:
		r.offline = append(r.offline, u)
	case StateActive:
		r.active = append(r.active, u)
	default:
		r.online = append(r.online, u)
	}
	r.flattenLocked()
	return prior
}

// Remove removes the id from whichever partition holds it and returns the
// removed record, or nil if the id was not present.
func (r *Roster) Remove(id string) *User {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.removeLocked(id)
	if removed != nil {
		r.flattenLocked()
	}
	return removed
}

// removeLocked pulls id out of all partitions. At most one entry can match
// because Upsert always removes before inserting.
func (r *Roster) removeLocked(id string) *User {
	for _, part := range []*[]*User{&r.offline, &r.active, &r.online} {
		for i, u := range *part {
			if u.ID == id {
				*part = append((*part)[:i], (*part)[i+1:]...)
				return u
			}
		}
	}
	return nil
}

func (r *Roster) flattenLocked() {
	flat := make([]*User, 0, len(r.offline)+len(r.active)+len(r.online))
	flat = append(flat, r.offline...)
	flat = append(flat, r.active...)
	flat = append(flat, r.online...)
	r.friends = flat
}

// Friends returns a snapshot of the flattened friends list, offline
// entries first.
func (r *Roster) Friends() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*User{}, r.friends...)
}

// Online returns a snapshot of the online partition.
func (r *Roster) Online() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*User{}, r.online...)
}

// Active returns a snapshot of the active partition.
func (r *Roster) Active() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*User{}, r.active...)
}

// Offline returns a snapshot of the offline partition.
func (r *Roster) Offline() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*User{}, r.offline...)
}

// Len returns the total number of friends across all partitions.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.friends)
}
