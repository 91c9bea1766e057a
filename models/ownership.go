package models

// Owned is implemented by records that only their owner may mutate.
type Owned interface {
	OwnerID() uint
}

// Owns reports whether actorID may mutate resource.
func Owns(resource Owned, actorID uint) bool {
	return actorID != 0 && resource.OwnerID() == actorID
}
