package task

import "github.com/google/uuid"

// OwnerKey identifies the screen or session that submitted a task.
// Keys are compared by value; the controller never looks inside them.
type OwnerKey struct {
	Name string
	ID   uuid.UUID
}

// NewOwnerKey returns a key with a freshly generated ID.
func NewOwnerKey(name string) OwnerKey {
	return OwnerKey{Name: name, ID: uuid.New()}
}

func (k OwnerKey) String() string {
	if k.Name == "" {
		return k.ID.String()
	}
	return k.Name + "/" + k.ID.String()
}
