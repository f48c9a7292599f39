package social

import (
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/phrazzld/graphfeed/internal/task"
)

const friendFields = "id,name,picture"

// Friend is one entry of the friend list.
type Friend struct {
	ID         string
	Name       string
	PictureURL string
}

// FriendList is the signed-in user's friends, sorted by name ignoring case.
type FriendList struct {
	src Source

	loaded  bool
	friends []Friend
}

// NewFriendList creates an unloaded friend list.
func NewFriendList(src Source) *FriendList {
	return &FriendList{src: src}
}

// Load delivers the list to observer, requesting me/friends the first time.
// It must be called on the interactive context.
func (l *FriendList) Load(owner task.OwnerKey, observer Observer[*FriendList]) error {
	return load(l.src, owner, l.loaded, l, "me/friends", friendFields, l.parse, observer)
}

func (l *FriendList) parse(resp gjson.Result) error {
	items, err := dataArray(resp)
	if err != nil {
		return err
	}

	friends := make([]Friend, 0, len(items))
	for _, item := range items {
		id, err := requireString(item, "id")
		if err != nil {
			return err
		}
		name, err := requireString(item, "name")
		if err != nil {
			return err
		}
		friends = append(friends, Friend{
			ID:         id,
			Name:       name,
			PictureURL: pictureURL(item),
		})
	}

	slices.SortStableFunc(friends, func(a, b Friend) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	l.friends = friends
	l.loaded = true
	return nil
}

// Loaded reports whether the list has been fetched.
func (l *FriendList) Loaded() bool { return l.loaded }

// Len returns the number of friends.
func (l *FriendList) Len() int { return len(l.friends) }

// At returns the friend at index i.
func (l *FriendList) At(i int) Friend { return l.friends[i] }

// Friends returns a copy of the list.
func (l *FriendList) Friends() []Friend { return slices.Clone(l.friends) }
