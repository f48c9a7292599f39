package social

import (
	"slices"
	"time"

	"github.com/tidwall/gjson"

	"github.com/phrazzld/graphfeed/internal/task"
)

// Feed paths on the Graph API.
const (
	NewsFeedPath = "me/home"
	WallPath     = "me/feed"
)

const feedFields = "id,type,from,message,picture,link,name,caption,description,created_time,comments"

// graphTimeLayout is the timestamp format used by created_time.
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// FeedItem is one post in a feed. Optional fields are empty when absent.
type FeedItem struct {
	ID           string
	Type         string
	FromID       string
	FromName     string
	Message      string
	PictureURL   string
	Link         string
	Name         string
	Caption      string
	Description  string
	CreatedTime  string
	CreatedAt    time.Time
	CommentCount int
}

// FeedList is a news feed or wall, in the order returned by the API.
type FeedList struct {
	src  Source
	path string

	loaded bool
	items  []FeedItem
}

// NewNewsFeed creates an unloaded news feed (me/home).
func NewNewsFeed(src Source) *FeedList {
	return &FeedList{src: src, path: NewsFeedPath}
}

// NewWall creates an unloaded wall (me/feed).
func NewWall(src Source) *FeedList {
	return &FeedList{src: src, path: WallPath}
}

// Path returns the Graph path the feed is loaded from.
func (f *FeedList) Path() string { return f.path }

// Load delivers the feed to observer, requesting it the first time.
// It must be called on the interactive context.
func (f *FeedList) Load(owner task.OwnerKey, observer Observer[*FeedList]) error {
	return load(f.src, owner, f.loaded, f, f.path, feedFields, f.parse, observer)
}

func (f *FeedList) parse(resp gjson.Result) error {
	data, err := dataArray(resp)
	if err != nil {
		return err
	}

	items := make([]FeedItem, 0, len(data))
	for _, obj := range data {
		item, err := parseFeedItem(obj)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	f.items = items
	f.loaded = true
	return nil
}

func parseFeedItem(obj gjson.Result) (FeedItem, error) {
	var item FeedItem
	var err error

	if item.ID, err = requireString(obj, "id"); err != nil {
		return FeedItem{}, err
	}
	if item.Type, err = requireString(obj, "type"); err != nil {
		return FeedItem{}, err
	}
	if item.FromID, err = requireString(obj, "from.id"); err != nil {
		return FeedItem{}, err
	}
	if item.FromName, err = requireString(obj, "from.name"); err != nil {
		return FeedItem{}, err
	}

	item.Message = obj.Get("message").String()
	item.PictureURL = pictureURL(obj)
	item.Link = obj.Get("link").String()
	item.Name = obj.Get("name").String()
	item.Caption = obj.Get("caption").String()
	item.Description = obj.Get("description").String()
	item.CreatedTime = obj.Get("created_time").String()
	if ts, perr := time.Parse(graphTimeLayout, item.CreatedTime); perr == nil {
		item.CreatedAt = ts
	}
	item.CommentCount = commentCount(obj.Get("comments"))

	return item, nil
}

// commentCount reads the legacy "count" field, falling back to the summary
// total and then to the number of inline comments.
func commentCount(comments gjson.Result) int {
	if !comments.Exists() {
		return 0
	}
	if c := comments.Get("count"); c.Exists() {
		return int(c.Int())
	}
	if c := comments.Get("summary.total_count"); c.Exists() {
		return int(c.Int())
	}
	return int(comments.Get("data.#").Int())
}

// Loaded reports whether the feed has been fetched.
func (f *FeedList) Loaded() bool { return f.loaded }

// Len returns the number of items.
func (f *FeedList) Len() int { return len(f.items) }

// At returns the item at index i.
func (f *FeedList) At(i int) FeedItem { return f.items[i] }

// Items returns a copy of the feed.
func (f *FeedList) Items() []FeedItem { return slices.Clone(f.items) }
