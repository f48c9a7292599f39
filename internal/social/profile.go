package social

import (
	"github.com/tidwall/gjson"

	"github.com/phrazzld/graphfeed/internal/task"
)

const profileFields = "id,name,picture,statuses.limit(1){message}"

// Profile is the signed-in user.
type Profile struct {
	src Source

	loaded     bool
	id         string
	name       string
	pictureURL string
	status     string
}

// NewProfile creates an unloaded profile.
func NewProfile(src Source) *Profile {
	return &Profile{src: src}
}

// Load delivers the profile to observer, requesting /me the first time.
// It must be called on the interactive context.
func (p *Profile) Load(owner task.OwnerKey, observer Observer[*Profile]) error {
	return load(p.src, owner, p.loaded, p, "me", profileFields, p.parse, observer)
}

func (p *Profile) parse(resp gjson.Result) error {
	id, err := requireString(resp, "id")
	if err != nil {
		return err
	}
	name, err := requireString(resp, "name")
	if err != nil {
		return err
	}

	p.id = id
	p.name = name
	p.pictureURL = pictureURL(resp)
	p.status = resp.Get("statuses.data.0.message").String()
	p.loaded = true
	return nil
}

// Loaded reports whether the profile has been fetched.
func (p *Profile) Loaded() bool { return p.loaded }

// ID returns the user id.
func (p *Profile) ID() string { return p.id }

// Name returns the display name.
func (p *Profile) Name() string { return p.name }

// PictureURL returns the profile picture location, or "".
func (p *Profile) PictureURL() string { return p.pictureURL }

// Status returns the latest status message, or "".
func (p *Profile) Status() string { return p.status }
