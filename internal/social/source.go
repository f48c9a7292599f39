package social

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/phrazzld/graphfeed/internal/request"
	"github.com/phrazzld/graphfeed/internal/task"
)

// ErrUnexpectedResponse indicates a Graph response lacks a field the model requires.
var ErrUnexpectedResponse = errors.New("unexpected graph response")

// Enqueuer accepts tasks for scheduling. *task.Controller satisfies it.
type Enqueuer interface {
	Enqueue(t *task.Task) error
}

// Source bundles what the models need to load themselves.
type Source struct {
	Graph  request.GraphGetter
	Tasks  Enqueuer
	Loop   task.Poster
	Logger *slog.Logger
}

// Observer receives the outcome of a Load. Either callback may be nil.
type Observer[T any] struct {
	OnComplete func(T)
	OnError    func(error)
}

func (o Observer[T]) complete(v T) {
	if o.OnComplete != nil {
		o.OnComplete(v)
	}
}

func (o Observer[T]) fail(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}

// load runs the shared Load flow for a model. When loaded is true the
// observer is posted to the interactive context; otherwise a Graph request is
// enqueued and parse is applied to its response.
func load[T any](
	src Source,
	owner task.OwnerKey,
	loaded bool,
	self T,
	path string,
	fields string,
	parse func(gjson.Result) error,
	observer Observer[T],
) error {
	if loaded {
		if err := src.Loop.Post(func() { observer.complete(self) }); err != nil {
			return fmt.Errorf("failed to post %s observer: %w", path, err)
		}
		return nil
	}

	params := url.Values{}
	if fields != "" {
		params.Set("fields", fields)
	}

	t := request.Graph(owner, src.Graph, path, params,
		func(resp gjson.Result) {
			if err := parse(resp); err != nil {
				src.logger().Warn("failed to parse graph response",
					"path", path,
					"owner", owner.String(),
					"error", err)
				observer.fail(err)
				return
			}
			observer.complete(self)
		},
		observer.fail,
	)
	if err := src.Tasks.Enqueue(t); err != nil {
		return fmt.Errorf("failed to schedule %s request: %w", path, err)
	}
	return nil
}

func (s Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// requireString returns the string at path in obj or an ErrUnexpectedResponse.
func requireString(obj gjson.Result, path string) (string, error) {
	v := obj.Get(path)
	if !v.Exists() || v.Type != gjson.String {
		return "", fmt.Errorf("%w: missing %q", ErrUnexpectedResponse, path)
	}
	return v.String(), nil
}

// pictureURL accepts both the legacy string form and the {"data":{"url":...}} form.
func pictureURL(obj gjson.Result) string {
	pic := obj.Get("picture")
	if pic.IsObject() {
		return pic.Get("data.url").String()
	}
	return pic.String()
}

// dataArray returns the "data" array of a paged Graph response.
func dataArray(resp gjson.Result) ([]gjson.Result, error) {
	data := resp.Get("data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: missing \"data\" array", ErrUnexpectedResponse)
	}
	return data.Array(), nil
}
