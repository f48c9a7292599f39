package request

import (
	"context"
	"image"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/phrazzld/graphfeed/internal/platform/logger"
	"github.com/phrazzld/graphfeed/internal/redact"
	"github.com/phrazzld/graphfeed/internal/task"
)

// GraphGetter is the part of graph.Client a Graph task needs.
type GraphGetter interface {
	Get(ctx context.Context, path string, params url.Values) (gjson.Result, error)
}

// ImageFetcher is the part of images.Fetcher an image task needs.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// Graph returns a task that calls path on the Graph API. onComplete receives
// the parsed response; onError, if set, receives the failure.
func Graph(
	owner task.OwnerKey,
	client GraphGetter,
	path string,
	params url.Values,
	onComplete func(gjson.Result),
	onError func(error),
) *task.Task {
	body := func(ctx context.Context) (gjson.Result, error) {
		logger.FromContext(ctx).Debug("graph request", "path", path)
		return client.Get(ctx, path, params)
	}
	return task.NewTyped(owner, body, onComplete, options("graph "+path, onError)...)
}

// Image returns a task that fetches and decodes the image at url.
func Image(
	owner task.OwnerKey,
	fetcher ImageFetcher,
	url string,
	onComplete func(image.Image),
	onError func(error),
) *task.Task {
	body := func(ctx context.Context) (image.Image, error) {
		logger.FromContext(ctx).Debug("image request", "url", redact.URL(url))
		return fetcher.Fetch(ctx, url)
	}
	return task.NewTyped(owner, body, onComplete, options("image", onError)...)
}

func options(name string, onError func(error)) []task.Option {
	opts := []task.Option{task.WithName(name)}
	if onError != nil {
		opts = append(opts, task.WithErrorHandler(onError))
	}
	return opts
}
