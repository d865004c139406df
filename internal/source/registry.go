package source

import (
	"fmt"
	"sort"
	"strings"

	"SocialListener/internal/ports"
)

// Source kinds registered by the application.
const (
	KindReddit          = "reddit"
	KindYouTubeUploads  = "youtube-uploads"
	KindYouTubeComments = "youtube-comments"
	KindYouTubeSearch   = "youtube-search"
)

// Option keys understood by the registered factories.
const (
	OptionOrder      = "order"
	OptionTimeFilter = "time"
	OptionPageSize   = "pageSize"
)

// Request carries what a factory needs to open one source.
type Request struct {
	// Target is the subreddit name, channel id, video id or search topic.
	Target  string
	Options map[string]string
}

// Factory opens a fetcher for one target of a given kind.
type Factory func(req Request) (ports.Fetcher, error)

// Registry keeps a mapping from source kinds ("reddit", "youtube-comments", ...) to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a factory.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Open resolves the factory for kind and opens the target.
func (r *Registry) Open(kind string, req Request) (ports.Fetcher, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("source kind %s is not registered (known: %s)", kind, strings.Join(r.Kinds(), ", "))
	}
	fetcher, err := factory(req)
	if err != nil {
		return nil, fmt.Errorf("open %s %s: %w", kind, req.Target, err)
	}
	return fetcher, nil
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
