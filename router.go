package nimsforestscope

import (
	"errors"
	"fmt"
)

// Route is the outcome of routing one sample.
type Route struct {
	Kind StreamKind

	// Channel is set when a spike sample was stored and the channel sink
	// must be refreshed.
	Channel        string
	ChannelChanged bool
}

// Router dispatches samples by stream name into a LatestValues cache.
type Router struct {
	names StreamNames
}

// NewRouter creates a router for the given stream names.
func NewRouter(names StreamNames) *Router {
	return &Router{names: names}
}

// Names returns the recognised stream names.
func (r *Router) Names() StreamNames {
	return r.names
}

// Route stores payload in cache according to the stream kind. Samples of
// unrecognised streams leave the cache untouched and return a nil error.
// A nil or JSON null payload clears the stream's cached sample. A payload
// that cannot be decoded leaves the cache untouched.
func (r *Router) Route(cache *LatestValues, name string, payload any) (Route, error) {
	kind := r.names.Classify(name)
	switch kind {
	case StreamEntity:
		pos, err := decodePosition(payload)
		if errors.Is(err, errNullPayload) {
			cache.ClearPosition()
			return Route{Kind: kind}, nil
		}
		if err != nil {
			return Route{Kind: kind}, fmt.Errorf("stream %q: %w", name, err)
		}
		cache.StorePosition(pos)
		return Route{Kind: kind}, nil

	case StreamSpikes:
		spike, err := decodeSpike(payload)
		if errors.Is(err, errNullPayload) {
			cache.ClearSpike()
			return Route{Kind: kind}, nil
		}
		if err != nil {
			return Route{Kind: kind}, fmt.Errorf("stream %q: %w", name, err)
		}
		cache.StoreSpike(spike)
		return Route{Kind: kind, Channel: string(spike.Channel), ChannelChanged: true}, nil

	default:
		return Route{Kind: StreamUnrecognized}, nil
	}
}

// IsAttributeStream reports whether name carries the scene attributes.
func (r *Router) IsAttributeStream(name string) bool {
	return r.names.Classify(name) == StreamEntity
}
