package nimsforestscope

// StreamKind identifies a recognised stream.
type StreamKind int

const (
	// StreamUnrecognized marks names the adapter ignores.
	StreamUnrecognized StreamKind = iota
	// StreamEntity carries the scene attributes and the entity position.
	StreamEntity
	// StreamSpikes carries diagnostic waveforms with a channel label.
	StreamSpikes
)

func (k StreamKind) String() string {
	switch k {
	case StreamEntity:
		return "entity"
	case StreamSpikes:
		return "spikes"
	default:
		return "unrecognized"
	}
}

// StreamNames maps the opaque stream names of a host to stream kinds.
type StreamNames struct {
	Entity string `yaml:"entity" json:"entity"`
	Spikes string `yaml:"spikes" json:"spikes"`
}

// DefaultStreamNames returns the names used by the bouncing-ball scenario.
func DefaultStreamNames() StreamNames {
	return StreamNames{
		Entity: "gameplay",
		Spikes: "cl_spikes",
	}
}

// Classify returns the kind of the named stream.
func (n StreamNames) Classify(name string) StreamKind {
	switch {
	case name == "":
		return StreamUnrecognized
	case name == n.Entity:
		return StreamEntity
	case name == n.Spikes:
		return StreamSpikes
	default:
		return StreamUnrecognized
	}
}
