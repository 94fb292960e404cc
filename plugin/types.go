package plugin

import "time"

// LayerKind names the operation that produced a layer.
type LayerKind string

const (
	// LayerCreated is the initial registration.
	LayerCreated LayerKind = "created"

	// LayerExtended is an augmentation merged in place.
	LayerExtended LayerKind = "extended"

	// LayerReplaced is a wholesale replacement of the implementation.
	LayerReplaced LayerKind = "replaced"
)

// Layer records one registration step applied to an identifier.
// The layers of an identifier, in order, explain how its active
// implementation was composed.
type Layer struct {
	// Seq is the 1-based position of the layer for its identifier.
	Seq int

	// Kind is the operation that produced the layer.
	Kind LayerKind

	// Source names the code unit that applied the layer, when given.
	Source string

	// Proto lists the prototype members the layer merged, in order.
	Proto []string

	// Static lists the static members the layer merged or carried forward, in order.
	Static []string

	// At is when the layer was applied.
	At time.Time
}

// Descriptor summarizes a registered implementation without exposing it.
type Descriptor struct {
	// ID is the plugin identifier.
	ID string

	// Static lists the static member names in enumeration order.
	Static []string

	// Proto lists the prototype member names in enumeration order.
	Proto []string

	// Layers is the registration history of the identifier.
	Layers []Layer
}

// Describe returns the descriptor for id, and false when id is not registered.
func (r *Registry) Describe(id string) (Descriptor, bool) {
	impl := r.Get(id)
	if impl == nil {
		return Descriptor{}, false
	}
	return Descriptor{
		ID:     id,
		Static: impl.Static().Keys(),
		Proto:  impl.Proto().Keys(),
		Layers: r.Layers(id),
	}, true
}
