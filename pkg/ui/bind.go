package ui

import "github.com/vango-dev/rover/pkg/reactive"

// BindText creates a text leaf whose content follows compute. The node is
// reserved, finalized with absent content, and only then is the driving
// effect created, so the effect's first run writes into a real leaf.
//
// The effect is bound to the node: removing the node disposes it. A failing
// compute is reported by the runtime and leaves the previous content.
func (r *Registry) BindText(compute reactive.DeriveFunc) (NodeID, error) {
	id := r.ReserveNode()
	if err := r.FinalizeNode(id, Text(reactive.Absent())); err != nil {
		return NodeID{}, err
	}

	effect, err := r.rt.CreateEffect(func() (reactive.Cleanup, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		return nil, r.UpdateLeafContent(id, v)
	})
	if attachErr := r.AttachEffect(id, effect); attachErr != nil {
		return NodeID{}, attachErr
	}
	return id, err
}

// BindSource creates a text leaf showing the current value of src.
func (r *Registry) BindSource(src reactive.Source) (NodeID, error) {
	return r.BindText(func() (reactive.Value, error) {
		return r.rt.Read(src)
	})
}
