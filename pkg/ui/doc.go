// Package ui keeps UI nodes with stable identity on top of a reactive
// runtime.
//
// A node is reserved, finalized with content, and then mutated in place by
// the effects bound to it. Every mutation marks the node dirty; a render pass
// hands the dirty ids to a Renderer, which updates the native views it
// created for those ids earlier. Removing a node disposes its effects.
//
//	reg := ui.NewRegistry(rt)
//	label, _ := reg.BindSource(count)
//	root, _ := reg.CreateNode(ui.Column(label))
//	reg.SetRoot(root)
//	reg.Mount(renderer)
//	rt.WriteValue(count, reactive.Int(3))
//	reg.Render() // renderer.Update(reg, [label])
package ui
