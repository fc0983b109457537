// Package devtools serves a live inspector for a rover scene.
//
// Tap wraps the scene's renderer so every Mount, Update, NodeAdded and
// NodeRemoved call is broadcast to websocket clients and the latest
// runtime counts are cached for /stats. Server routes those endpoints
// together with /metrics through chi.
//
//	hub := devtools.NewHub(logger)
//	tap := devtools.Tap(renderer, hub)
//	reg.Mount(tap)
//	go devtools.NewServer(hub, tap).ListenAndServe(ctx, "localhost:7777")
package devtools
