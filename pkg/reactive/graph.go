package reactive

// graph indexes subscriptions in both directions.
//
// subs lists, per source, the subscribers in the order they subscribed; that
// order drives propagation and therefore effect scheduling. srcs lists, per
// subscriber, the sources read during its last evaluation.
type graph struct {
	subs map[key][]key
	srcs map[key][]key
}

func newGraph() graph {
	return graph{
		subs: make(map[key][]key),
		srcs: make(map[key][]key),
	}
}

// subscribe adds sub to src's subscribers. Idempotent.
func (g *graph) subscribe(src, sub key) {
	for _, existing := range g.subs[src] {
		if existing == sub {
			return
		}
	}
	g.subs[src] = append(g.subs[src], sub)
}

// unsubscribe removes sub from src's subscribers, keeping the others in order.
func (g *graph) unsubscribe(src, sub key) {
	list := g.subs[src]
	for i, existing := range list {
		if existing == sub {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(g.subs, src)
		return
	}
	g.subs[src] = list
}

// subscribersOf returns a copy of src's subscribers, safe to iterate while
// the graph changes.
func (g *graph) subscribersOf(src key) []key {
	list := g.subs[src]
	if len(list) == 0 {
		return nil
	}
	out := make([]key, len(list))
	copy(out, list)
	return out
}

// sourcesOf returns a copy of the sources sub read last time.
func (g *graph) sourcesOf(sub key) []key {
	list := g.srcs[sub]
	if len(list) == 0 {
		return nil
	}
	out := make([]key, len(list))
	copy(out, list)
	return out
}

// replaceSubscriptions makes next the exact source set of sub: stale edges
// are dropped and new ones added in the same call.
func (g *graph) replaceSubscriptions(sub key, next []key) {
	old := g.srcs[sub]

	keep := make(map[key]struct{}, len(next))
	for _, src := range next {
		keep[src] = struct{}{}
	}
	for _, src := range old {
		if _, ok := keep[src]; !ok {
			g.unsubscribe(src, sub)
		}
	}

	had := make(map[key]struct{}, len(old))
	for _, src := range old {
		had[src] = struct{}{}
	}
	for _, src := range next {
		if _, ok := had[src]; !ok {
			g.subscribe(src, sub)
		}
	}

	if len(next) == 0 {
		delete(g.srcs, sub)
		return
	}
	stored := make([]key, len(next))
	copy(stored, next)
	g.srcs[sub] = stored
}

// clearSubscriber drops every edge where sub is the subscriber.
func (g *graph) clearSubscriber(sub key) {
	for _, src := range g.srcs[sub] {
		g.unsubscribe(src, sub)
	}
	delete(g.srcs, sub)
}

// clearSource drops every edge where src is the source.
func (g *graph) clearSource(src key) {
	for _, sub := range g.subs[src] {
		list := g.srcs[sub]
		for i, s := range list {
			if s == src {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(g.srcs, sub)
		} else {
			g.srcs[sub] = list
		}
	}
	delete(g.subs, src)
}

// edges counts source→subscriber edges.
func (g *graph) edges() int {
	n := 0
	for _, list := range g.subs {
		n += len(list)
	}
	return n
}

// union returns a followed by the elements of b not already in a.
func union(a, b []key) []key {
	out := make([]key, 0, len(a)+len(b))
	seen := make(map[key]struct{}, len(a)+len(b))
	for _, list := range [][]key{a, b} {
		for _, k := range list {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
