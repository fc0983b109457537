package observe

import (
	"time"

	"github.com/vango-dev/rover/pkg/reactive"
)

// Multi fans every callback out to observers, in order. Nil observers are
// skipped.
func Multi(observers ...reactive.Observer) reactive.Observer {
	list := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multi []reactive.Observer

func (m multi) ValueWritten(id reactive.ValueID, changed bool) {
	for _, o := range m {
		o.ValueWritten(id, changed)
	}
}

func (m multi) DerivedComputed(id reactive.DerivedID, elapsed time.Duration, err error) {
	for _, o := range m {
		o.DerivedComputed(id, elapsed, err)
	}
}

func (m multi) EffectRan(id reactive.EffectID, elapsed time.Duration, err error) {
	for _, o := range m {
		o.EffectRan(id, elapsed, err)
	}
}

func (m multi) BatchDrained(runs int, elapsed time.Duration) {
	for _, o := range m {
		o.BatchDrained(runs, elapsed)
	}
}
