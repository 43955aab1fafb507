// Package observe keeps a grid layout in sync with a resizable rendering
// region and a changing participant count.
//
// An [Observer] owns the last observed container size for exactly one region.
// A [Region] reports size changes from its host: a browser ResizeObserver
// forwarded over a WebSocket, a terminal's window-size messages, or an SSH
// session's window-change channel. Whenever the size or the participant count
// changes, the observer recomputes the layout with [grid.Compute] and delivers
// a [Snapshot] to every subscriber.
//
// # Lifecycle
//
//	obs := observe.New()
//	sub := obs.Subscribe(func(s observe.Snapshot) {
//	    draw(s.Layout)
//	})
//	defer sub.Unsubscribe()
//
//	feed := observe.NewFeed()
//	obs.Attach(feed)
//	defer obs.Detach()
//
//	feed.Notify(grid.Size{Width: 1280, Height: 720})
//	obs.SetParticipants(6)
//
// Before any measurement the observer assumes a 640×360 container so the
// first snapshot is drawable. Observation is passive: the observer only
// reacts to notifications and never measures on its own.
//
// # Delivery
//
// Identical size or count notifications are ignored. Every accepted change
// bumps [Snapshot.Seq] and is delivered in Seq order, one callback at a time.
// Delivery normally happens on the notifying goroutine. When a delivery is
// already running, the new snapshot is queued and the running delivery
// passes it on. Subscriber callbacks may therefore call any Observer
// method, including [Observer.Resize] and [Observer.SetParticipants]; the
// resulting snapshot arrives after the callback returns.
package observe
