// Package resource provides the handle table behind captured host values.
//
// A captured value is stored in a process-wide (or runtime-wide) table and
// represented in raw memory by a small integer handle. The table keeps the
// value reachable until the handle is explicitly released; it is not tied to
// the lifetime of any memory object that happens to hold the handle.
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	// Capture a value, get a handle
//	h, err := table.Create(myValue)
//
//	// Retrieve value by handle
//	value, ok := table.Get(h)
//
//	// Release the handle; the value becomes collectible
//	value, ok = table.Release(h)
//
// Handle 0 is reserved and always invalid, so a zeroed memory field never
// refers to a live value. Released handles are reused.
//
// # Observers
//
// Register observers to track capture lifecycle events:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    switch e.Type {
//	    case resource.EventCaptured:
//	        log.Printf("handle %d captured", e.Handle)
//	    case resource.EventReleased:
//	        log.Printf("handle %d released", e.Handle)
//	    }
//	}))
//
// # Memory Management
//
// Values are not automatically garbage collected. Failure to release a
// handle keeps its value alive for the lifetime of the table. Call Close to
// drop everything at once.
package resource
