package worker

// Subscriber attaches its handlers to the event dispatcher.
type Subscriber interface {
	RegisterHandlers()
}

// StartEventSubscribers registers every non-nil subscriber. Handlers run
// on the publishing goroutine, so a slow handler delays the request that
// raised the event.
func StartEventSubscribers(subscribers ...Subscriber) int {
	started := 0
	for _, sub := range subscribers {
		if sub == nil {
			continue
		}
		sub.RegisterHandlers()
		started++
	}
	return started
}
