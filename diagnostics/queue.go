package diagnostics

// NewUnboundedChannel returns a producer/consumer channel pair backed
// by an internal growable queue, so the parser and persister stages
// never block on, or silently drop a message because of, a slow
// aggregator. This is the Go equivalent of original_source's
// crossbeam/mpsc unbounded sender (send_errors.rs, iterutils.rs):
// every message sent on the input side is eventually delivered on the
// output side, in order, regardless of how far behind the consumer
// falls. spec.md §2/§4.5 require the diagnostic channel itself to be
// unbounded; iterutil.TrySend's non-blocking drop stays reserved for a
// genuinely-vanished receiver, never for routine backpressure.
func NewUnboundedChannel() (chan<- Message, <-chan Message) {
	in := make(chan Message)
	out := make(chan Message)

	go func() {
		defer close(out)

		var queue []Message
		for {
			if len(queue) == 0 {
				msg, ok := <-in
				if !ok {
					return
				}
				queue = append(queue, msg)
				continue
			}

			select {
			case msg, ok := <-in:
				if !ok {
					for _, m := range queue {
						out <- m
					}
					return
				}
				queue = append(queue, msg)
			case out <- queue[0]:
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
