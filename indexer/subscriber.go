package indexer

// Subscriber handles event subscriptions.
type Subscriber struct {
	done              chan struct{}
	startedHandler    func(FollowingStarted)
	reconciledHandler func(RangeReconciled)
	failedHandler     func(ReconcileFailed)
	faultedHandler    func(Faulted)
	stoppedHandler    func(FollowingStopped)
}

// OnFollowingStarted sets the handler for FollowingStarted events
func OnFollowingStarted(fn func(FollowingStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.startedHandler = fn }
}

// OnRangeReconciled sets the handler for RangeReconciled events
func OnRangeReconciled(fn func(RangeReconciled)) func(*Subscriber) {
	return func(s *Subscriber) { s.reconciledHandler = fn }
}

// OnReconcileFailed sets the handler for ReconcileFailed events
func OnReconcileFailed(fn func(ReconcileFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.failedHandler = fn }
}

// OnFaulted sets the handler for Faulted events
func OnFaulted(fn func(Faulted)) func(*Subscriber) {
	return func(s *Subscriber) { s.faultedHandler = fn }
}

// OnFollowingStopped sets the handler for FollowingStopped events
func OnFollowingStopped(fn func(FollowingStopped)) func(*Subscriber) {
	return func(s *Subscriber) { s.stoppedHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := indexer.NewSubscriber(events,
//	  indexer.OnFaulted(func(e indexer.Faulted) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:              make(chan struct{}),
		startedHandler:    func(FollowingStarted) {},
		reconciledHandler: func(RangeReconciled) {},
		failedHandler:     func(ReconcileFailed) {},
		faultedHandler:    func(Faulted) {},
		stoppedHandler:    func(FollowingStopped) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case FollowingStarted:
				s.startedHandler(e)
			case RangeReconciled:
				s.reconciledHandler(e)
			case ReconcileFailed:
				s.failedHandler(e)
			case Faulted:
				s.faultedHandler(e)
			case FollowingStopped:
				s.stoppedHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
