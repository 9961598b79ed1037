package services

import "context"

// Publisher sends expense change notifications to the spreadsheet mirror.
// *amqp.Client implements it.
type Publisher interface {
	PublishExpenseSync(ctx context.Context, id, version int64) error
	PublishExpenseDelete(ctx context.Context, id int64) error
}

// Invalidator drops derived state after a mutation.
type Invalidator interface {
	Invalidate()
}

// Recorder counts domain events. *metrics.Metrics implements it.
type Recorder interface {
	Mutation(entity, operation string)
	Published(msgType string, err error)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate() {}

type nopRecorder struct{}

func (nopRecorder) Mutation(string, string)  {}
func (nopRecorder) Published(string, error) {}

// Option configures the optional collaborators of a service.
type Option func(*options)

type options struct {
	invalidator Invalidator
	recorder    Recorder
}

// WithInvalidator registers inv to be called after every successful mutation.
func WithInvalidator(inv Invalidator) Option {
	return func(o *options) {
		if inv != nil {
			o.invalidator = inv
		}
	}
}

// WithRecorder reports mutations to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{invalidator: nopInvalidator{}, recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
