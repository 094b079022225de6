package engine

import (
	"context"
	"sync"

	"github.com/arloliu/msdsim/scenario"
	"go.uber.org/zap"
)

type request struct {
	ctx     context.Context
	mutate  scenario.Mutation
	publish bool
	read    func(*scenario.State)
	done    chan struct{}
}

// owner is the only goroutine touching its state.
type owner struct {
	state  *scenario.State
	reqs   chan request
	pub    Publisher
	logger *zap.Logger
}

func (o *owner) run(quit <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case req := <-o.reqs:
			o.handle(req)
		case <-quit:
			return
		}
	}
}

func (o *owner) handle(req request) {
	defer close(req.done)

	if req.mutate != nil {
		req.mutate(o.state)
	}
	if req.read != nil {
		req.read(o.state)
	}
	if req.publish {
		o.pub.Publish(req.ctx, o.state.Schema(), o.state.Snapshot())
	}
}
