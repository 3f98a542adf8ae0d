package app

import (
	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	"go.uber.org/atomic"
)

// reentrancyGuard marks a mint as in flight. The zero value is ready to use.
type reentrancyGuard struct {
	entered atomic.Bool
}

// enter fails with ReentrantCall while another mint is in flight. Otherwise
// the caller owns the guard until it calls release, which must be deferred.
func (g *reentrancyGuard) enter() (release func(), err error) {
	if !g.entered.CompareAndSwap(false, true) {
		return nil, errors.ErrReentrantCall
	}
	return func() { g.entered.Store(false) }, nil
}

func (g *reentrancyGuard) inFlight() bool {
	return g.entered.Load()
}

func onlyAdministrator(state *ProxyState, caller common.FlowAddress) error {
	if caller != state.Administrator {
		return errors.ErrNotAuthorized
	}
	return nil
}
