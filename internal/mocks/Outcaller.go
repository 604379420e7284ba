package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
)

// Outcaller is a mock of jsonrpc.Outcaller.
type Outcaller struct {
	mock.Mock
}

func (_m *Outcaller) Outcall(ctx context.Context, req jsonrpc.OutcallRequest) (*jsonrpc.OutcallResponse, error) {
	ret := _m.Called(ctx, req)

	var r0 *jsonrpc.OutcallResponse
	if rf, ok := ret.Get(0).(func(context.Context, jsonrpc.OutcallRequest) *jsonrpc.OutcallResponse); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*jsonrpc.OutcallResponse)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, jsonrpc.OutcallRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}
	return r0, r1
}

// NewOutcaller creates an Outcaller whose expectations are asserted when the
// test finishes.
func NewOutcaller(t interface {
	mock.TestingT
	Cleanup(func())
}) *Outcaller {
	m := &Outcaller{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
