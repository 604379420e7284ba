package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nando-os/ghost-rpc/pkg/ethrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// EthClient is a mock of eth.EthClient.
type EthClient struct {
	mock.Mock
}

func (_m *EthClient) ChainID(ctx context.Context) (primitives.Quantity, error) {
	ret := _m.Called(ctx)

	var r0 primitives.Quantity
	if rf, ok := ret.Get(0).(func(context.Context) primitives.Quantity); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(primitives.Quantity)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) GetBalance(ctx context.Context, addr primitives.Address, block ethrpc.BlockTag) (primitives.Quantity, error) {
	ret := _m.Called(ctx, addr, block)

	var r0 primitives.Quantity
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(primitives.Quantity)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) GetTransactionCount(ctx context.Context, addr primitives.Address, block ethrpc.BlockTag) (uint64, error) {
	ret := _m.Called(ctx, addr, block)

	var r0 uint64
	if rf, ok := ret.Get(0).(func(context.Context, primitives.Address, ethrpc.BlockTag) uint64); ok {
		r0 = rf(ctx, addr, block)
	} else {
		r0 = ret.Get(0).(uint64)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) GasPrice(ctx context.Context) (primitives.Quantity, error) {
	ret := _m.Called(ctx)

	var r0 primitives.Quantity
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(primitives.Quantity)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) EstimateGas(ctx context.Context, req ethrpc.CallRequest) (uint64, error) {
	ret := _m.Called(ctx, req)

	var r0 uint64
	if rf, ok := ret.Get(0).(func(context.Context, ethrpc.CallRequest) uint64); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(uint64)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) Call(ctx context.Context, req ethrpc.CallRequest, block ethrpc.BlockTag) (primitives.Bytes, error) {
	ret := _m.Called(ctx, req, block)

	var r0 primitives.Bytes
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(primitives.Bytes)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) SendRawTransaction(ctx context.Context, raw []byte) (primitives.Hash, error) {
	ret := _m.Called(ctx, raw)

	var r0 primitives.Hash
	if rf, ok := ret.Get(0).(func(context.Context, []byte) primitives.Hash); ok {
		r0 = rf(ctx, raw)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(primitives.Hash)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) GetTransactionReceipt(ctx context.Context, hash primitives.Hash) (*ethrpc.Receipt, error) {
	ret := _m.Called(ctx, hash)

	var r0 *ethrpc.Receipt
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ethrpc.Receipt)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) GetBlockHeader(ctx context.Context, block ethrpc.BlockTag) (*ethrpc.Header, error) {
	ret := _m.Called(ctx, block)

	var r0 *ethrpc.Header
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ethrpc.Header)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) GetLogs(ctx context.Context, q ethrpc.FilterQuery) ([]ethrpc.Log, error) {
	ret := _m.Called(ctx, q)

	var r0 []ethrpc.Log
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ethrpc.Log)
	}
	return r0, ret.Error(1)
}

func (_m *EthClient) Close() {
	_m.Called()
}

// NewEthClient creates an EthClient whose expectations are asserted when the
// test finishes.
func NewEthClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *EthClient {
	m := &EthClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
