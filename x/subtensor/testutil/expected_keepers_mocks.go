package testutil

import (
	context "context"
	reflect "reflect"

	math "cosmossdk.io/math"
	gomock "github.com/golang/mock/gomock"
)

// MockEmissionSource is a mock of EmissionSource interface.
type MockEmissionSource struct {
	ctrl     *gomock.Controller
	recorder *MockEmissionSourceMockRecorder
}

// MockEmissionSourceMockRecorder is the mock recorder for MockEmissionSource.
type MockEmissionSourceMockRecorder struct {
	mock *MockEmissionSource
}

// NewMockEmissionSource creates a new mock instance.
func NewMockEmissionSource(ctrl *gomock.Controller) *MockEmissionSource {
	mock := &MockEmissionSource{ctrl: ctrl}
	mock.recorder = &MockEmissionSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEmissionSource) EXPECT() *MockEmissionSourceMockRecorder {
	return m.recorder
}

// GetSubnetBlockEmission mocks base method.
func (m *MockEmissionSource) GetSubnetBlockEmission(ctx context.Context, netuid uint16) (math.Int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSubnetBlockEmission", ctx, netuid)
	ret0, _ := ret[0].(math.Int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetSubnetBlockEmission indicates an expected call of GetSubnetBlockEmission.
func (mr *MockEmissionSourceMockRecorder) GetSubnetBlockEmission(ctx, netuid interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSubnetBlockEmission", reflect.TypeOf((*MockEmissionSource)(nil).GetSubnetBlockEmission), ctx, netuid)
}
