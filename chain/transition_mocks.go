// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockTransition is a mock of Transition interface.
type MockTransition struct {
	ctrl     *gomock.Controller
	recorder *MockTransitionMockRecorder
}

// MockTransitionMockRecorder is the mock recorder for MockTransition.
type MockTransitionMockRecorder struct {
	mock *MockTransition
}

// NewMockTransition creates a new mock instance.
func NewMockTransition(ctrl *gomock.Controller) *MockTransition {
	mock := &MockTransition{ctrl: ctrl}
	mock.recorder = &MockTransitionMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransition) EXPECT() *MockTransitionMockRecorder {
	return m.recorder
}

// ApplyProposerAction mocks base method.
func (m *MockTransition) ApplyProposerAction(state *State, action ProposerAction) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ApplyProposerAction", state, action)
	ret0, _ := ret[0].(error)
	return ret0
}

// ApplyProposerAction indicates an expected call of ApplyProposerAction.
func (mr *MockTransitionMockRecorder) ApplyProposerAction(state, action any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ApplyProposerAction", reflect.TypeOf((*MockTransition)(nil).ApplyProposerAction), state, action)
}

// ApplyTx mocks base method.
func (m *MockTransition) ApplyTx(state *State, tx Transaction) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ApplyTx", state, tx)
	ret0, _ := ret[0].(error)
	return ret0
}

// ApplyTx indicates an expected call of ApplyTx.
func (mr *MockTransitionMockRecorder) ApplyTx(state, tx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ApplyTx", reflect.TypeOf((*MockTransition)(nil).ApplyTx), state, tx)
}
