// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package blksync

import (
	context "context"
	reflect "reflect"

	chain "github.com/ledgerlab/ledgerstore/chain"
	common "github.com/ledgerlab/ledgerstore/common"
	smt "github.com/ledgerlab/ledgerstore/database/smt"
	gomock "go.uber.org/mock/gomock"
)

// MockPeer is a mock of Peer interface.
type MockPeer struct {
	ctrl     *gomock.Controller
	recorder *MockPeerMockRecorder
}

// MockPeerMockRecorder is the mock recorder for MockPeer.
type MockPeerMockRecorder struct {
	mock *MockPeer
}

// NewMockPeer creates a new mock instance.
func NewMockPeer(ctrl *gomock.Controller) *MockPeer {
	mock := &MockPeer{ctrl: ctrl}
	mock.recorder = &MockPeerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPeer) EXPECT() *MockPeerMockRecorder {
	return m.recorder
}

// GetAbbreviatedBlock mocks base method.
func (m *MockPeer) GetAbbreviatedBlock(ctx context.Context, height chain.Height) (chain.AbbreviatedBlock, chain.ConsensusProof, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetAbbreviatedBlock", ctx, height)
	ret0, _ := ret[0].(chain.AbbreviatedBlock)
	ret1, _ := ret[1].(chain.ConsensusProof)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// GetAbbreviatedBlock indicates an expected call of GetAbbreviatedBlock.
func (mr *MockPeerMockRecorder) GetAbbreviatedBlock(ctx, height any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetAbbreviatedBlock", reflect.TypeOf((*MockPeer)(nil).GetAbbreviatedBlock), ctx, height)
}

// GetAuthenticatedBranch mocks base method.
func (m *MockPeer) GetAuthenticatedBranch(ctx context.Context, height chain.Height, substate chain.Substate, key common.Hash) ([]byte, smt.CompressedProof, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetAuthenticatedBranch", ctx, height, substate, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(smt.CompressedProof)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// GetAuthenticatedBranch indicates an expected call of GetAuthenticatedBranch.
func (mr *MockPeerMockRecorder) GetAuthenticatedBranch(ctx, height, substate, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetAuthenticatedBranch", reflect.TypeOf((*MockPeer)(nil).GetAuthenticatedBranch), ctx, height, substate, key)
}
