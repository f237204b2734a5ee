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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
)

// Address identifies a node within a Network.
type Address int

// Handler processes the requests sent to a node.
type Handler interface {
	Handle(context.Context, Message) Message
}

// Network is an in-process network. Nodes only exchange serialized
// messages; no references are shared between them.
type Network struct {
	mu       sync.RWMutex
	handlers []Handler
	latency  time.Duration
}

func NewNetwork() *Network {
	return &Network{}
}

// SetLatency delays the delivery of every request by the given duration.
func (n *Network) SetLatency(latency time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.latency = latency
}

// Register adds a node to the network and returns its address.
func (n *Network) Register(handler Handler) Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, cur := range n.handlers {
		if cur == handler {
			return Address(i)
		}
	}
	n.handlers = append(n.handlers, handler)
	return Address(len(n.handlers) - 1)
}

// Unregister removes the node with the given address.
func (n *Network) Unregister(address Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if address >= 0 && int(address) < len(n.handlers) {
		n.handlers[address] = nil
	}
}

// Addresses lists the addresses of all registered nodes.
func (n *Network) Addresses() []Address {
	n.mu.RLock()
	defer n.mu.RUnlock()
	res := make([]Address, 0, len(n.handlers))
	for i, cur := range n.handlers {
		if cur != nil {
			res = append(res, Address(i))
		}
	}
	return res
}

// Call delivers a request to the node with the given address and waits for
// its response or the end of the context.
func (n *Network) Call(ctx context.Context, address Address, request Message) (Message, error) {
	n.mu.RLock()
	var handler Handler
	if address >= 0 && int(address) < len(n.handlers) {
		handler = n.handlers[address]
	}
	latency := n.latency
	n.mu.RUnlock()
	if handler == nil {
		return nil, fmt.Errorf("%w: no node at address %d", ErrUnavailable, address)
	}

	data, err := encodeMessage(request)
	if err != nil {
		return nil, err
	}
	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	delivered, err := decodeMessage(data)
	if err != nil {
		return nil, err
	}
	if data, err = encodeMessage(handler.Handle(ctx, delivered)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return decodeMessage(data)
}

// LocalPeer is a Peer reached through a Network.
type LocalPeer struct {
	network *Network
	address Address
}

// NewLocalPeer creates a peer sending requests to the given address.
func NewLocalPeer(network *Network, address Address) *LocalPeer {
	return &LocalPeer{network: network, address: address}
}

func (p *LocalPeer) GetAbbreviatedBlock(ctx context.Context, height chain.Height) (chain.AbbreviatedBlock, chain.ConsensusProof, error) {
	response, err := call[GetAbbreviatedBlockResponse](ctx, p, GetAbbreviatedBlockRequest{Height: height})
	return response.Block, response.Proof, err
}

func (p *LocalPeer) GetAuthenticatedBranch(ctx context.Context, height chain.Height, substate chain.Substate, key common.Hash) ([]byte, smt.CompressedProof, error) {
	response, err := call[GetAuthenticatedBranchResponse](ctx, p, GetAuthenticatedBranchRequest{
		Height:   height,
		Substate: substate,
		Key:      key,
	})
	return response.Value, response.Proof, err
}

func call[T any](ctx context.Context, p *LocalPeer, request Message) (T, error) {
	var zero T
	response, err := p.network.Call(ctx, p.address, request)
	if err != nil {
		return zero, err
	}
	switch res := response.(type) {
	case T:
		return res, nil
	case ErrorMessage:
		return zero, res.Err()
	}
	return zero, fmt.Errorf("%w: unexpected response %T", ErrProtocolViolation, response)
}
