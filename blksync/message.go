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
	"errors"
	"fmt"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
)

// Message is any message exchanged between nodes of a Network.
type Message interface{}

type GetAbbreviatedBlockRequest struct {
	Height chain.Height
}

type GetAbbreviatedBlockResponse struct {
	Block chain.AbbreviatedBlock
	Proof chain.ConsensusProof
}

type GetAuthenticatedBranchRequest struct {
	Height   chain.Height
	Substate chain.Substate
	Key      common.Hash
}

type GetAuthenticatedBranchResponse struct {
	Value []byte
	Proof []byte
}

// ErrorMessage reports the failure of a request.
type ErrorMessage struct {
	Code  uint8
	Issue string
}

const (
	errorCodeGeneric uint8 = iota
	errorCodeUnknownHeight
)

func newErrorMessage(err error) ErrorMessage {
	code := errorCodeGeneric
	if errors.Is(err, ErrUnknownHeight) {
		code = errorCodeUnknownHeight
	}
	return ErrorMessage{Code: code, Issue: err.Error()}
}

func (m ErrorMessage) Err() error {
	if m.Code == errorCodeUnknownHeight {
		return fmt.Errorf("%w: remote: %s", ErrUnknownHeight, m.Issue)
	}
	return fmt.Errorf("remote: %s", m.Issue)
}

// Messages are serialized as a kind byte followed by the encoded payload.
const (
	kindError byte = iota
	kindGetAbbreviatedBlockRequest
	kindGetAbbreviatedBlockResponse
	kindGetAuthenticatedBranchRequest
	kindGetAuthenticatedBranchResponse
)

func encodeMessage(msg Message) ([]byte, error) {
	var kind byte
	switch msg.(type) {
	case ErrorMessage:
		kind = kindError
	case GetAbbreviatedBlockRequest:
		kind = kindGetAbbreviatedBlockRequest
	case GetAbbreviatedBlockResponse:
		kind = kindGetAbbreviatedBlockResponse
	case GetAuthenticatedBranchRequest:
		kind = kindGetAuthenticatedBranchRequest
	case GetAuthenticatedBranchResponse:
		kind = kindGetAuthenticatedBranchResponse
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}
	payload, err := chain.Encode(msg)
	if err != nil {
		return nil, err
	}
	return append([]byte{kind}, payload...), nil
}

func decodeMessage(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", chain.ErrDecode)
	}
	payload := data[1:]
	switch data[0] {
	case kindError:
		return chain.Decode[ErrorMessage](payload)
	case kindGetAbbreviatedBlockRequest:
		return chain.Decode[GetAbbreviatedBlockRequest](payload)
	case kindGetAbbreviatedBlockResponse:
		return chain.Decode[GetAbbreviatedBlockResponse](payload)
	case kindGetAuthenticatedBranchRequest:
		return chain.Decode[GetAuthenticatedBranchRequest](payload)
	case kindGetAuthenticatedBranchResponse:
		return chain.Decode[GetAuthenticatedBranchResponse](payload)
	}
	return nil, fmt.Errorf("%w: unknown message kind %d", chain.ErrDecode, data[0])
}
