package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
)

// MockContractClient fakes the rewards contract. Every call returns a fresh
// transaction hash; nothing is sent anywhere.
type MockContractClient struct {
	nonce atomic.Uint64
}

func NewMockContractClient() *MockContractClient {
	return &MockContractClient{}
}

func (m *MockContractClient) AddCitation(ctx context.Context, citingID, citedID string) (string, error) {
	n := m.nonce.Add(1)
	sum := sha256.Sum256([]byte(fmt.Sprintf("addCitation:%s:%s:%d", citingID, citedID, n)))
	return "0x" + hex.EncodeToString(sum[:]), nil
}
