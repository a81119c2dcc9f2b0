package database

import (
	"context"
	"sync"

	"codepool/entity"
)

// Memory is an in-memory document store with the same compare-and-swap
// contract as MongoDB. It backs local environments without a database and
// the test suites.
type Memory struct {
	mu    sync.Mutex
	docs  map[string]*entity.InventoryDocument
	users map[string]*entity.User
}

func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]*entity.InventoryDocument),
		users: make(map[string]*entity.User),
	}
}

// AddUser registers a user keyed by token.
func (m *Memory) AddUser(user *entity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Token] = user
}

func (m *Memory) GetUser(token string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[token]
	if !ok {
		return nil, entity.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (m *Memory) GetInventory(_ context.Context, docId string) (*entity.InventoryDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docId]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return snapshot(doc), nil
}

func (m *Memory) PutInventory(_ context.Context, doc *entity.InventoryDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.docs[doc.Id]
	if doc.Revision == 0 {
		if exists {
			return entity.ErrConflict
		}
		stored := snapshot(doc)
		stored.Revision = 1
		m.docs[doc.Id] = stored
		doc.Revision = 1
		return nil
	}
	if !exists {
		return entity.ErrNotFound
	}
	if current.Revision != doc.Revision {
		return entity.ErrConflict
	}
	stored := snapshot(doc)
	stored.Revision = doc.Revision + 1
	m.docs[doc.Id] = stored
	doc.Revision = stored.Revision
	return nil
}

// DeleteInventory removes a document outright. Exists so tests can exercise
// the concurrent-deletion path of the put contract.
func (m *Memory) DeleteInventory(docId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, docId)
}

func snapshot(doc *entity.InventoryDocument) *entity.InventoryDocument {
	copied := *doc
	copied.Codes = make([]entity.CodeRecord, len(doc.Codes))
	copy(copied.Codes, doc.Codes)
	return &copied
}
