package lock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

var _ documentStore = &documentStoreMock{}

type documentStoreMock struct {
	GetFunc    func(ctx context.Context, collection, key string) (json.RawMessage, error)
	SetFunc    func(ctx context.Context, collection, key string, data json.RawMessage) error
	DeleteFunc func(ctx context.Context, collection, key string) error
	QueryFunc  func(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)

	calls struct {
		Get []struct {
			Collection string
			Key        string
		}
		Set []struct {
			Collection string
			Key        string
			Data       json.RawMessage
		}
		Delete []struct {
			Collection string
			Key        string
		}
		Query []struct {
			Collection string
			Q          domain.Query
		}
	}
	lockGet    sync.RWMutex
	lockSet    sync.RWMutex
	lockDelete sync.RWMutex
	lockQuery  sync.RWMutex
}

func (mock *documentStoreMock) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	if mock.GetFunc == nil {
		panic("documentStoreMock.GetFunc: method is nil but documentStore.Get was just called")
	}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, struct {
		Collection string
		Key        string
	}{collection, key})
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, collection, key)
}

func (mock *documentStoreMock) GetCalls() []struct {
	Collection string
	Key        string
} {
	mock.lockGet.RLock()
	defer mock.lockGet.RUnlock()
	return mock.calls.Get
}

func (mock *documentStoreMock) Set(ctx context.Context, collection, key string, data json.RawMessage) error {
	if mock.SetFunc == nil {
		panic("documentStoreMock.SetFunc: method is nil but documentStore.Set was just called")
	}
	mock.lockSet.Lock()
	mock.calls.Set = append(mock.calls.Set, struct {
		Collection string
		Key        string
		Data       json.RawMessage
	}{collection, key, data})
	mock.lockSet.Unlock()
	return mock.SetFunc(ctx, collection, key, data)
}

func (mock *documentStoreMock) SetCalls() []struct {
	Collection string
	Key        string
	Data       json.RawMessage
} {
	mock.lockSet.RLock()
	defer mock.lockSet.RUnlock()
	return mock.calls.Set
}

func (mock *documentStoreMock) Delete(ctx context.Context, collection, key string) error {
	if mock.DeleteFunc == nil {
		panic("documentStoreMock.DeleteFunc: method is nil but documentStore.Delete was just called")
	}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, struct {
		Collection string
		Key        string
	}{collection, key})
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, collection, key)
}

func (mock *documentStoreMock) DeleteCalls() []struct {
	Collection string
	Key        string
} {
	mock.lockDelete.RLock()
	defer mock.lockDelete.RUnlock()
	return mock.calls.Delete
}

func (mock *documentStoreMock) Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	if mock.QueryFunc == nil {
		panic("documentStoreMock.QueryFunc: method is nil but documentStore.Query was just called")
	}
	mock.lockQuery.Lock()
	mock.calls.Query = append(mock.calls.Query, struct {
		Collection string
		Q          domain.Query
	}{collection, q})
	mock.lockQuery.Unlock()
	return mock.QueryFunc(ctx, collection, q)
}

func (mock *documentStoreMock) QueryCalls() []struct {
	Collection string
	Q          domain.Query
} {
	mock.lockQuery.RLock()
	defer mock.lockQuery.RUnlock()
	return mock.calls.Query
}
