package identity

import (
	"context"
	"encoding/json"
	"sync"
)

var _ tokenValidator = &tokenValidatorMock{}

type tokenValidatorMock struct {
	ValidateAccessTokenFunc func(token string) (string, error)

	calls struct {
		ValidateAccessToken []struct {
			Token string
		}
	}
	lockValidateAccessToken sync.RWMutex
}

func (mock *tokenValidatorMock) ValidateAccessToken(token string) (string, error) {
	if mock.ValidateAccessTokenFunc == nil {
		panic("tokenValidatorMock.ValidateAccessTokenFunc: method is nil but tokenValidator.ValidateAccessToken was just called")
	}
	mock.lockValidateAccessToken.Lock()
	mock.calls.ValidateAccessToken = append(mock.calls.ValidateAccessToken, struct{ Token string }{token})
	mock.lockValidateAccessToken.Unlock()
	return mock.ValidateAccessTokenFunc(token)
}

func (mock *tokenValidatorMock) ValidateAccessTokenCalls() []struct{ Token string } {
	mock.lockValidateAccessToken.RLock()
	defer mock.lockValidateAccessToken.RUnlock()
	return mock.calls.ValidateAccessToken
}

var _ directory = &directoryMock{}

type directoryMock struct {
	GetFunc func(ctx context.Context, collection, key string) (json.RawMessage, error)

	calls struct {
		Get []struct {
			Collection string
			Key        string
		}
	}
	lockGet sync.RWMutex
}

func (mock *directoryMock) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	if mock.GetFunc == nil {
		panic("directoryMock.GetFunc: method is nil but directory.Get was just called")
	}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, struct {
		Collection string
		Key        string
	}{collection, key})
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, collection, key)
}

func (mock *directoryMock) GetCalls() []struct {
	Collection string
	Key        string
} {
	mock.lockGet.RLock()
	defer mock.lockGet.RUnlock()
	return mock.calls.Get
}
