package mocks

import (
	"context"
	"encoding/json"

	"survey-server/internal/ai"
	"survey-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockLLMClient is a mock type for the LLMClient type
type MockLLMClient struct {
	mock.Mock
}

// RequestStructured provides a mock function with given fields: ctx, prompt, schema, temperature
func (_m *MockLLMClient) RequestStructured(ctx context.Context, prompt string, schema *models.ResponseSchema, temperature float32) (json.RawMessage, error) {
	ret := _m.Called(ctx, prompt, schema, temperature)

	var r0 json.RawMessage
	if rf, ok := ret.Get(0).(func(context.Context, string, *models.ResponseSchema, float32) json.RawMessage); ok {
		r0 = rf(ctx, prompt, schema, temperature)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(json.RawMessage)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, *models.ResponseSchema, float32) error); ok {
		r1 = rf(ctx, prompt, schema, temperature)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// RequestJSON provides a mock function with given fields: ctx, prompt, temperature
func (_m *MockLLMClient) RequestJSON(ctx context.Context, prompt string, temperature float32) (json.RawMessage, error) {
	ret := _m.Called(ctx, prompt, temperature)

	var r0 json.RawMessage
	if rf, ok := ret.Get(0).(func(context.Context, string, float32) json.RawMessage); ok {
		r0 = rf(ctx, prompt, temperature)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(json.RawMessage)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, float32) error); ok {
		r1 = rf(ctx, prompt, temperature)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// RequestText provides a mock function with given fields: ctx, prompt, temperature
func (_m *MockLLMClient) RequestText(ctx context.Context, prompt string, temperature float32) (string, error) {
	ret := _m.Called(ctx, prompt, temperature)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, float32) string); ok {
		r0 = rf(ctx, prompt, temperature)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(string)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, float32) error); ok {
		r1 = rf(ctx, prompt, temperature)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockLLMClient creates a new instance of MockLLMClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockLLMClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLLMClient {
	m := &MockLLMClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ ai.LLMClient = (*MockLLMClient)(nil)
