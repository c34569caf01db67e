// Package mocks provides test doubles for the location pipeline's collaborators.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	taxonomy "github.com/marche-ricette/recipe-connector/internal/taxonomy"
)

// MockMappingSource is a mock type for the MappingSource interface.
type MockMappingSource struct {
	mock.Mock
}

// GetMappings provides a mock function with given fields: ctx, vocabularyID
func (_m *MockMappingSource) GetMappings(ctx context.Context, vocabularyID string) (*taxonomy.Mapping, error) {
	ret := _m.Called(ctx, vocabularyID)

	if len(ret) == 0 {
		panic("no return value specified for GetMappings")
	}

	var r0 *taxonomy.Mapping
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*taxonomy.Mapping, error)); ok {
		return rf(ctx, vocabularyID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *taxonomy.Mapping); ok {
		r0 = rf(ctx, vocabularyID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*taxonomy.Mapping)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, vocabularyID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockMappingSource creates a new instance of MockMappingSource.
func NewMockMappingSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMappingSource {
	mock := &MockMappingSource{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
