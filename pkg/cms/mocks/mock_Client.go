// Package mocks provides test doubles for the cms client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	cms "github.com/marche-ricette/recipe-connector/pkg/cms"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ListVocabularyCategories provides a mock function with given fields: ctx, vocabularyID
func (_m *MockClient) ListVocabularyCategories(ctx context.Context, vocabularyID string) (*cms.CategoryPage, error) {
	ret := _m.Called(ctx, vocabularyID)

	if len(ret) == 0 {
		panic("no return value specified for ListVocabularyCategories")
	}

	var r0 *cms.CategoryPage
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*cms.CategoryPage, error)); ok {
		return rf(ctx, vocabularyID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *cms.CategoryPage); ok {
		r0 = rf(ctx, vocabularyID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*cms.CategoryPage)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, vocabularyID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ListChildCategories provides a mock function with given fields: ctx, parentID
func (_m *MockClient) ListChildCategories(ctx context.Context, parentID int64) (*cms.CategoryPage, error) {
	ret := _m.Called(ctx, parentID)

	if len(ret) == 0 {
		panic("no return value specified for ListChildCategories")
	}

	var r0 *cms.CategoryPage
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int64) (*cms.CategoryPage, error)); ok {
		return rf(ctx, parentID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int64) *cms.CategoryPage); ok {
		r0 = rf(ctx, parentID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*cms.CategoryPage)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, parentID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreateStructuredContent provides a mock function with given fields: ctx, folderID, content
func (_m *MockClient) CreateStructuredContent(ctx context.Context, folderID int64, content cms.StructuredContent) (*cms.StructuredContentResponse, error) {
	ret := _m.Called(ctx, folderID, content)

	if len(ret) == 0 {
		panic("no return value specified for CreateStructuredContent")
	}

	var r0 *cms.StructuredContentResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int64, cms.StructuredContent) (*cms.StructuredContentResponse, error)); ok {
		return rf(ctx, folderID, content)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int64, cms.StructuredContent) *cms.StructuredContentResponse); ok {
		r0 = rf(ctx, folderID, content)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*cms.StructuredContentResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, int64, cms.StructuredContent) error); ok {
		r1 = rf(ctx, folderID, content)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
