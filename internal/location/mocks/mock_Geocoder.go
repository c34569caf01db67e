package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	geocode "github.com/marche-ricette/recipe-connector/pkg/geocode"
)

// MockGeocoder is a mock type for the Geocoder interface.
type MockGeocoder struct {
	mock.Mock
}

// Resolve provides a mock function with given fields: ctx, placeName
func (_m *MockGeocoder) Resolve(ctx context.Context, placeName string) (*geocode.Result, error) {
	ret := _m.Called(ctx, placeName)

	if len(ret) == 0 {
		panic("no return value specified for Resolve")
	}

	var r0 *geocode.Result
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*geocode.Result, error)); ok {
		return rf(ctx, placeName)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *geocode.Result); ok {
		r0 = rf(ctx, placeName)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geocode.Result)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, placeName)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockGeocoder creates a new instance of MockGeocoder.
func NewMockGeocoder(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGeocoder {
	mock := &MockGeocoder{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
