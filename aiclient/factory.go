package aiclient

import "time"

type ClientFactory interface {
	CreateClient(port int, timeout time.Duration) ModelServerClient
}

type HttpClientFactory struct{}

func (f *HttpClientFactory) CreateClient(port int, timeout time.Duration) ModelServerClient {
	return NewClient(port, timeout)
}

type MockClientFactory struct{}

func (f *MockClientFactory) CreateClient(port int, timeout time.Duration) ModelServerClient {
	return NewMockClient()
}
