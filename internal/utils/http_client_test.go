package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_Configured(t *testing.T) {
	client, err := NewHTTPClient("localhost:8080/", 3*time.Second)

	require.NoError(t, err)
	require.NotNil(t, client.Client)
	assert.Equal(t, "http://localhost:8080", client.BaseURL)
	assert.Equal(t, 3*time.Second, client.GetClient().Timeout)
}

func TestNewHTTPClient_Independence(t *testing.T) {
	c1, err := NewHTTPClient("localhost:1", 0)
	require.NoError(t, err)
	c2, err := NewHTTPClient("localhost:2", 0)
	require.NoError(t, err)

	assert.NotSame(t, c1.Client, c2.Client)
}

func TestNewHTTPClient_InvalidAddress(t *testing.T) {
	_, err := NewHTTPClient("   ", time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid http address")
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "adds scheme", raw: "localhost:8080", want: "http://localhost:8080"},
		{name: "keeps https", raw: "https://store.example.com/", want: "https://store.example.com"},
		{name: "trims spaces", raw: "  127.0.0.1:9000 ", want: "http://127.0.0.1:9000"},
		{name: "empty", raw: "", wantErr: true},
		{name: "no host", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
