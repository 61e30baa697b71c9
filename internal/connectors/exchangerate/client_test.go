package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate_NumberCell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"values": [[150.25, "2024-01-31"]]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	rate, err := client.Rate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 150.25, rate.Rate, 0.0001)
	assert.True(t, rate.Valid())
	assert.False(t, rate.AsOf.IsZero())
}

func TestRate_StringCell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"values": [["149.80"]]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	rate, err := client.Rate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 149.80, rate.Rate, 0.0001)
}

func TestRate_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Rate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestRate_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Rate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestRate_EmptyValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"values": []}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Rate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty values")
}

func TestRate_NonPositive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"values": [[0]]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Rate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-positive rate")
}

func TestRate_UnsupportedCell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"values": [[{"rate": 150}]]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Rate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse rate")
}
