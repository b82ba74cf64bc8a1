package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		wantEndpoint string
		wantSecure   bool
		wantErr      bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://minio:9000", "minio:9000", true, false},
		{"http://minio:9000/", "minio:9000", false, false},
		{"http://minio:9000/foo", "", false, true},
		{"", "", false, true},
	}

	for _, tt := range tests {
		ep, secure, err := normaliseEndpoint(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantEndpoint, ep)
		assert.Equal(t, tt.wantSecure, secure)
	}
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://cdn.eventup.vn/eventup/avatar/a%20b.png",
		ObjectURL("https://cdn.eventup.vn/", "eventup", "avatar/a b.png"))
}

func TestDisabled(t *testing.T) {
	var s Store = Disabled{}
	_, err := s.Put(context.Background(), "k", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, s.Remove(context.Background(), "k"), ErrDisabled)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrDisabled)
}
