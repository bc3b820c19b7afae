package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "aws",
			cfg:  S3Config{Region: "eu-central-1", Bucket: "theories"},
			want: "https://theories.s3.eu-central-1.amazonaws.com",
		},
		{
			name: "custom endpoint",
			cfg:  S3Config{Region: "us-east-1", Bucket: "theories", Endpoint: "http://localhost:9000/"},
			want: "http://localhost:9000/theories",
		},
		{
			name: "cdn wins",
			cfg:  S3Config{Bucket: "theories", Endpoint: "http://localhost:9000", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicBaseURL(tt.cfg))
		})
	}
}

func TestURL(t *testing.T) {
	s := &S3Storage{publicURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/public/theories/a.png", s.URL("public/theories/a.png"))
}
