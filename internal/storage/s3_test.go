package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secretBody = "0123456789abcdef0123456789abcdef\n"

func newFakeS3(t *testing.T) *S3Service {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/keys/authgate/jwt.key" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			}
			return
		}

		w.Header().Set("Content-Length", strconv.Itoa(len(secretBody)))
		w.Header().Set("Last-Modified", "Fri, 16 Oct 2026 09:30:00 GMT")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(secretBody))
		}
	}))
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	return NewS3Service(client)
}

func TestS3Service_Stat(t *testing.T) {
	svc := newFakeS3(t)

	info, err := svc.Stat(context.Background(), "keys", "authgate/jwt.key")
	require.NoError(t, err)
	assert.Equal(t, "authgate/jwt.key", info.Key)
	assert.Equal(t, int64(len(secretBody)), info.Size)
	require.NotNil(t, info.LastModified)
	assert.Equal(t, 2026, info.LastModified.Year())
}

func TestS3Service_Fetch(t *testing.T) {
	svc := newFakeS3(t)

	body, err := svc.Fetch(context.Background(), "keys", "authgate/jwt.key")
	require.NoError(t, err)
	assert.Equal(t, secretBody, string(body))
}

func TestS3Service_Missing(t *testing.T) {
	svc := newFakeS3(t)

	_, err := svc.Stat(context.Background(), "keys", "missing.key")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Fetch(context.Background(), "keys", "missing.key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Service_RequiresLocation(t *testing.T) {
	svc := newFakeS3(t)

	_, err := svc.Stat(context.Background(), "", "k")
	assert.Error(t, err)
	_, err = svc.Fetch(context.Background(), "b", "")
	assert.Error(t, err)
}
