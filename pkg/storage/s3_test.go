package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thannaske/s3monitor/pkg/models"
)

// fakeS3 serves the handful of S3 API calls the monitor issues
type fakeS3 struct {
	mu       sync.Mutex
	maxKeys  []string
	aborted  []string
	failAbrt map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.Trim(r.URL.Path, "/")
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/xml")

	switch {
	case r.Method == http.MethodGet && path == "":
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Owner><ID>owner</ID><DisplayName>owner</DisplayName></Owner>
<Buckets>
<Bucket><Name>zeta</Name><CreationDate>2024-01-01T00:00:00.000Z</CreationDate></Bucket>
<Bucket><Name>alpha</Name><CreationDate>2024-01-01T00:00:00.000Z</CreationDate></Bucket>
</Buckets>
</ListAllMyBucketsResult>`)

	case r.Method == http.MethodGet && q.Get("list-type") == "2" && path == "denied":
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)

	case r.Method == http.MethodGet && q.Get("list-type") == "2":
		f.maxKeys = append(f.maxKeys, q.Get("max-keys"))
		if q.Get("continuation-token") == "" {
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Name>%s</Name><KeyCount>2</KeyCount><IsTruncated>true</IsTruncated>
<NextContinuationToken>page2</NextContinuationToken>
<Contents><Key>a</Key><Size>1024</Size></Contents>
<Contents><Key>b</Key><Size>2048</Size></Contents>
</ListBucketResult>`, path)
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Name>%s</Name><KeyCount>1</KeyCount><IsTruncated>false</IsTruncated>
<Contents><Key>c</Key><Size>4096</Size></Contents>
</ListBucketResult>`, path)

	case r.Method == http.MethodGet && q.Has("uploads"):
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListMultipartUploadsResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Bucket>%s</Bucket><IsTruncated>false</IsTruncated>
<Upload><Key>big.tar</Key><UploadId>u1</UploadId></Upload>
<Upload><Key>bad.tar</Key><UploadId>u2</UploadId></Upload>
<Upload><Key>other.tar</Key><UploadId>u3</UploadId></Upload>
</ListMultipartUploadsResult>`, path)

	case r.Method == http.MethodDelete && q.Get("uploadId") != "":
		id := q.Get("uploadId")
		if f.failAbrt[id] {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
			return
		}
		f.aborted = append(f.aborted, path+"#"+id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.String(), http.StatusNotImplemented)
	}
}

func newTestS3Client(t *testing.T, handler http.Handler) *S3Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := models.DefaultConfig()
	cfg.S3Endpoint = srv.URL
	cfg.S3AccessKey = "access"
	cfg.S3SecretKey = "secret"
	cfg.S3Region = "us-east-1"

	client, err := NewS3Client(cfg, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestS3ClientListBuckets(t *testing.T) {
	client := newTestS3Client(t, &fakeS3{})

	names, err := client.ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, names)
}

func TestS3ClientBucketSizePaginates(t *testing.T) {
	fake := &fakeS3{}
	client := newTestS3Client(t, fake)

	size, err := client.BucketSize(context.Background(), "data", 100000)
	require.NoError(t, err)
	assert.Equal(t, int64(1024+2048+4096), size)
	assert.Equal(t, []string{"100000", "100000"}, fake.maxKeys)
}

func TestS3ClientBucketSizeError(t *testing.T) {
	client := newTestS3Client(t, &fakeS3{})

	_, err := client.BucketSize(context.Background(), "denied", 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list objects")
}

func TestS3ClientCleanMultiparts(t *testing.T) {
	fake := &fakeS3{failAbrt: map[string]bool{"u2": true}}
	client := newTestS3Client(t, fake)

	aborted, err := client.CleanMultiparts(context.Background(), "data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u2")
	assert.Equal(t, 2, aborted)
	assert.Equal(t, []string{"data/big.tar#u1", "data/other.tar#u3"}, fake.aborted)
}
