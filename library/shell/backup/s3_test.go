package backup_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/shell/backup"
)

const fakeBucket = "library-backups"

// fakeS3 understands the path-style PutObject, GetObject and ListObjectsV2 requests of the SDK.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/"+fakeBucket)
	key := strings.TrimPrefix(path, "/")

	switch {
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		f.list(w, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodPut && key != "":
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && key != "":
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message><Key>%s</Key></Error>`, key)

			return
		}

		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, prefix string) {
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>` + fakeBucket + `</Name><IsTruncated>false</IsTruncated>`)

	for _, key := range keys {
		_, _ = fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", key, len(f.objects[key]))
	}

	b.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, b.String())
}

func givenS3Target(t *testing.T) *backup.S3Target {
	server := httptest.NewServer(&fakeS3{objects: make(map[string][]byte)})
	t.Cleanup(server.Close)

	target, err := backup.NewS3Target(context.Background(), backup.S3Config{
		Bucket:          fakeBucket,
		Region:          "eu-central-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	return target
}

func Test_S3Target_PutGetList(t *testing.T) {
	// arrange
	ctx := context.Background()
	target := givenS3Target(t)

	// act
	require.NoError(t, target.Put(ctx, "bookdesk/events-1.jsonl", []byte(`{"seq":1}`+"\n")))
	require.NoError(t, target.Put(ctx, "bookdesk/events-2.jsonl", []byte(`{"seq":1}`+"\n")))
	require.NoError(t, target.Put(ctx, "other/events-3.jsonl", []byte("")))

	body, err := target.Get(ctx, "bookdesk/events-1.jsonl")
	require.NoError(t, err)

	keys, err := target.List(ctx, "bookdesk/")
	require.NoError(t, err)

	// assert
	assert.Equal(t, `{"seq":1}`+"\n", string(body))
	assert.Equal(t, []string{"bookdesk/events-1.jsonl", "bookdesk/events-2.jsonl"}, keys)
}

func Test_S3Target_GetMissing_ShouldFail(t *testing.T) {
	target := givenS3Target(t)

	_, err := target.Get(context.Background(), "bookdesk/missing.jsonl")

	assert.ErrorIs(t, err, backup.ErrObjectNotFound)
}

func Test_NewS3Target_WithoutBucket_ShouldFail(t *testing.T) {
	_, err := backup.NewS3Target(context.Background(), backup.S3Config{})

	assert.ErrorIs(t, err, backup.ErrMissingBucket)
}
