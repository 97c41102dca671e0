package memblob

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

func TestStore(t *testing.T) {
	nowFunc = func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	ctx := context.Background()
	s := New("http://localhost/blobs/")

	require.NoError(t, s.Put(ctx, "submissions", "/a1/s1/answer.pdf", strings.NewReader("%PDF"), "application/pdf"))

	obj, ok := s.Get("submissions", "a1/s1/answer.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(obj.Content))
	assert.Equal(t, "application/pdf", obj.ContentType)

	assert.Equal(t, "http://localhost/blobs/assignments/c1/a1/brief.pdf", s.PublicURL("assignments", "c1/a1/brief.pdf"))

	url, err := s.SignedURL(ctx, "submissions", "a1/s1/answer.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/blobs/submissions/a1/s1/answer.pdf?expires=1704848400", url)

	require.NoError(t, s.Delete(ctx, "submissions", "a1/s1/answer.pdf"))
	_, err = s.SignedURL(ctx, "submissions", "a1/s1/answer.pdf", time.Hour)
	assert.True(t, core.IsNotFound(err))
}
