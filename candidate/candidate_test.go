package candidate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.1.1.1", "1.1.1.1"},
		{"  8.8.8.8  ", "8.8.8.8"},
		{"104.16.1.2:443", "104.16.1.2:443"},
		{"104.16.1.2:443#HK fast", "104.16.1.2:443"},
		{"2606:4700::1", "2606:4700::1"},
		{"# comment", ""},
		{"", ""},
		{"not an ip", ""},
		{"10.0.0.1", ""},        // private
		{"192.168.1.5:80", ""},  // private with port
		{"1.1.1.1:0", ""},       // bad port
		{"1.1.1.1:70000", ""},   // bad port
		{"999.1.1.1", ""},       // bad octet
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseLine(c.in), "line %q", c.in)
	}
}

func TestExpandCIDR(t *testing.T) {
	got := ExpandCIDR("1.2.3.0/24", 3)
	assert.Equal(t, []string{"1.2.3.1", "1.2.3.2", "1.2.3.3"}, got)

	// Small block: network and broadcast are skipped.
	got = ExpandCIDR("1.2.3.0/30", 10)
	assert.Equal(t, []string{"1.2.3.1", "1.2.3.2"}, got)

	// Single-address block keeps its only address.
	got = ExpandCIDR("5.6.7.8/32", 10)
	assert.Equal(t, []string{"5.6.7.8"}, got)

	assert.Nil(t, ExpandCIDR("10.0.0.0/8", 5), "reserved block yields nothing")
	assert.Nil(t, ExpandCIDR("garbage/24", 5))
	assert.Nil(t, ExpandCIDR("1.2.3.0/24", 0))
}

func TestParseListMixed(t *testing.T) {
	body := "# header\n1.1.1.1\n1.2.3.0/30\n\nbad line\n8.8.8.8:53#dns\n"
	got := ParseList(body, 5)
	assert.Equal(t, []string{"1.1.1.1", "1.2.3.1", "1.2.3.2", "8.8.8.8:53"}, got)
}

func TestStaticSourceDedupAndOrder(t *testing.T) {
	src := NewStatic([]string{"1.1.1.1", "8.8.8.8", "1.1.1.1", "9.9.9.9"}, 0)
	assert.Equal(t, 3, src.Len())

	batch, err := src.NextBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, batch)

	batch, err = src.NextBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"9.9.9.9"}, batch)

	batch, err = src.NextBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, batch, "drained source keeps returning empty batches")
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ips.txt")
	require.NoError(t, os.WriteFile(path, []byte("1.1.1.1\n#skip\n8.8.8.8\n1.1.1.1\n"), 0o644))

	src, err := NewFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.txt"), 0)
	assert.Error(t, err)
}

func TestRemoteSource(t *testing.T) {
	feedA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1.1.1.1\n8.8.8.8\n"))
	}))
	defer feedA.Close()
	feedB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("8.8.8.8\n9.9.9.9\n"))
	}))
	defer feedB.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	src := NewRemote([]Feed{
		{Name: "a", URL: feedA.URL},
		{Name: "broken", URL: broken.URL},
		{Name: "b", URL: feedB.URL},
	})

	var all []string
	for {
		batch, err := src.NextBatch(context.Background(), 2)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}
	// Duplicates across feeds collapse, the broken feed is skipped.
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8", "9.9.9.9"}, all)
}

func TestRemoteSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewRemote([]Feed{{Name: "x", URL: "http://127.0.0.1:0/"}})
	_, err := src.NextBatch(ctx, 5)
	assert.Error(t, err)
}
