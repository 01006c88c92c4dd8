package candidate

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// Feed names a provider-published candidate list.
type Feed struct {
	Name    string
	URL     string
	PerCIDR int // samples taken per CIDR block in this feed
}

// DefaultFeeds mirrors the provider range lists the project curates from:
// the Cloudflare published ranges plus ipverse ASN aggregates and a few
// community-maintained lists.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "official", URL: "https://www.cloudflare.com/ips-v4/", PerCIDR: 50},
		{Name: "as13335", URL: "https://raw.githubusercontent.com/ipverse/asn-ip/master/as/13335/ipv4-aggregated.txt", PerCIDR: 10},
		{Name: "as209242", URL: "https://raw.githubusercontent.com/ipverse/asn-ip/master/as/209242/ipv4-aggregated.txt", PerCIDR: 10},
		{Name: "cfip", URL: "https://raw.githubusercontent.com/qianxiu203/cfipcaiji/refs/heads/main/ip.txt", PerCIDR: 5},
		{Name: "bestcfv4", URL: "https://raw.githubusercontent.com/ymyuuu/IPDB/refs/heads/main/BestCF/bestcfv4.txt", PerCIDR: 5},
	}
}

// RemoteSource streams candidates from a list of HTTP feeds. Feeds are
// fetched lazily, one at a time, as the scheduler drains the buffer; a feed
// that fails to download is skipped rather than failing the run.
type RemoteSource struct {
	feeds  []Feed
	client *http.Client

	mu    sync.Mutex
	set   *dedupSet
	buf   []string
	pos   int
	fed   int // next feed index to fetch
	total int
}

func NewRemote(feeds []Feed) *RemoteSource {
	if len(feeds) == 0 {
		feeds = DefaultFeeds()
	}
	return &RemoteSource{
		feeds:  feeds,
		client: &http.Client{Timeout: 10 * time.Second},
		set:    newDedupSet(),
	}
}

func (r *RemoteSource) NextBatch(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.pos >= len(r.buf) {
		if r.fed >= len(r.feeds) {
			return nil, nil // every feed drained
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.fetchNextLocked(ctx)
	}

	end := r.pos + n
	if end > len(r.buf) {
		end = len(r.buf)
	}
	batch := r.buf[r.pos:end]
	r.pos = end
	return batch, nil
}

// fetchNextLocked downloads and parses the next feed into the buffer.
func (r *RemoteSource) fetchNextLocked(ctx context.Context) {
	feed := r.feeds[r.fed]
	r.fed++

	body, err := r.download(ctx, feed.URL)
	if err != nil {
		log.Printf("candidate feed %s unavailable: %v", feed.Name, err)
		return
	}
	added := 0
	for _, addr := range ParseList(body, feed.PerCIDR) {
		if r.set.add(addr) {
			r.buf = append(r.buf, addr)
			added++
		}
	}
	r.total += added
	log.Printf("candidate feed %s contributed %d addresses", feed.Name, added)
}

func (r *RemoteSource) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{url: url, status: resp.Status}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type httpStatusError struct {
	url    string
	status string
}

func (e *httpStatusError) Error() string {
	return "GET " + e.url + ": " + e.status
}
