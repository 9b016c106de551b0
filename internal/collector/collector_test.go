package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"blender-scraper/internal/release"

	"github.com/stretchr/testify/require"
)

type nopTel struct {
	mu     sync.Mutex
	broken int
}

func (n *nopTel) ReportBroken(id string, params ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broken++
}
func (n *nopTel) ReportWarning(id string, params ...any) {}
func (n *nopTel) ReportDebug(message string, params ...any) {}
func (n *nopTel) ReportCount(id string, count int64)        {}

func records(n int) release.Collection {
	out := make(release.Collection, n)
	for i := range out {
		out[i] = release.Record{Version: release.Version{3, int8(i), 0}}
	}
	return out
}

func constant(c release.Collection, err error) ScrapeFunc {
	return func(ctx context.Context) (release.Collection, error) {
		return c, err
	}
}

func TestCollect(t *testing.T) {
	errDown := errors.New("connection refused")

	cases := []struct {
		name      string
		sources   []Source
		channels  map[string]int
		failures  []string
		allFailed bool
	}{
		{
			name: "all succeed",
			sources: []Source{
				{Channel: "stable", Scrape: constant(records(2), nil)},
				{Channel: "daily", Scrape: constant(records(3), nil)},
			},
			channels: map[string]int{"stable": 2, "daily": 3},
		},
		{
			name: "failed channel is omitted",
			sources: []Source{
				{Channel: "stable", Scrape: constant(records(1), nil)},
				{Channel: "patch", Scrape: constant(nil, errDown)},
				{Channel: "experimental", Scrape: constant(nil, errDown)},
			},
			channels: map[string]int{"stable": 1},
			failures: []string{"experimental", "patch"},
		},
		{
			name: "empty channel is kept",
			sources: []Source{
				{Channel: "patch", Scrape: constant(nil, nil)},
			},
			channels: map[string]int{"patch": 0},
		},
		{
			name: "everything failed",
			sources: []Source{
				{Channel: "stable", Scrape: constant(nil, errDown)},
				{Channel: "daily", Scrape: constant(nil, errDown)},
			},
			channels:  map[string]int{},
			failures:  []string{"daily", "stable"},
			allFailed: true,
		},
		{
			name:     "nothing requested",
			channels: map[string]int{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tel := &nopTel{}
			result := NewCollector(tel, 2).Collect(context.Background(), tc.sources)

			counts := map[string]int{}
			for channel, collection := range result.Channels {
				require.NotNil(t, collection, channel)
				counts[channel] = len(collection)
			}
			require.Equal(t, tc.channels, counts)

			var failed []string
			for _, f := range result.Failures {
				failed = append(failed, f.Channel)
				require.ErrorIs(t, f, errDown)
			}
			require.Equal(t, tc.failures, failed)
			require.Equal(t, len(tc.failures), tel.broken)
			require.Equal(t, tc.allFailed, result.AllFailed())

			if len(tc.failures) == 0 {
				require.NoError(t, result.Err())
			} else {
				require.ErrorIs(t, result.Err(), errDown)
			}
		})
	}
}

func TestCollectRespectsConcurrency(t *testing.T) {
	var running, peak atomic.Int32

	scrape := func(ctx context.Context) (release.Collection, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return records(1), nil
	}

	var sources []Source
	for _, channel := range []string{"stable", "daily", "experimental", "patch", "lts"} {
		sources = append(sources, Source{Channel: channel, Scrape: scrape})
	}

	result := NewCollector(&nopTel{}, 2).Collect(context.Background(), sources)
	require.Len(t, result.Channels, 5)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestChannelError(t *testing.T) {
	err := ChannelError{Channel: "daily", Err: errors.New("boom")}
	require.Equal(t, "channel daily: boom", err.Error())
}
