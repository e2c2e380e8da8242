package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/thannaske/s3monitor/pkg/models"
	"github.com/thannaske/s3monitor/pkg/notify"
)

const gb = int64(1) << 30

type fakeStorage struct {
	mu         sync.Mutex
	buckets    []string
	sizes      map[string]int64
	listErr    error
	sizeErr    map[string]error
	cleanErr   map[string]error
	sized      []string
	cleaned    []string
	listCalls  int
	pageHints  []int32
	uploadsPer int
}

func (f *fakeStorage) ListBuckets(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.buckets...), nil
}

func (f *fakeStorage) BucketSize(ctx context.Context, bucket string, pageSize int32) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sized = append(f.sized, bucket)
	f.pageHints = append(f.pageHints, pageSize)
	if err := f.sizeErr[bucket]; err != nil {
		return 0, err
	}
	return f.sizes[bucket], nil
}

func (f *fakeStorage) CleanMultiparts(ctx context.Context, bucket string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, bucket)
	if err := f.cleanErr[bucket]; err != nil {
		return 0, err
	}
	return f.uploadsPer, nil
}

func (f *fakeStorage) calls() (listCalls int, sized, cleaned []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sized = append([]string(nil), f.sized...)
	cleaned = append([]string(nil), f.cleaned...)
	sort.Strings(sized)
	sort.Strings(cleaned)
	return f.listCalls, sized, cleaned
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []notify.Message
	failFor map[string]bool // by subject
}

func (f *fakeMailer) Send(ctx context.Context, m notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[m.Subject] {
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeMailer) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Subject
	}
	sort.Strings(out)
	return out
}

type renderCall struct {
	name string
	data map[string]any
}

type fakeRenderer struct {
	mu      sync.Mutex
	calls   []renderCall
	missing map[string]bool
}

func (f *fakeRenderer) Render(name string, data map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, renderCall{name: name, data: data})
	if f.missing[name] {
		return "", &models.TemplateNotFoundError{Path: name}
	}
	return "<html>" + name + "</html>", nil
}

func (f *fakeRenderer) last(name string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].name == name {
			return f.calls[i].data, true
		}
	}
	return nil, false
}

type fakeChat struct {
	mu       sync.Mutex
	enabled  bool
	texts    []string
	failWith error
}

func (f *fakeChat) Enabled() bool { return f.enabled }

func (f *fakeChat) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeChat) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.texts...)
	sort.Strings(out)
	return out
}
