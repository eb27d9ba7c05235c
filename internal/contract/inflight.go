package contract

import "sync"

// Inflight hands out one token per (account, action) pair. A second request
// for a held token fails with ErrBusy instead of racing the first.
type Inflight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewInflight() *Inflight { return &Inflight{busy: map[string]struct{}{}} }

func inflightKey(account, action string) string { return account + "\x00" + action }

func (f *Inflight) Acquire(account, action string) (func(), error) {
	k := inflightKey(account, action)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.busy[k]; ok {
		return nil, ErrBusy
	}
	f.busy[k] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.busy, k)
			f.mu.Unlock()
		})
	}, nil
}

func (f *Inflight) Busy(account, action string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.busy[inflightKey(account, action)]
	return ok
}
