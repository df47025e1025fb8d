package netx

import (
	"io"
	"sync"
)

// ProgressReader wraps a reader and reports how much of total has been
// consumed, as a whole percentage. The callback fires only when the
// percentage changes and never goes backwards.
type ProgressReader struct {
	r       io.Reader
	total   int64
	onStep  func(percent int)
	mu      sync.Mutex
	read    int64
	percent int
}

func NewProgressReader(r io.Reader, total int64, onStep func(percent int)) *ProgressReader {
	return &ProgressReader{r: r, total: total, onStep: onStep, percent: -1}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.Add(int64(n))
	}
	return n, err
}

// Add accounts for n more bytes. It also serves readers that learn about
// progress out of band, such as minio's Progress hook.
func (p *ProgressReader) Add(n int64) {
	p.mu.Lock()
	p.read += n
	pct := 100
	if p.total > 0 && p.read < p.total {
		pct = int(p.read * 100 / p.total)
	}
	changed := pct > p.percent
	if changed {
		p.percent = pct
	}
	p.mu.Unlock()

	if changed && p.onStep != nil {
		p.onStep(pct)
	}
}

// Percent returns the last reported percentage, or -1 before any read.
func (p *ProgressReader) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}
