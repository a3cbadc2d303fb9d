package disasm

import (
	"errors"

	"lzd/internal/logging"
	"lzd/internal/pool"
)

var ErrEmptyWindow = errors.New("disasm: empty byte window")

type job struct {
	tuple Tuple
	data  []byte
	vaddr uint64
}

// PostBytes copies data and enqueues one decode job for it. The worker
// publishes one batch on success; a decoder open failure drops the job
// without publishing.
func PostBytes(p *pool.Pool, t Tuple, data []byte, vaddr uint64, publish Publish) error {
	if len(data) == 0 {
		return ErrEmptyWindow
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	j := &job{tuple: t, data: cp, vaddr: vaddr}
	return p.Post(func(tls *pool.TLS) { run(tls, j, publish) })
}

func run(tls *pool.TLS, j *job, publish Publish) {
	d, _ := tls.Get().(*Decoder)
	if d == nil || d.Tuple() != j.tuple {
		nd, err := NewDecoder(j.tuple)
		if err != nil {
			logging.Errorf("disasm: open decoder: %v", err)
			return
		}
		tls.Set(nd)
		d = nd
	}
	insns := d.Window(j.data, j.vaddr)
	publish(&Batch{
		Base:   j.vaddr,
		Length: len(j.data),
		Read:   len(j.data),
		Insns:  insns,
	})
}
