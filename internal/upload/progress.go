package upload

import "io"

// IndeterminateProgress is reported when the total transfer size is unknown.
const IndeterminateProgress = -1

// progressReader reports percent complete as the wrapped reader drains.
// Each percentage is reported once; with an unknown total it reports
// IndeterminateProgress a single time on the first read.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	report   func(int)
	last     int
	reported bool
}

func newProgressReader(r io.Reader, total int64, report func(int)) *progressReader {
	return &progressReader{r: r, total: total, report: report, last: -1}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.report != nil {
		if p.total <= 0 {
			if !p.reported {
				p.reported = true
				p.report(IndeterminateProgress)
			}
		} else if pct := int(p.read * 100 / p.total); pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
