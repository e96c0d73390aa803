// internal/forward/dispatcher.go
package forward

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgee-ai/matomo-component/internal/config"
	"github.com/edgee-ai/matomo-component/internal/metrics"
	"github.com/edgee-ai/matomo-component/internal/model"

	zlog "github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// query 방식 요청일 때 원본 클라이언트에서 넘겨받는 헤더.
var forwardedHeaders = []string{"User-Agent", "Accept-Language", "X-Forwarded-For"}

// Job 은 Matomo 로 보낼 요청 하나.
// ClientHeaders 는 수집 요청 시점에 캡처한 원본 헤더다.
type Job struct {
	EventUUID     string
	Request       model.Request
	ClientHeaders http.Header
}

// Dispatcher 는 변환된 요청을 Matomo 로 실제 전송하는 worker pool 이다.
//
// 구성:
//   - Jobs: HTTP 핸들러 → worker 로 요청 전달 (bounded)
//   - worker: Jobs 에서 하나씩 꺼내 fasthttp 로 한 번만 전송
//
// 재시도/DLQ 는 없다. 실패는 metrics 와 로그로만 남긴다.
// Shutdown 은 Jobs 를 닫고 남은 작업이 모두 끝날 때까지 기다린다.
type Dispatcher struct {
	metrics *metrics.Metrics
	client  *fasthttp.Client
	timeout time.Duration
	workers int

	Jobs chan Job

	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func New(cfg config.Config, m *metrics.Metrics) *Dispatcher {
	workers := cfg.ForwardWorkers
	if workers < 1 {
		workers = 1
	}
	queue := cfg.ForwardQueue
	if queue < 1 {
		queue = 1
	}
	timeout := cfg.ForwardTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Dispatcher{
		metrics: m,
		client: &fasthttp.Client{
			Name:                "matomo-component",
			MaxConnsPerHost:     workers * 2,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout: timeout,
		workers: workers,
		Jobs:    make(chan Job, queue),
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.loop()
	}
}

// Enqueue 는 큐가 가득 찼거나 이미 종료 중이면 false 를 돌려준다 (drop).
func (d *Dispatcher) Enqueue(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	select {
	case d.Jobs <- job:
		atomic.AddInt64(&d.metrics.ForwardEnqueuedTotal, 1)
		return true
	default:
		atomic.AddInt64(&d.metrics.ForwardQueueFullTotal, 1)
		return false
	}
}

// Shutdown 은 여러 번 호출해도 안전하다.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.Jobs)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	for job := range d.Jobs {
		if err := d.Send(job); err != nil {
			atomic.AddInt64(&d.metrics.ForwardErrorsTotal, 1)
			zlog.Warn().
				Err(err).
				Str("uuid", job.EventUUID).
				Str("method", job.Request.Method).
				Msg("matomo forward failed")
			continue
		}
		atomic.AddInt64(&d.metrics.ForwardSentTotal, 1)
		zlog.Debug().Str("uuid", job.EventUUID).Msg("matomo forward sent")
	}
}

// Send 는 요청을 정확히 한 번 실행한다. 2xx 가 아니면 오류.
func (d *Dispatcher) Send(job Job) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	r := job.Request
	req.SetRequestURI(r.URL)
	req.Header.SetMethod(r.Method)
	for _, h := range r.Headers {
		req.Header.Set(h.Name, h.Value)
	}
	if r.ForwardClientHeaders && job.ClientHeaders != nil {
		for _, name := range forwardedHeaders {
			if v := job.ClientHeaders.Get(name); v != "" {
				req.Header.Set(name, v)
			}
		}
	}
	if r.Body != "" {
		req.SetBodyString(r.Body)
	}

	if err := d.client.DoTimeout(req, resp, d.timeout); err != nil {
		return fmt.Errorf("matomo %s: %w", r.Method, err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("matomo %s: unexpected status %d", r.Method, code)
	}
	return nil
}
