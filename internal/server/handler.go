package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/edgee-ai/matomo-component/internal/clock"
	"github.com/edgee-ai/matomo-component/internal/config"
	"github.com/edgee-ai/matomo-component/internal/enrich"
	"github.com/edgee-ai/matomo-component/internal/forward"
	"github.com/edgee-ai/matomo-component/internal/matomo"
	"github.com/edgee-ai/matomo-component/internal/metrics"
	"github.com/edgee-ai/matomo-component/internal/model"
	"github.com/edgee-ai/matomo-component/internal/pool"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	zlog "github.com/rs/zerolog/log"
)

// Enqueuer 는 변환된 요청을 비동기로 실행하는 쪽. forward.Dispatcher 가 구현한다.
type Enqueuer interface {
	Enqueue(job forward.Job) bool
}

// transformFunc 는 matomo.Page / Track / User 시그니처.
type transformFunc func(model.Event, model.Dict) (model.Request, error)

var transforms = map[model.EventType]transformFunc{
	model.EventPage:  matomo.Page,
	model.EventTrack: matomo.Track,
	model.EventUser:  matomo.User,
}

type Handler struct {
	cfg      config.Config
	settings model.Dict
	metrics  *metrics.Metrics
	fwd      Enqueuer
	geo      enrich.Locator
	now      func() int64
}

// NewHandler
//
// fwd 가 nil 이면 forward 비활성: 변환 결과(요청 명세)를 그대로 응답한다.
// geo 가 nil 이면 위치 보강을 하지 않는다.
func NewHandler(cfg config.Config, m *metrics.Metrics, fwd Enqueuer, geo enrich.Locator) *Handler {
	return &Handler{
		cfg:      cfg,
		settings: cfg.SettingsDict(),
		metrics:  m,
		fwd:      fwd,
		geo:      geo,
		now:      clock.UnixMilli,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// debugResponse 는 ?debug=1 일 때의 200 응답. _cvar 를 슬롯 순서대로 풀어서 함께 보여준다.
type debugResponse struct {
	Request    model.Request `json:"request"`
	CustomVars [][2]string   `json:"cvar"`
}

type queuedResponse struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// HandleKind 는 /v1/{page,track,user} 핸들러를 만든다.
// 이벤트 type 이 엔드포인트와 다르면 422.
func (h *Handler) HandleKind(kind model.EventType) http.HandlerFunc {
	fn := transforms[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		h.handle(w, r, func(model.EventType) transformFunc { return fn })
	}
}

// HandleEvent 는 이벤트 자신의 type 으로 entry point 를 고른다.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(t model.EventType) transformFunc { return transforms[t] })
}

// handle
//
// 수집 요청 공통 흐름.
//  1. body 크기 제한 + (gzip 이면) 해제
//  2. Event JSON 디코딩, uuid / timestamp 기본값
//  3. client 문맥 보강 (IP, UA, GeoIP)
//  4. Matomo 요청으로 변환
//  5. forward 활성: 큐에 넣고 202 (가득 차면 503) / 비활성: 요청 명세를 200 으로
//     (?debug=1 이면 _cvar 를 풀어서 함께)
func (h *Handler) handle(w http.ResponseWriter, r *http.Request, pick func(model.EventType) transformFunc) {
	atomic.AddInt64(&h.metrics.HTTPRequestsTotal, 1)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
	defer r.Body.Close()

	buf := pool.BodyPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer pool.PutBody(buf, h.cfg.MaxBodySize*2)

	if status, err := h.readBody(buf, r); err != nil {
		if status == http.StatusRequestEntityTooLarge {
			atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBodyTooLargeTotal, 1)
		} else {
			atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBadInputTotal, 1)
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	var ev model.Event
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBadInputTotal, 1)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event: " + err.Error()})
		return
	}

	if ev.UUID == "" {
		ev.UUID = uuid.NewString()
	}
	if ev.TimestampMillis == 0 {
		ev.TimestampMillis = h.now()
	}
	if ev.Context.Client.IP == "" {
		ev.Context.Client.IP = clientIP(r)
	}
	if ev.Context.Client.UserAgent == "" {
		ev.Context.Client.UserAgent = r.UserAgent()
	}
	ev.Context.Client = enrich.Client(ev.Context.Client, "", h.geo)

	fn := pick(ev.Type)
	if fn == nil {
		atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBadInputTotal, 1)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown event type"})
		return
	}

	req, err := fn(ev, h.settings)
	if err != nil {
		h.writeTransformError(w, ev, err)
		return
	}
	h.metrics.IncTransformed(ev.Type)

	if h.fwd == nil {
		if isDebug(r) {
			h.writeDebug(w, req)
			return
		}
		writeJSON(w, http.StatusOK, req)
		return
	}

	job := forward.Job{EventUUID: ev.UUID, Request: req, ClientHeaders: clientHeaders(ev.Context.Client)}
	if !h.fwd.Enqueue(job) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "forward queue full"})
		return
	}
	writeJSON(w, http.StatusAccepted, queuedResponse{UUID: ev.UUID, Status: "queued"})
}

// readBody 는 body 를 buf 로 읽는다. 실패 시 응답할 status 를 함께 돌려준다.
// gzip 해제 후 크기도 MaxBodySize 로 제한한다.
func (h *Handler) readBody(buf *bytes.Buffer, r *http.Request) (int, error) {
	var src io.Reader = r.Body

	if strings.EqualFold(strings.TrimSpace(r.Header.Get("Content-Encoding")), "gzip") {
		zr := pool.GzipReaderPool.Get().(*gzip.Reader)
		if err := zr.Reset(r.Body); err != nil {
			pool.GzipReaderPool.Put(zr)
			if status, ok := tooLarge(err); ok {
				return status, err
			}
			return http.StatusBadRequest, errors.New("invalid gzip body")
		}
		defer pool.PutGzipReader(zr)
		src = io.LimitReader(zr, h.cfg.MaxBodySize+1)
	}

	if _, err := io.Copy(buf, src); err != nil {
		if status, ok := tooLarge(err); ok {
			return status, err
		}
		return http.StatusBadRequest, errors.New("unreadable body")
	}
	if int64(buf.Len()) > h.cfg.MaxBodySize {
		return http.StatusRequestEntityTooLarge, errors.New("decoded body too large")
	}
	if buf.Len() == 0 {
		return http.StatusBadRequest, errors.New("empty body")
	}
	return 0, nil
}

func tooLarge(err error) (int, bool) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge, true
	}
	return 0, false
}

// writeTransformError
//   - 계약 위반(variant 불일치) → 422
//   - 설정 오류 → 500 (요청이 아니라 배포 설정 문제)
//   - 그 외 → 400
func (h *Handler) writeTransformError(w http.ResponseWriter, ev model.Event, err error) {
	switch {
	case errors.Is(err, matomo.ErrUnexpectedData):
		atomic.AddInt64(&h.metrics.EventsContractErrorsTotal, 1)
		zlog.Warn().Err(err).Str("uuid", ev.UUID).Str("event_type", string(ev.Type)).Msg("event rejected")
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, config.ErrInvalidSettings):
		atomic.AddInt64(&h.metrics.EventsConfigErrorsTotal, 1)
		zlog.Error().Err(err).Str("uuid", ev.UUID).Msg("matomo settings invalid")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBadInputTotal, 1)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
}

func isDebug(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("debug"))
	return err == nil && v
}

// writeDebug
//
// 요청 명세와 함께 _cvar 내용을 디코딩해서 돌려준다.
// _cvar 는 GET 이면 URL query, POST 면 form body 에 있다. 없으면 cvar 는 빈 배열.
func (h *Handler) writeDebug(w http.ResponseWriter, req model.Request) {
	raw, err := requestParams(req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	resp := debugResponse{Request: req, CustomVars: [][2]string{}}
	if cvar := raw.Get(matomo.KeyCustomVars); cvar != "" {
		pairs, err := matomo.DecodeCustomVars(cvar)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		resp.CustomVars = pairs
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestParams(req model.Request) (url.Values, error) {
	if req.Method == http.MethodPost {
		return url.ParseQuery(req.Body)
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	return u.Query(), nil
}

// clientHeaders 는 query 방식 전송 시 Matomo 로 넘길 원 사용자 헤더.
func clientHeaders(c model.Client) http.Header {
	hdr := http.Header{}
	if c.UserAgent != "" {
		hdr.Set("User-Agent", c.UserAgent)
	}
	if c.Locale != "" {
		hdr.Set("Accept-Language", c.Locale)
	}
	if c.IP != "" {
		hdr.Set("X-Forwarded-For", c.IP)
	}
	return hdr
}

// HandleMetrics 는 카운터 값을 text 로 출력한다.
func (h *Handler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, h.metrics.String())
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		zlog.Error().Err(err).Msg("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
