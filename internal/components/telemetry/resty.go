package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
	report_resty_slow     = "resty.slow"
	report_resty_failed   = "resty.failed"
)

// SlowRequest is the latency past which a response is reported as a
// warning instead of a debug message.
const SlowRequest = 10 * time.Second

type instrumentResty struct {
	tel   API
	count *atomic.Uint64
}

// InstrumentResty reports every attempt made by the client with its
// latency, and every request that failed for good.
func InstrumentResty(client *resty.Client, tel API) {
	i := instrumentResty{tel: tel, count: &atomic.Uint64{}}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type attemptKey struct{}

type attempt struct {
	id    uint64
	start time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	a := attempt{id: i.count.Add(1), start: time.Now()}
	i.tel.ReportDebug(report_resty_request, a.id, req.Attempt, req.URL)
	req.SetContext(context.WithValue(req.Context(), attemptKey{}, a))
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	a, ok := res.Request.Context().Value(attemptKey{}).(attempt)
	if !ok {
		return nil
	}
	took := time.Since(a.start)
	if took > SlowRequest {
		i.tel.ReportWarning(report_resty_slow, a.id, res.Request.URL, took.String())
	}
	i.tel.ReportDebug(report_resty_response, a.id, res.StatusCode(), len(res.Body()), took.String())
	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	i.tel.ReportBroken(report_resty_failed, err, req.URL, req.Attempt)
}
