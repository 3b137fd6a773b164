package telemetry

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty attaches a span to every request issued by the
// client. The crawl is a long chain of postbacks so having one span
// per request, with the form fields visible, is what makes a garbled
// remote response debuggable after the fact.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(cli *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()

		span.SetName(fmt.Sprintf("http %s", res.Request.Method))
		span.SetAttributes(
			attribute.String("http.url", res.Request.URL),
			attribute.Int("http.status_code", res.StatusCode()),
			attribute.Int("http.response_content_length", len(res.Body())),
			attribute.String("http.duration", res.Time().String()),
		)
		if form := res.Request.FormData; len(form) > 0 {
			for key := range form {
				// the carried hidden state is huge and opaque, only
				// record the fields the caller set explicitly
				if key == "__VIEWSTATE" || key == "__EVENTVALIDATION" {
					continue
				}
				span.SetAttributes(attribute.String(
					fmt.Sprintf("request/form: %s", key),
					form.Get(key),
				))
			}
		}
		if res.IsError() {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}
