// Package metrics counts failures and retry decisions.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs a nil check:
//
//	adapter := apierrors.NewHTTPErrorAdapter(logger) // records nothing
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg, "commerceapi")
//	adapter = apierrors.NewHTTPErrorAdapter(logger, apierrors.WithRecorder(rec))
//	advisor := retry.NewAdvisor(policy, rec)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
//
// Label values are taken from the failure taxonomy: kind and category are the
// snake_case tags of apierrors, status is the HTTP status a failure was
// presented with.
package metrics
