package response

import (
	"net/http"
)

// MetricsResponseWriter records the status code and body size written to the
// underlying writer, for the access-log middleware.
type MetricsResponseWriter struct {
	w             http.ResponseWriter
	StatusCode    int
	BytesCount    int
	headerWritten bool
}

func NewMetricsResponseWriter(w http.ResponseWriter) *MetricsResponseWriter {
	return &MetricsResponseWriter{
		w:          w,
		StatusCode: http.StatusOK,
	}
}

func (mw *MetricsResponseWriter) Header() http.Header {
	return mw.w.Header()
}

func (mw *MetricsResponseWriter) WriteHeader(statusCode int) {
	mw.w.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.StatusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *MetricsResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	n, err := mw.w.Write(b)
	mw.BytesCount += n
	return n, err
}

func (mw *MetricsResponseWriter) Unwrap() http.ResponseWriter {
	return mw.w
}
