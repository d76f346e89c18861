package http

import (
	"fmt"
	"net/http"
)

// StatusResponseWriter wraps a http.ResponseWriter and records the status
// code and payload size written through it.
type StatusResponseWriter struct {
	statusCode    int
	responseBytes int
	http.ResponseWriter
}

// NewStatusResponseWriter returns a StatusResponseWriter around w.
func NewStatusResponseWriter(w http.ResponseWriter) *StatusResponseWriter {
	return &StatusResponseWriter{
		ResponseWriter: w,
	}
}

func (w *StatusResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.responseBytes += n
	return n, err
}

// WriteHeader writes the header and captures the status code.
func (w *StatusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Code is the last status code written, or 200 if none was set explicitly.
func (w *StatusResponseWriter) Code() int {
	if w.statusCode == 0 {
		// the default status code written by net/http
		return http.StatusOK
	}
	return w.statusCode
}

// ResponseBytes is the number of body bytes written so far.
func (w *StatusResponseWriter) ResponseBytes() int {
	return w.responseBytes
}

// StatusCodeClass returns the class of the recorded status code, e.g. "2XX".
func (w *StatusResponseWriter) StatusCodeClass() string {
	class := "XXX"
	switch w.Code() / 100 {
	case 1, 2, 3, 4, 5:
		class = fmt.Sprintf("%dXX", w.Code()/100)
	}
	return class
}
