package errors

import (
	stderrors "errors"
	"io"
	"net/http"
	"testing"
)

func TestRequestError(t *testing.T) {
	err := BadRequest("invalid index %q", "x")

	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, err.StatusCode)
	}

	if err.Error() != `invalid index "x"` {
		t.Errorf(`unexpected message "%s"`, err.Error())
	}

	if nf := NotFound("site not found"); nf.StatusCode != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, nf.StatusCode)
	}
}

func TestRequestErrorUnwrap(t *testing.T) {
	var err error = &RequestError{StatusCode: http.StatusBadRequest, Err: io.ErrUnexpectedEOF}

	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected wrapped error to be found")
	}

	var reqErr *RequestError
	if !stderrors.As(err, &reqErr) || reqErr.StatusCode != http.StatusBadRequest {
		t.Error("expected to find the request error")
	}
}
