package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureHandler struct {
	errs      []*PropError
	listeners []*ListenerError
}

func (h *captureHandler) HandleError(err *PropError)              { h.errs = append(h.errs, err) }
func (h *captureHandler) HandleListenerError(err *ListenerError) { h.listeners = append(h.listeners, err) }

func TestErrorFormatting(t *testing.T) {
	err := Errorf("propval.Set", KindCast, "brightness", "cannot convert %q", "oops")
	assert.Equal(t, `propval.Set [cast] container=brightness: cannot convert "oops"`, err.Error())

	bare := E("schema.Parse", KindSchema, "", fmt.Errorf("bad document"))
	assert.Equal(t, "schema.Parse [schema]: bad document", bare.Error())
}

func TestKindOf(t *testing.T) {
	err := E("props.Set", KindValidation, "threshold", fmt.Errorf("out of range"))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindCast))

	wrapped := fmt.Errorf("applying overrides: %w", err)
	assert.Equal(t, KindValidation, KindOf(wrapped))

	assert.Equal(t, KindUnknown, KindOf(fmt.Errorf("plain")))
	assert.False(t, IsKind(nil, KindValidation))
}

func TestUnwrap(t *testing.T) {
	inner := fmt.Errorf("inner")
	err := E("op", KindListener, "", inner)
	assert.Equal(t, inner, err.Unwrap())
}

func TestKindStrings(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindUnknown:        "unknown",
		KindCast:           "cast",
		KindValidation:     "validation",
		KindDuplicateName:  "duplicate name",
		KindLengthMismatch: "length mismatch",
		KindValueNotFound:  "value not found",
		KindInvalidOrder:   "invalid order",
		KindIllegalSync:    "illegal sync",
		KindListener:       "listener",
		KindSchema:         "schema",
		KindPanic:          "panic",
	}
	for kind, want := range kinds {
		assert.Equal(t, want, kind.String())
	}
}

func TestReportUsesGlobalHandler(t *testing.T) {
	h := &captureHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	Report(E("op", KindCast, "c", fmt.Errorf("boom")))
	Report(nil)

	require.Len(t, h.errs, 1)
	assert.Equal(t, "c", h.errs[0].Container)
}

func TestReportListenerErrorStampsTimestamp(t *testing.T) {
	h := &captureHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	ReportListenerError(&ListenerError{Desc: "obs (brightness)", Recovered: "kaboom"})

	require.Len(t, h.listeners, 1)
	got := h.listeners[0]
	assert.False(t, got.Timestamp.IsZero())
	assert.Contains(t, got.Error(), "panic in listener obs (brightness)")
}

func TestSetHandlerNilRestoresDefault(t *testing.T) {
	SetHandler(&captureHandler{})
	SetHandler(nil)
	_, ok := DefaultHandler.(*LogHandler)
	assert.True(t, ok)
}
