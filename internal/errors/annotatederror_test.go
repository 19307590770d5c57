package errors

import (
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error (id=123)", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := Wrap(sentinel, "save record", slog.Int64("id", 4))
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "save record (id=4): test error", wrapped.Error())

	bare := Wrap(sentinel, "load")
	require.Equal(t, "load: test error", bare.Error())

	var annotated AnnotatedError
	require.True(t, As(err, &annotated))

	// Ensure log values are coming through.
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	require.GreaterOrEqual(t, sourceIdx, 0)
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "nothing to wrap"))
}

func TestSlogError(t *testing.T) {
	plain := NewSentinel("plain")
	require.Equal(t, slog.String("error", "plain"), SlogError(plain))

	attr := SlogError(Wrap(plain, "annotated"))
	require.Equal(t, "error", attr.Key)
	require.Equal(t, slog.KindLogValuer, attr.Value.Kind())
}

func TestErrorCarriesAttributesThroughWrapping(t *testing.T) {
	inner := Wrap(NewSentinel("unknown enum display value"), "resolve choice",
		slog.String("field", "factors"), slog.String("value", "Sleepy"))
	outer := Wrap(inner, "decode list item", slog.Int("index", 0))

	require.Equal(t,
		"decode list item (index=0): resolve choice (field=factors, value=Sleepy): unknown enum display value",
		outer.Error())
}
