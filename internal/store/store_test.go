package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

// stubBackend returns canned rows and records writes.
type stubBackend struct {
	group  string
	rows   []Row
	err    error
	writes []*WriteRequest
}

func (b *stubBackend) StorageGroup() string { return b.group }

func (b *stubBackend) Query(_ context.Context, _ Query) ([]Row, error) {
	return b.rows, b.err
}

func (b *stubBackend) Write(_ context.Context, req *WriteRequest) error {
	b.writes = append(b.writes, req)
	return b.err
}

func (b *stubBackend) RunInTransaction(_ context.Context, fn func(tx Backend) error) error {
	return fn(b)
}

func (b *stubBackend) Ping(context.Context) error { return b.err }
func (b *stubBackend) Close() error               { return nil }

type item struct {
	Name  string
	Count int64
}

type itemCodec struct{}

func (itemCodec) Encode(v *item) (Row, error) {
	return Row{ID: v.Name, Fields: map[string]any{"count": v.Count}}, nil
}

func (itemCodec) Decode(r Row) (*item, error) {
	n, err := r.Int64("count")
	if err != nil {
		return nil, err
	}
	return &item{Name: r.ID, Count: n}, nil
}

func TestPath(t *testing.T) {
	if got := Path(&stubBackend{group: "root.skywalking"}, "ui_template"); got != "root.skywalking.ui_template" {
		t.Errorf("Path = %q", got)
	}
	if got := Path(&stubBackend{}, "ui_template"); got != "ui_template" {
		t.Errorf("Path without group = %q", got)
	}
}

func TestQuery_WhereDoesNotAlias(t *testing.T) {
	base := Query{Collection: "c"}.Where(Eq("a", 1))
	left := base.Where(Eq("b", 2))
	right := base.Where(Gte("c", 3))

	if len(base.Conditions) != 1 {
		t.Fatalf("base mutated: %v", base.Conditions)
	}
	if left.Conditions[1].Field != "b" || right.Conditions[1].Field != "c" {
		t.Errorf("left=%v right=%v", left.Conditions, right.Conditions)
	}
}

func TestOp_IsValid(t *testing.T) {
	for _, tc := range []struct {
		op   Op
		want bool
	}{
		{OpEq, true},
		{OpGte, true},
		{Op("<"), false},
		{Op(""), false},
	} {
		if got := tc.op.IsValid(); got != tc.want {
			t.Errorf("Op(%q).IsValid() = %v, want %v", tc.op, got, tc.want)
		}
	}
}

func TestRow_Accessors(t *testing.T) {
	r := Row{ID: "x", Fields: map[string]any{
		"s":      "hello",
		"num":    json.Number("42"),
		"f":      float64(7),
		"i":      int64(9),
		"strnum": "11",
		"bad":    []int{1},
		"nil":    nil,
	}}

	if s, err := r.String("s"); err != nil || s != "hello" {
		t.Errorf("String(s) = %q, %v", s, err)
	}
	if s, err := r.String("missing"); err != nil || s != "" {
		t.Errorf("String(missing) = %q, %v", s, err)
	}
	for key, want := range map[string]int64{"num": 42, "f": 7, "i": 9, "strnum": 11, "missing": 0, "nil": 0} {
		if got, err := r.Int64(key); err != nil || got != want {
			t.Errorf("Int64(%s) = %d, %v; want %d", key, got, err, want)
		}
	}
	if _, err := r.Int64("bad"); !errors.Is(err, ErrDecode) {
		t.Errorf("Int64(bad) error = %v, want ErrDecode", err)
	}
	if _, err := r.String("bad"); !errors.Is(err, ErrDecode) {
		t.Errorf("String(bad) error = %v, want ErrDecode", err)
	}
}

func TestQueryList(t *testing.T) {
	b := &stubBackend{rows: []Row{
		{ID: "a", Fields: map[string]any{"count": json.Number("1")}},
		{ID: "b", Fields: map[string]any{"count": json.Number("2")}},
	}}
	items, err := QueryList[*item](context.Background(), b, Query{Collection: "items"}, itemCodec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].Name != "a" || items[1].Count != 2 {
		t.Errorf("got %+v", items)
	}
}

func TestQueryList_Empty(t *testing.T) {
	items, err := QueryList[*item](context.Background(), &stubBackend{}, Query{Collection: "items"}, itemCodec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", items)
	}
}

func TestQueryList_DecodeError(t *testing.T) {
	b := &stubBackend{rows: []Row{{ID: "a", Fields: map[string]any{"count": "nope"}}}}
	_, err := QueryList[*item](context.Background(), b, Query{Collection: "items"}, itemCodec{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestQueryList_BackendError(t *testing.T) {
	b := &stubBackend{err: WrapIO("query", "items", fmt.Errorf("connection refused"))}
	_, err := QueryList[*item](context.Background(), b, Query{Collection: "items"}, itemCodec{})
	if !errors.Is(err, ErrBackendIO) {
		t.Fatalf("expected ErrBackendIO, got %v", err)
	}
}

func TestNewWriteRequest(t *testing.T) {
	req, err := NewWriteRequest[*item]("root.items", 5, &item{Name: "a", Count: 3}, itemCodec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Collection != "root.items" || req.Version != 5 || req.Row.Version != 5 || req.Row.ID != "a" {
		t.Errorf("unexpected request: %+v", req)
	}

	if _, err := NewWriteRequest[*item]("root.items", 1, &item{}, itemCodec{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestWrapIO(t *testing.T) {
	if WrapIO("query", "c", nil) != nil {
		t.Fatal("WrapIO(nil) should be nil")
	}

	cause := errors.New("boom")
	err := WrapIO("write", "root.c", cause)
	if !errors.Is(err, ErrBackendIO) {
		t.Error("expected errors.Is(err, ErrBackendIO)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the driver error to be unwrappable")
	}
	if err.Error() != "write root.c: boom" {
		t.Errorf("Error() = %q", err.Error())
	}

	if again := WrapIO("commit", "", err); again != err {
		t.Error("already-wrapped errors should be returned unchanged")
	}
}
