package cwrap

import (
	"encoding/binary"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/wippyai/cwrap/memory"
)

func TestObject_Point(t *testing.T) {
	rt := newTestRuntime(t)
	point := registerPoint(t, rt)

	p := mustNew(t, point, map[string]any{"x": 10, "y": 20})
	if !p.IsBoxed() || p.Outer() != nil {
		t.Error("New must create a boxed root object")
	}
	if got := mustGet(t, p, "x"); got != int64(10) {
		t.Errorf("x = %v, want 10", got)
	}
	if got := mustGet(t, p, "y"); got != int64(20) {
		t.Errorf("y = %v, want 20", got)
	}

	if err := p.Set("x", -5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if got := int32(binary.NativeEndian.Uint32(data)); got != -5 {
		t.Errorf("raw x = %d, want -5", got)
	}
	if p.Len() != 8 {
		t.Errorf("Len = %d, want 8", p.Len())
	}
}

func TestObject_NumericInit(t *testing.T) {
	rt := newTestRuntime(t)
	point := registerPoint(t, rt)

	p := mustNew(t, point, 0xff)
	if got := mustGet(t, p, "x"); got != int64(-1) {
		t.Errorf("x = %v, want -1", got)
	}

	z := mustNew(t, point, 0)
	data, _ := z.Bytes()
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, b)
		}
	}
}

func TestObject_EmbeddedViews(t *testing.T) {
	rt := newTestRuntime(t)
	rect := registerRect(t, rt)
	point, _ := rt.Lookup("POINT")

	r := mustNew(t, rect, map[string]any{
		"tl": map[string]any{"x": 1, "y": 2},
		"br": map[string]any{"x": 3, "y": 4},
	})

	br := mustView(t, r, "br")
	if br.IsBoxed() || br.Outer() != r {
		t.Fatal("member views must point at their root")
	}
	if br.Offset() != 8 || br.Addr() != r.Addr()+8 {
		t.Errorf("br offset = %d, addr delta = %d", br.Offset(), br.Addr()-r.Addr())
	}

	if err := br.Set("x", 30); err != nil {
		t.Fatalf("Set through view: %v", err)
	}
	again := mustView(t, r, "br")
	if got := mustGet(t, again, "x"); got != int64(30) {
		t.Errorf("x through second view = %v, want 30", got)
	}

	// a view of a view is flattened onto the root
	nested, err := point.Attach(br)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if nested.Outer() != r || nested.Offset() != 8 {
		t.Errorf("nested view outer=%p offset=%d", nested.Outer(), nested.Offset())
	}
	if got := mustGet(t, nested, "y"); got != int64(4) {
		t.Errorf("y = %v, want 4", got)
	}
}

func TestObject_ViewKeepsOwnerAlive(t *testing.T) {
	rt := newTestRuntime(t)
	rect := registerRect(t, rt)

	r := mustNew(t, rect, map[string]any{"br": map[string]any{"x": 7}})
	br := mustView(t, r, "br")
	r.Release()

	if !r.Released() {
		t.Error("root must report released")
	}
	if _, err := r.Get("tl"); !errors.Is(err, ErrReleased) {
		t.Errorf("expected ErrReleased, got %v", err)
	}
	if got := mustGet(t, br, "x"); got != int64(7) {
		t.Errorf("view must keep bytes alive, x = %v", got)
	}
	if rt.Stats().BlocksFreed != 0 {
		t.Fatal("block freed while a view still exists")
	}

	br.Release()
	if s := rt.Stats(); s.Blocks != 1 || s.BlocksFreed != 1 {
		t.Errorf("stats = %+v, want the block freed once", s)
	}
}

func TestObject_GCReleasesBlock(t *testing.T) {
	rt := newTestRuntime(t)
	point := registerPoint(t, rt)

	func() {
		p := mustNew(t, point, map[string]any{"x": 1})
		_ = p
	}()

	deadline := time.Now().Add(5 * time.Second)
	for rt.Stats().BlocksFreed == 0 {
		if time.Now().After(deadline) {
			t.Fatal("unreachable object was not released by the garbage collector")
		}
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
}

func TestObject_GCKeepsViewedBlock(t *testing.T) {
	rt := newTestRuntime(t)
	rect := registerRect(t, rt)

	func() {
		br := func() *Object {
			r := mustNew(t, rect, map[string]any{"br": map[string]any{"x": 7}})
			return mustView(t, r, "br")
		}()

		for range 3 {
			runtime.GC()
			time.Sleep(5 * time.Millisecond)
		}
		if rt.Stats().BlocksFreed != 0 {
			t.Fatal("block freed while a view still exists")
		}
		if got := mustGet(t, br, "x"); got != int64(7) {
			t.Errorf("x = %v, want 7", got)
		}
		runtime.KeepAlive(br)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for rt.Stats().BlocksFreed == 0 {
		if time.Now().After(deadline) {
			t.Fatal("block was not released after its last view became unreachable")
		}
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	if s := rt.Stats(); s.BlocksFreed != 1 {
		t.Errorf("stats = %+v, want the block freed once", s)
	}
}

func TestObject_AttachSources(t *testing.T) {
	rt := newTestRuntime(t)
	point := registerPoint(t, rt)
	rect := registerRect(t, rt)

	t.Run("byte slice", func(t *testing.T) {
		buf := make([]byte, 8)
		v, err := point.Attach(buf)
		if err != nil {
			t.Fatalf("Attach: %v", err)
		}
		if err := v.Set("y", 9); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if got := binary.NativeEndian.Uint32(buf[4:]); got != 9 {
			t.Errorf("buf y = %d, want 9", got)
		}
		if _, ok := v.Pointer().(Address); !ok {
			t.Errorf("byte slice views report an Address, got %T", v.Pointer())
		}
	})

	t.Run("host address", func(t *testing.T) {
		p := mustNew(t, point, map[string]any{"x": 11})
		for _, src := range []any{Pointer(p.Addr()), uintptr(p.Addr()), p.Addr()} {
			v, err := point.Attach(src)
			if err != nil {
				t.Fatalf("Attach(%T): %v", src, err)
			}
			if got := mustGet(t, v, "x"); got != int64(11) {
				t.Errorf("Attach(%T): x = %v, want 11", src, got)
			}
			if v.Pointer() != Pointer(p.Addr()) {
				t.Errorf("Attach(%T): pointer = %v", src, v.Pointer())
			}
		}
		runtime.KeepAlive(p)
	})

	t.Run("object", func(t *testing.T) {
		r := mustNew(t, rect, nil)
		v, err := point.Attach(r)
		if err != nil {
			t.Fatalf("Attach: %v", err)
		}
		if v.Outer() != r || v.Offset() != 0 {
			t.Error("attaching to an object must create a view at its root")
		}
		if err := v.Set("x", 5); err != nil {
			t.Fatalf("Set: %v", err)
		}
		tl := mustView(t, r, "tl")
		if got := mustGet(t, tl, "x"); got != int64(5) {
			t.Errorf("x = %v, want 5", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		p := mustNew(t, point, nil)
		released := mustNew(t, point, nil)
		released.Release()

		tests := []struct {
			name   string
			src    any
			target error
		}{
			{"bool", true, ErrInvalidAttach},
			{"float", 1.5, ErrInvalidAttach},
			{"string", "abc", ErrInvalidAttach},
			{"nil", nil, ErrInvalidAttach},
			{"zero pointer", Pointer(0), ErrInvalidAttach},
			{"zero int", 0, ErrInvalidAttach},
			{"address without memory", Address{Ptr: 16}, ErrInvalidAttach},
			{"short slice", []byte{1, 2}, ErrInvalidAttach},
			{"larger type", p, ErrInvalidAttach},
			{"released", released, ErrReleased},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				typ := point
				if tt.name == "larger type" {
					typ = rect
				}
				if _, err := typ.Attach(tt.src); !errors.Is(err, tt.target) {
					t.Errorf("expected %v, got %v", tt.target, err)
				}
			})
		}
	})
}

func TestObject_AttachGuestMemory(t *testing.T) {
	rt := newTestRuntime(t)
	point := registerPoint(t, rt)
	guest := guestMemory(t)
	mem := memory.Wrap(guest)

	v, err := point.Attach(Address{Mem: mem, Ptr: 64})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := v.Set("x", 0x01020304); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, ok := guest.Read(64, 4)
	if !ok || binary.NativeEndian.Uint32(raw) != 0x01020304 {
		t.Errorf("guest x = % x", raw)
	}

	raw, _ = guest.Read(68, 4)
	binary.NativeEndian.PutUint32(raw, 99)
	if y := mustGet(t, v, "y"); y != int64(99) {
		t.Errorf("y = %v, want 99", y)
	}

	addr, ok := v.Pointer().(Address)
	if !ok || addr.Ptr != 64 || addr.Mem != mem {
		t.Errorf("pointer = %#v", v.Pointer())
	}

	if _, err := point.Attach(Address{Mem: mem, Ptr: 65536 - 4}); !errors.Is(err, ErrInvalidAttach) {
		t.Errorf("expected ErrInvalidAttach past the end, got %v", err)
	}
}

func TestObject_Released(t *testing.T) {
	rt := newTestRuntime(t)
	point := registerPoint(t, rt)

	p := mustNew(t, point, nil)
	p.Release()
	p.Release()

	if _, err := p.Get("x"); !errors.Is(err, ErrReleased) {
		t.Errorf("Get: expected ErrReleased, got %v", err)
	}
	if err := p.Set("x", 1); !errors.Is(err, ErrReleased) {
		t.Errorf("Set: expected ErrReleased, got %v", err)
	}
	if _, err := p.Assign(map[string]any{"x": 1}); !errors.Is(err, ErrReleased) {
		t.Errorf("Assign: expected ErrReleased, got %v", err)
	}
	if _, err := p.Bytes(); !errors.Is(err, ErrReleased) {
		t.Errorf("Bytes: expected ErrReleased, got %v", err)
	}
	if s := rt.Stats(); s.BlocksFreed != 1 {
		t.Errorf("blocks freed = %d, want 1", s.BlocksFreed)
	}
}

func TestObject_AllocationLimit(t *testing.T) {
	rt := New(Options{MaxObjectSize: 16})
	defer rt.Close()

	small, err := rt.RegisterBuffer("SMALL", 16)
	if err != nil {
		t.Fatalf("RegisterBuffer: %v", err)
	}
	if _, err := small.New(nil); err != nil {
		t.Errorf("New at the limit: %v", err)
	}
	if _, err := rt.CreateBuffer(17); !errors.Is(err, ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", err)
	}
}
