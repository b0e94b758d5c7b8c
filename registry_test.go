package cwrap

import (
	"errors"
	"testing"
)

func TestRegistry_Builtins(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name  string
		size  uint32
		class TypeClass
	}{
		{"$i8", 1, ClassBasic},
		{"$u8", 1, ClassBasic},
		{"$i16", 2, ClassBasic},
		{"$u16", 2, ClassBasic},
		{"$i32", 4, ClassBasic},
		{"$u32", 4, ClassBasic},
		{"$i64", 8, ClassBasic},
		{"$u64", 8, ClassBasic},
		{"$int", 4, ClassBasic},
		{"$uint", 4, ClassBasic},
		{"$long", 8, ClassBasic},
		{"$ulong", 8, ClassBasic},
		{"$flt", 4, ClassBasic},
		{"$dbl", 8, ClassBasic},
		{"$ptr", PointerSize, ClassBasic},
		{"$ref", 4, ClassBasic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := rt.Resolve(tt.name)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if d.Size() != tt.size {
				t.Errorf("size = %d, want %d", d.Size(), tt.size)
			}
			if d.Class() != tt.class {
				t.Errorf("class = %s, want %s", d.Class(), tt.class)
			}
			if d.Dynamic() {
				t.Error("builtins must be static")
			}
		})
	}

	if got := len(rt.Types()); got != len(tests) {
		t.Errorf("Types() has %d names, want %d", got, len(tests))
	}
}

func TestRegistry_NoBuiltins(t *testing.T) {
	rt := New(Options{NoBuiltins: true})
	defer rt.Close()

	if n := len(rt.Types()); n != 0 {
		t.Fatalf("expected empty registry, got %d types", n)
	}
	if _, err := rt.Resolve("$i32"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestRegistry_RecordAndArray(t *testing.T) {
	rt := newTestRuntime(t)
	registerRect(t, rt)

	ints, err := rt.RegisterArray("INTS", 4, "$i32")
	if err != nil {
		t.Fatalf("RegisterArray: %v", err)
	}
	d := ints.Descriptor()
	if d.Size() != 16 || d.Len() != 4 || d.ElemSize() != 4 || d.ElemType() != "$i32" {
		t.Errorf("INTS: size=%d len=%d elem=%d/%s", d.Size(), d.Len(), d.ElemSize(), d.ElemType())
	}

	rect, err := rt.Lookup("RECT")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	members := rect.Descriptor().Members()
	if len(members) != 2 || members[1].Name != "br" || members[1].Offset != 8 || members[1].TypeName != "POINT" {
		t.Errorf("RECT members = %+v", members)
	}
	if rect.Descriptor().Len() != 16 {
		t.Errorf("RECT len = %d, want 16", rect.Descriptor().Len())
	}
}

func TestRegistry_Errors(t *testing.T) {
	rt := New(Options{MaxObjectSize: 64})
	defer rt.Close()

	if _, err := rt.RegisterBuffer("B", 8); err != nil {
		t.Fatalf("RegisterBuffer: %v", err)
	}

	tests := []struct {
		name   string
		target error
		fn     func() error
	}{
		{"duplicate", ErrDuplicateType, func() error {
			_, err := rt.RegisterBuffer("B", 4)
			return err
		}},
		{"duplicate builtin", ErrDuplicateType, func() error {
			_, err := rt.RegisterBuffer("$i32", 4)
			return err
		}},
		{"unknown element", ErrUnknownType, func() error {
			_, err := rt.RegisterArray("A", 4, "NOPE")
			return err
		}},
		{"missing element", ErrInvalidArgument, func() error {
			_, err := rt.RegisterArray("A", 4, "")
			return err
		}},
		{"count overflow", ErrOverflow, func() error {
			_, err := rt.RegisterArray("A", 1<<31, "$i64")
			return err
		}},
		{"too large", ErrAllocation, func() error {
			_, err := rt.RegisterBuffer("BIG", 128)
			return err
		}},
		{"member outside record", ErrOutOfBounds, func() error {
			_, err := rt.RegisterRecord("R", 4, []Member{{Name: "x", TypeName: "$i32", Offset: 4}})
			return err
		}},
		{"unnamed member", ErrInvalidArgument, func() error {
			_, err := rt.RegisterRecord("R", 4, []Member{{TypeName: "$i32"}})
			return err
		}},
		{"empty name", ErrInvalidArgument, func() error {
			_, err := rt.RegisterBuffer("", 4)
			return err
		}},
		{"basic without accessors", ErrInvalidArgument, func() error {
			_, err := rt.RegisterBasic("$x", 4, nil, nil)
			return err
		}},
		{"unregister unknown", ErrUnknownType, func() error {
			return rt.Unregister("NOPE")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}

	if _, err := rt.Lookup("A"); err == nil {
		t.Error("failed registration must not leave a type behind")
	}
}

func TestRegistry_LazyMemberResolution(t *testing.T) {
	rt := newTestRuntime(t)

	outer, err := rt.RegisterRecord("OUTER", 8, []Member{{Name: "in", TypeName: "INNER", Offset: 0}})
	if err != nil {
		t.Fatalf("member types may be registered later: %v", err)
	}
	o := mustNew(t, outer, nil)
	if _, err := o.Get("in"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType before INNER exists, got %v", err)
	}

	if _, err := rt.RegisterRecord("INNER", 8, []Member{{Name: "v", TypeName: "$u64", Offset: 0}}); err != nil {
		t.Fatalf("register INNER: %v", err)
	}
	in := mustView(t, o, "in")
	if err := in.Set("v", 42); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mustGet(t, in, "v"); got != uint64(42) {
		t.Errorf("v = %v, want 42", got)
	}
}

func TestRegistry_MemberExtent(t *testing.T) {
	rt := newTestRuntime(t)

	if _, err := rt.RegisterRecord("IN", 4, []Member{{Name: "a", TypeName: "$i32", Offset: 2}}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("registered member past the record end: expected ErrOutOfBounds, got %v", err)
	}

	// member type unknown at registration, checked on first use
	if _, err := rt.RegisterRecord("IN", 4, []Member{{Name: "a", TypeName: "LATE", Offset: 2}}); err != nil {
		t.Fatalf("register IN: %v", err)
	}
	out, err := rt.RegisterRecord("OUT", 8, []Member{
		{Name: "in", TypeName: "IN", Offset: 0},
		{Name: "z", TypeName: "$i32", Offset: 4},
	})
	if err != nil {
		t.Fatalf("register OUT: %v", err)
	}
	if _, err := rt.RegisterBuffer("LATE", 4); err != nil {
		t.Fatal(err)
	}

	o := mustNew(t, out, map[string]any{"z": 7})
	v := mustView(t, o, "in")
	if err := v.Set("a", "\xff\xff\xff\xff"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Set: expected ErrOutOfBounds, got %v", err)
	}
	if _, err := v.Get("a"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Get: expected ErrOutOfBounds, got %v", err)
	}
	if got := mustGet(t, o, "z"); got != int64(7) {
		t.Errorf("neighbour z = %v, want 7", got)
	}

	// a failed resolution is not cached
	if err := rt.Unregister("LATE"); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.RegisterBuffer("LATE", 2); err != nil {
		t.Fatal(err)
	}
	if err := v.Set("a", "xy"); err != nil {
		t.Fatalf("Set after fixing LATE: %v", err)
	}
	if got := mustGet(t, o, "z"); got != int64(7) {
		t.Errorf("neighbour z = %v, want 7", got)
	}
}

func TestRegistry_RegisterTypeStatic(t *testing.T) {
	rt := newTestRuntime(t)

	d := RecordDescriptor("STATIC", 4, []Member{{Name: "v", TypeName: "$u32"}})
	typ, err := rt.RegisterType(d)
	if err != nil {
		t.Fatalf("RegisterType: %v", err)
	}
	if d.Dynamic() || rt.Stats().Descriptors != 0 {
		t.Error("static descriptors are not reference counted")
	}
	if _, err := rt.RegisterType(d); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("re-registering a descriptor: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := rt.RegisterType(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil descriptor: expected ErrInvalidArgument, got %v", err)
	}

	o := mustNew(t, typ, map[string]any{"v": 7})
	if got := mustGet(t, o, "v"); got != uint64(7) {
		t.Errorf("v = %v, want 7", got)
	}
	o.Release()
	if d.Freed() {
		t.Error("static descriptor must never be freed")
	}
}

func TestRegistry_DescriptorLifetime(t *testing.T) {
	rt := newTestRuntime(t)

	typ, err := rt.RegisterBuffer("TMP", 4)
	if err != nil {
		t.Fatalf("RegisterBuffer: %v", err)
	}
	d := typ.Descriptor()
	o := mustNew(t, typ, nil)

	if err := rt.Unregister("TMP"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if d.Freed() {
		t.Fatal("descriptor freed while an object still uses it")
	}
	if _, err := rt.Lookup("TMP"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType after Unregister, got %v", err)
	}
	if err := o.SetValue("abcd"); err != nil {
		t.Errorf("object must stay usable: %v", err)
	}

	o.Release()
	o.Release()
	if !d.Freed() {
		t.Fatal("descriptor not freed after last holder released it")
	}
	if s := rt.Stats(); s.Descriptors != 1 || s.DescriptorsFreed != 1 {
		t.Errorf("stats = %+v, want one descriptor freed once", s)
	}

	if _, err := rt.RegisterBuffer("TMP", 8); err != nil {
		t.Errorf("name must be reusable after Unregister: %v", err)
	}
}

func TestRegistry_BufferCache(t *testing.T) {
	rt := newTestRuntime(t)

	b1, err := rt.CreateBuffer(16)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	b2, err := rt.CreateBuffer(16)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if b1.Type() == nil || b1.Type() != b2.Type() {
		t.Error("buffers of one size must share a type")
	}
	if b1.Descriptor().Name() != "$buf16" || b1.Len() != 16 {
		t.Errorf("buffer type = %s", b1.Descriptor())
	}

	if err := b1.SetValue("abc"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	v, err := b1.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	want := append([]byte("abc"), make([]byte, 13)...)
	if string(v.([]byte)) != string(want) {
		t.Errorf("buffer = %q", v)
	}
	if got, _ := b2.Value(); string(got.([]byte)) != string(make([]byte, 16)) {
		t.Errorf("new buffer not zeroed: %q", got)
	}

	if _, err := rt.RegisterRecord("$buf4", 4, nil); err != nil {
		t.Fatalf("RegisterRecord: %v", err)
	}
	if _, err := rt.CreateBuffer(4); !errors.Is(err, ErrDuplicateType) {
		t.Errorf("expected ErrDuplicateType for a clashing name, got %v", err)
	}
}

func TestRuntime_Close(t *testing.T) {
	rt := New(DefaultOptions())

	typ, err := rt.RegisterBuffer("B", 4)
	if err != nil {
		t.Fatalf("RegisterBuffer: %v", err)
	}
	if _, err := rt.CreateReference("held"); err != nil {
		t.Fatalf("CreateReference: %v", err)
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !typ.Descriptor().Freed() {
		t.Error("unused dynamic descriptor must be freed on Close")
	}
	if rt.Stats().References != 0 {
		t.Error("owned capture table must be emptied on Close")
	}
	if _, err := rt.RegisterBuffer("C", 4); !errors.Is(err, ErrReleased) {
		t.Errorf("expected ErrReleased after Close, got %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
