package cwrap

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

// guestMemory instantiates memoryWASM and returns its exported memory.
func guestMemory(t *testing.T) api.Memory {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	return mod.ExportedMemory("memory")
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := New(Options{StrictBalance: true})
	t.Cleanup(func() {
		if d := rt.Depth(); d != 0 {
			t.Errorf("depth %d after test, want 0", d)
		}
		rt.Close()
	})
	return rt
}

func registerPoint(t *testing.T, rt *Runtime) *Type {
	t.Helper()
	typ, err := rt.RegisterRecord("POINT", 8, []Member{
		{Name: "x", TypeName: "$i32", Offset: 0},
		{Name: "y", TypeName: "$i32", Offset: 4},
	})
	if err != nil {
		t.Fatalf("register POINT: %v", err)
	}
	return typ
}

func registerRect(t *testing.T, rt *Runtime) *Type {
	t.Helper()
	registerPoint(t, rt)
	typ, err := rt.RegisterRecord("RECT", 16, []Member{
		{Name: "tl", TypeName: "POINT", Offset: 0},
		{Name: "br", TypeName: "POINT", Offset: 8},
	})
	if err != nil {
		t.Fatalf("register RECT: %v", err)
	}
	return typ
}

func mustNew(t *testing.T, typ *Type, init any) *Object {
	t.Helper()
	o, err := typ.New(init)
	if err != nil {
		t.Fatalf("New(%v): %v", init, err)
	}
	return o
}

func mustGet(t *testing.T, o *Object, key any) any {
	t.Helper()
	v, err := o.Get(key)
	if err != nil {
		t.Fatalf("Get(%v): %v", key, err)
	}
	return v
}

func mustView(t *testing.T, o *Object, key any) *Object {
	t.Helper()
	v, ok := mustGet(t, o, key).(*Object)
	if !ok {
		t.Fatalf("Get(%v): expected *Object", key)
	}
	return v
}
