// Package cwrap provides typed views over raw C-layout memory.
//
// Types are described once, by name, as basic scalars, records with named
// members at fixed offsets, fixed-length arrays, or opaque byte buffers.
// Objects of those types either own their bytes (boxed) or look into memory
// owned by someone else: another object, the host process, a byte slice,
// or a wasm guest's linear memory.
//
// # Architecture Overview
//
//	cwrap/               Runtime, descriptors, objects, marshalling and anchors
//	├── memory/          Foreign memory backends: host process and wazero
//	├── resource/        Handle table behind the $ref capture type
//	├── errors/          Structured error types for debugging
//	└── internal/
//	    ├── abi/         Overflow-checked arithmetic and host value coercion
//	    ├── anchor/      Offset to host value side table
//	    └── layout/      Canonical ABI layout of WIT types
//
// # Quick Start
//
// Describe a C struct and use it:
//
//	rt := cwrap.NewWithDefaults()
//	defer rt.Close()
//
//	point, err := rt.RegisterRecord("POINT", 8, []cwrap.Member{
//	    {Name: "x", TypeName: "$i32", Offset: 0},
//	    {Name: "y", TypeName: "$i32", Offset: 4},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := point.New(map[string]any{"x": 10, "y": 20})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	x, _ := p.Get("x") // int64(10)
//
// Go structs and WIT types can be registered directly, with their layout
// taken from reflect or from the Canonical ABI:
//
//	rt.RegisterStruct("POINT", reflect.TypeOf(C.POINT{}))
//	rt.RegisterWIT("point", witRecord)
//
// # Builtin Types
//
// Every runtime starts with the scalars $i8 $u8 $i16 $u16 $i32 $u32 $i64
// $u64 $int $uint $long $ulong $flt $dbl, the pointer type $ptr and the
// capture type $ref. Integer writes wrap and float writes truncate the way
// a C cast does.
//
// $ptr stores the address of a string, byte slice, object or Address and
// anchors the value to the field's owner, so it stays alive and reads back
// as itself. $ref stores a handle into the runtime's resource.Table; the
// captured value lives until the Reference is released.
//
// # Reads and Writes
//
// Object.Get is permissive: unknown record members and array indexes
// outside 1..Len() read as nil. Object.Set is strict and reports
// ErrUnknownMember or ErrOutOfBounds. Object.Member is the strict read.
//
// Records and arrays read through Get are views that share memory with the
// object they came from and keep it alive.
//
// # Lifetime
//
// Objects are released by the garbage collector or earlier by Release.
// Memory owned by a boxed object is freed once the object and every view
// into it are released. Types registered at runtime are reference counted
// the same way and outlive Unregister while objects still use them.
//
// # Thread Safety
//
// A Runtime and its objects are meant for a single goroutine. The type
// registry is locked, but objects and anchors are not.
package cwrap
