package csharp

import (
	"errors"
	"strings"
	"testing"

	"bindgen/internal/backend"
	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/output"
)

func TestNonReprCTypesAreIgnored(t *testing.T) {
	foo := reprC(t, "Foo", "bar: i32")
	foo.Attrs.ReprC = false
	meta := &decl.Decl{Kind: decl.KindEnum, Name: "Meta", Variants: []decl.Variant{{Name: "Foo"}, {Name: "Bar"}, {Name: "Baz"}}}

	out := compile(t, backend.Config{}, foo, meta)
	if got := out["Types.cs"]; got != "" {
		t.Fatalf("expected empty Types.cs, got:\n%s", got)
	}
}

func TestStructs(t *testing.T) {
	out := compile(t, backend.Config{}, reprC(t, "Record",
		"id: u64",
		"enabled: bool",
		"name: *const c_char",
		"random_numbers: [i32; 10]",
		"widget: Widget",
		"gadgets: [Gadget; 100]",
	))

	assertMultiline(t, out["Types.cs"], typesHeader+`    public struct Record {
        public ulong Id;
        [MarshalAs(UnmanagedType.U1)]
        public bool Enabled;
        [MarshalAs(UnmanagedType.LPStr)]
        public String Name;
        [MarshalAs(UnmanagedType.ByValArray, SizeConst = 10)]
        public int[] RandomNumbers;
        public Widget Widget;
        [MarshalAs(UnmanagedType.ByValArray, SizeConst = 100)]
        public Gadget[] Gadgets;
    }

}
`)
}

func TestStructsWithDynamicArrayField(t *testing.T) {
	out := compile(t, backend.Config{},
		reprC(t, "Entry",
			"key_ptr: *const u8",
			"key_len: usize",
			"records_ptr: *const Record",
			"records_len: usize",
		),
		exported(t, "fun", "entry: Entry"),
	)

	assertMultiline(t, out["Types.cs"], typesHeader+`    public struct EntryNative {
        public IntPtr KeyPtr;
        public ulong KeyLen;
        public IntPtr RecordsPtr;
        public ulong RecordsLen;
    }

}
`)
	assertMultiline(t, out["Backend.cs"], implHeader+`        public void Fun(EntryNative entry) {
            FunNative(entry);
        }

        [DllImport(DLL_NAME, EntryPoint = "fun")]
        internal static extern void FunNative(EntryNative entry);

`+implFooter)
}

func TestTypeAliases(t *testing.T) {
	out := compile(t, backend.Config{},
		alias(t, "Id", "u64"),
		alias(t, "UserId", "Id"),
		reprC(t, "Message",
			"id: Id",
			"sender_id: UserId",
			"receiver_ids: [Id; 10]",
		),
		exported(t, "fun",
			"id: Id",
			"user_data: *mut c_void",
			`cb: extern "C" fn(*mut c_void, *const FfiResult, Id)`,
		),
	)

	assertMultiline(t, out["Types.cs"], typesHeader+`    public struct Message {
        public ulong Id;
        public ulong SenderId;
        [MarshalAs(UnmanagedType.ByValArray, SizeConst = 10)]
        public ulong[] ReceiverIds;
    }

}
`)
	assertMultiline(t, out["Backend.cs"], implHeader+`        public Task<ulong> Fun(ulong id) {
            var (task, userData) = Utils.PrepareTask<ulong>();
            FunNative(id, userData, OnFfiResultULongCb);
            return task;
        }

        [DllImport(DLL_NAME, EntryPoint = "fun")]
        internal static extern void FunNative(ulong id, IntPtr userData, FfiResultULongCb cb);

        #region Callbacks
        internal delegate void FfiResultULongCb(IntPtr arg0, ref FfiResult arg1, ulong arg2);

        #if __IOS__
        [MonoPInvokeCallback(typeof(FfiResultULongCb))]
        #endif
        private static void OnFfiResultULongCb(IntPtr arg0, ref FfiResult arg1, ulong arg2) {
            Utils.CompleteTask(arg0, ref arg1, arg2);
        }

        #endregion

`+implFooter)
}

func TestEnums(t *testing.T) {
	mode := &decl.Decl{Kind: decl.KindEnum, Name: "Mode", Attrs: decl.Attrs{ReprC: true},
		Variants: []decl.Variant{{Name: "ReadOnly"}, {Name: "WriteOnly"}, {Name: "ReadAndWrite"}}}
	binary := &decl.Decl{Kind: decl.KindEnum, Name: "Binary", Attrs: decl.Attrs{ReprC: true},
		Variants: []decl.Variant{{Name: "Zero", Value: "0"}, {Name: "One", Value: "0x1"}}}

	out := compile(t, backend.Config{}, mode, binary)
	assertMultiline(t, out["Types.cs"], typesHeader+`    public enum Mode {
        ReadOnly,
        WriteOnly,
        ReadAndWrite,
    }

    public enum Binary {
        Zero = 0,
        One = 1,
    }

}
`)
}

func TestEnumDiscriminantOutOfRange(t *testing.T) {
	big := &decl.Decl{Kind: decl.KindEnum, Name: "Big", Attrs: decl.Attrs{ReprC: true},
		Variants: []decl.Variant{{Name: "Huge", Value: "0x1_0000_0000"}}}
	err := compileErr(t, backend.Config{}, big)
	if !errors.Is(err, diag.ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
}

func TestOpaqueTypes(t *testing.T) {
	cfg := backend.Config{}
	cfg.AddOpaque("Handle")
	out := compile(t, cfg, exported(t, "fun0", "handle: *const Handle"))

	assertMultiline(t, out["Types.cs"], typesHeader+`    #pragma warning disable CS0169
    public struct Handle {
        private IntPtr _value;
    }

    #pragma warning restore CS0169
}
`)
	assertMultiline(t, out["Backend.cs"], implHeader+`        public void Fun0(Handle handle) {
            Fun0Native(handle);
        }

        [DllImport(DLL_NAME, EntryPoint = "fun0")]
        internal static extern void Fun0Native(Handle handle);

`+implFooter)
}

func TestStructFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  error
	}{
		{"nested array", "grid: [[u8; 2]; 2]", diag.ErrUnsupportedType},
		{"bare c_void", "raw: c_void", diag.ErrUnsupportedType},
		{"unit", "nothing: ()", diag.ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, backend.Config{}, reprC(t, "Bad", tt.field))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var de *diag.Error
			if !errors.As(err, &de) || de.Item == "" {
				t.Errorf("error not tagged with the field: %v", err)
			}
		})
	}
}

func TestRejectedStructStaysUndeclared(t *testing.T) {
	cfg := backend.Config{Strict: true}
	b, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := output.NewSet(b.Documents())
	if err := backend.Dispatch(b, reprC(t, "Bad", "x: Missing"), out); !errors.Is(err, diag.ErrUnresolvedType) {
		t.Fatalf("struct: expected unresolved type, got %v", err)
	}
	err = backend.Dispatch(b, exported(t, "use_bad", "b: Bad"), out)
	if !errors.Is(err, diag.ErrUnresolvedType) {
		t.Fatalf("function using a rejected struct must not resolve, got %v", err)
	}
	if strings.Contains(out.Doc(output.Types).Body(), "Bad") {
		t.Errorf("rejected struct leaked into the output")
	}
}

func TestStrictModeRejectsUnknownTypes(t *testing.T) {
	err := compileErr(t, backend.Config{Strict: true}, reprC(t, "Record", "widget: Widget"))
	if !errors.Is(err, diag.ErrUnresolvedType) {
		t.Fatalf("expected unresolved type, got %v", err)
	}

	cfg := backend.Config{Strict: true, Extern: []string{"Widget"}}
	if err := compileErr(t, cfg, reprC(t, "Record", "widget: Widget", "next: *const Record")); err != nil {
		t.Fatalf("extern and self-referential types must resolve: %v", err)
	}
}
