package csharp

import (
	"strings"
	"testing"

	"bindgen/internal/backend"
)

func TestFunctionsTakingOneCallback(t *testing.T) {
	out := compile(t, backend.Config{}, exported(t, "fun1",
		"num: i32",
		"name: *const c_char",
		"user_data: *mut c_void",
		`cb: extern "C" fn(user_data: *mut c_void, result: *const FfiResult)`,
	))
	assertMultiline(t, out["Backend.cs"], implHeader+`        public Task Fun1(int num, String name) {
            var (task, userData) = Utils.PrepareTask();
            Fun1Native(num, name, userData, OnFfiResultCb);
            return task;
        }

        [DllImport(DLL_NAME, EntryPoint = "fun1")]
        internal static extern void Fun1Native(int num, [MarshalAs(UnmanagedType.LPStr)] String name, IntPtr userData, FfiResultCb cb);

        #region Callbacks
        internal delegate void FfiResultCb(IntPtr userData, ref FfiResult result);

        #if __IOS__
        [MonoPInvokeCallback(typeof(FfiResultCb))]
        #endif
        private static void OnFfiResultCb(IntPtr userData, ref FfiResult result) {
            Utils.CompleteTask(userData, ref result);
        }

        #endregion

`+implFooter)
}

func TestFunctionsTakingMultipleCallbacks(t *testing.T) {
	out := compile(t, backend.Config{}, exported(t, "fun",
		"input: i32",
		"user_data: *mut c_void",
		`cb0: extern "C" fn(user_data: *mut c_void)`,
		`cb1: extern "C" fn(user_data: *mut c_void, result: *const FfiResult, output: i32)`,
	))
	assertMultiline(t, out["Backend.cs"], implHeader+`        [DllImport(DLL_NAME, EntryPoint = "fun")]
        internal static extern void FunNative(int input, IntPtr userData, NoneCb cb0, FfiResultIntCb cb1);

        #region Callbacks
        internal delegate void FfiResultIntCb(IntPtr userData, ref FfiResult result, int output);

        internal delegate void NoneCb(IntPtr userData);

        #endregion

`+implFooter)
	if out["IBackend.cs"] != "" {
		t.Errorf("multi-callback functions must not reach the interface:\n%s", out["IBackend.cs"])
	}
}

func TestFunctionsTakingCallbackTakingConstSizeArray(t *testing.T) {
	out := compile(t, backend.Config{},
		exported(t, "fun2",
			"user_data: *mut c_void",
			`cb: extern "C" fn(user_data: *mut c_void, result: *const FfiResult, key: [u8; 32])`,
		),
		exported(t, "fun3",
			"user_data: *mut c_void",
			`cb: extern "C" fn(user_data: *mut c_void, result: *const FfiResult, nonce: [u8; NONCE_LEN])`,
		),
	)
	assertMultiline(t, out["Backend.cs"], implHeader+`        public Task<byte[]> Fun2() {
            var (task, userData) = Utils.PrepareTask<byte[]>();
            Fun2Native(userData, OnFfiResultByteArray32Cb);
            return task;
        }

        [DllImport(DLL_NAME, EntryPoint = "fun2")]
        internal static extern void Fun2Native(IntPtr userData, FfiResultByteArray32Cb cb);

        public Task<byte[]> Fun3() {
            var (task, userData) = Utils.PrepareTask<byte[]>();
            Fun3Native(userData, OnFfiResultByteArrayNonceLenCb);
            return task;
        }

        [DllImport(DLL_NAME, EntryPoint = "fun3")]
        internal static extern void Fun3Native(IntPtr userData, FfiResultByteArrayNonceLenCb cb);

        #region Callbacks
        internal delegate void FfiResultByteArray32Cb(IntPtr userData, ref FfiResult result, IntPtr keyPtr);

        #if __IOS__
        [MonoPInvokeCallback(typeof(FfiResultByteArray32Cb))]
        #endif
        private static void OnFfiResultByteArray32Cb(IntPtr userData, ref FfiResult result, IntPtr keyPtr) {
            Utils.CompleteTask(userData, ref result, Utils.CopyToByteArray(keyPtr, 32));
        }

        internal delegate void FfiResultByteArrayNonceLenCb(IntPtr userData, ref FfiResult result, IntPtr noncePtr);

        #if __IOS__
        [MonoPInvokeCallback(typeof(FfiResultByteArrayNonceLenCb))]
        #endif
        private static void OnFfiResultByteArrayNonceLenCb(IntPtr userData, ref FfiResult result, IntPtr noncePtr) {
            Utils.CompleteTask(userData, ref result, Utils.CopyToByteArray(noncePtr, Constants.NONCE_LEN));
        }

        #endregion

`+implFooter)
}

func TestFunctionsTakingCallbackTakingDynamicArray(t *testing.T) {
	out := compile(t, backend.Config{},
		exported(t, "fun0",
			"user_data: *mut c_void",
			`cb: extern "C" fn(user_data: *mut c_void, result: *const FfiResult, data_ptr: *const u8, data_len: usize)`,
		),
		exported(t, "fun1",
			"user_data: *mut c_void",
			`cb: extern "C" fn(user_data: *mut c_void, result: *const FfiResult, records_ptr: *const Record, records_len: usize)`,
		),
	)
	assertMultiline(t, out["Backend.cs"], implHeader+`        public Task<byte[]> Fun0() {
            var (task, userData) = Utils.PrepareTask<byte[]>();
            Fun0Native(userData, OnFfiResultByteListCb);
            return task;
        }

        [DllImport(DLL_NAME, EntryPoint = "fun0")]
        internal static extern void Fun0Native(IntPtr userData, FfiResultByteListCb cb);

        public Task<Record[]> Fun1() {
            var (task, userData) = Utils.PrepareTask<Record[]>();
            Fun1Native(userData, OnFfiResultRecordListCb);
            return task;
        }

        [DllImport(DLL_NAME, EntryPoint = "fun1")]
        internal static extern void Fun1Native(IntPtr userData, FfiResultRecordListCb cb);

        #region Callbacks
        internal delegate void FfiResultByteListCb(IntPtr userData, ref FfiResult result, IntPtr dataPtr, ulong dataLen);

        #if __IOS__
        [MonoPInvokeCallback(typeof(FfiResultByteListCb))]
        #endif
        private static void OnFfiResultByteListCb(IntPtr userData, ref FfiResult result, IntPtr dataPtr, ulong dataLen) {
            Utils.CompleteTask(userData, ref result, Utils.CopyToByteArray(dataPtr, dataLen));
        }

        internal delegate void FfiResultRecordListCb(IntPtr userData, ref FfiResult result, IntPtr recordsPtr, ulong recordsLen);

        #if __IOS__
        [MonoPInvokeCallback(typeof(FfiResultRecordListCb))]
        #endif
        private static void OnFfiResultRecordListCb(IntPtr userData, ref FfiResult result, IntPtr recordsPtr, ulong recordsLen) {
            Utils.CompleteTask(userData, ref result, Utils.CopyToObjectArray<Record>(recordsPtr, recordsLen));
        }

        #endregion

`+implFooter)
}

func TestCallbackWithSeveralPayloadValues(t *testing.T) {
	out := compile(t, backend.Config{}, exported(t, "stats",
		"user_data: *mut c_void",
		`cb: extern "C" fn(user_data: *mut c_void, result: *const FfiResult, count: u32, name: *const c_char)`,
	))
	impl := out["Backend.cs"]
	for _, want := range []string{
		"public Task<(uint, String)> Stats() {",
		"Utils.PrepareTask<(uint, String)>();",
		"internal delegate void FfiResultUIntStringCb(IntPtr userData, ref FfiResult result, uint count, [MarshalAs(UnmanagedType.LPStr)] String name);",
		"Utils.CompleteTask(userData, ref result, count, name);",
	} {
		if !strings.Contains(impl, want) {
			t.Errorf("missing %q in:\n%s", want, impl)
		}
	}
}

func TestDelegatesAreSharedAcrossFunctions(t *testing.T) {
	cb := `cb: extern "C" fn(user_data: *mut c_void, result: *const FfiResult)`
	out := compile(t, backend.Config{},
		exported(t, "multi", "user_data: *mut c_void", cb, `other: extern "C" fn(user_data: *mut c_void)`),
		exported(t, "single", "user_data: *mut c_void", cb),
	)
	impl := out["Backend.cs"]
	if n := strings.Count(impl, "internal delegate void FfiResultCb("); n != 1 {
		t.Errorf("delegate emitted %d times", n)
	}
	if !strings.Contains(impl, "private static void OnFfiResultCb(") {
		t.Errorf("trampoline missing although a single-callback function uses the delegate:\n%s", impl)
	}
	if strings.Contains(impl, "OnNoneCb") {
		t.Errorf("NoneCb is only used by a multi-callback function and needs no trampoline")
	}
}

func TestCustomUtilsClassAndNames(t *testing.T) {
	cfg := backend.Config{Namespace: "Safe", Class: "Api", Library: "safe_ffi", UtilsClass: "Helpers", ResultType: "Status"}
	out := compile(t, cfg, exported(t, "ping",
		"user_data: *mut c_void",
		`cb: extern "C" fn(user_data: *mut c_void, status: *const Status)`,
	))
	impl, ok := out["Api.cs"]
	if !ok {
		t.Fatalf("expected Api.cs, got %v", keys(out))
	}
	for _, want := range []string{
		"namespace Safe {",
		"public partial class Api : IApi {",
		`internal const String DLL_NAME = "safe_ffi";`,
		"Helpers.PrepareTask();",
		"internal delegate void StatusCb(IntPtr userData, ref Status status);",
		"Helpers.CompleteTask(userData, ref status);",
	} {
		if !strings.Contains(impl, want) {
			t.Errorf("missing %q in:\n%s", want, impl)
		}
	}
	if !strings.Contains(out["IApi.cs"], "public partial interface IApi {") {
		t.Errorf("interface not renamed:\n%s", out["IApi.cs"])
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
