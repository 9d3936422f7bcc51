// Package syntax parses the type and value expressions that appear in
// declaration files: `*const c_char`, `[u8; NONCE_LEN]`,
// `extern "C" fn(user_data: *mut c_void, result: *const FfiResult)`,
// `&Record { id: 1, secret_code: "xyz" }`, `0 as *const c_char`.
//
// The scanner works on a single expression string. Offsets in errors are
// relative to that string; callers shift them into file coordinates.
package syntax
