package naming

import (
	"testing"

	"bindgen/internal/types"
)

func TestCaseConversion(t *testing.T) {
	tests := []struct {
		in, upper, lower string
	}{
		{"random_numbers", "RandomNumbers", "randomNumbers"},
		{"fun0", "Fun0", "fun0"},
		{"o_app", "OApp", "oApp"},
		{"user_data", "UserData", "userData"},
		{"NONCE_LEN", "NonceLen", "nonceLen"},
		{"FfiResult", "FfiResult", "ffiResult"},
		{"id", "Id", "id"},
		{"_private", "Private", "private"},
		{"32", "32", "32"},
	}
	for _, tt := range tests {
		if got := ToUpperCamel(tt.in); got != tt.upper {
			t.Errorf("ToUpperCamel(%q) = %q, want %q", tt.in, got, tt.upper)
		}
		if got := ToLowerCamel(tt.in); got != tt.lower {
			t.Errorf("ToLowerCamel(%q) = %q, want %q", tt.in, got, tt.lower)
		}
	}
}

func param(name string, t *types.Type) types.Param {
	return types.Param{Name: name, Type: t}
}

func TestArrayPairs(t *testing.T) {
	u8p := types.MakePointer(types.MakePrim(types.U8), false)
	usize := types.MakePrim(types.Usize)

	tests := []struct {
		name   string
		params []types.Param
		want   []string
	}{
		{"single", []types.Param{param("data_ptr", u8p), param("data_len", usize)}, []string{"data"}},
		{"surrounded", []types.Param{param("id", types.MakePrim(types.U64)), param("data_ptr", u8p), param("data_len", usize), param("flag", types.MakePrim(types.Bool))}, []string{"data"}},
		{"two", []types.Param{param("a_ptr", u8p), param("a_len", usize), param("b_ptr", u8p), param("b_len", usize)}, []string{"a", "b"}},
		{"convention not followed", []types.Param{param("result", u8p), param("len", usize)}, nil},
		{"not adjacent", []types.Param{param("data_ptr", u8p), param("x", usize), param("data_len", usize)}, nil},
		{"mismatched base", []types.Param{param("data_ptr", u8p), param("size_len", usize)}, nil},
		{"len not integer", []types.Param{param("data_ptr", u8p), param("data_len", types.MakePrim(types.F64))}, nil},
		{"ptr not pointer", []types.Param{param("data_ptr", usize), param("data_len", usize)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := ArrayPairs(tt.params)
			if len(pairs) != len(tt.want) {
				t.Fatalf("got %d pairs, want %d", len(pairs), len(tt.want))
			}
			for i, p := range pairs {
				if p.Base != tt.want[i] {
					t.Errorf("pair %d base = %q, want %q", i, p.Base, tt.want[i])
				}
			}
		})
	}
}

func TestCallbackName(t *testing.T) {
	tests := []struct {
		pieces []Piece
		want   string
	}{
		{nil, "NoneCb"},
		{[]Piece{{Elem: "FfiResult"}}, "FfiResultCb"},
		{[]Piece{{Elem: "FfiResult"}, {Elem: "ULong"}}, "FfiResultULongCb"},
		{[]Piece{{Elem: "FfiResult"}, {Kind: PieceArray, Elem: "Byte", Size: "32"}}, "FfiResultByteArray32Cb"},
		{[]Piece{{Elem: "FfiResult"}, {Kind: PieceArray, Elem: "Byte", Size: "NONCE_LEN"}}, "FfiResultByteArrayNonceLenCb"},
		{[]Piece{{Elem: "FfiResult"}, {Kind: PieceList, Elem: "Record"}}, "FfiResultRecordListCb"},
	}
	for _, tt := range tests {
		if got := CallbackName(tt.pieces); got != tt.want {
			t.Errorf("CallbackName(%+v) = %q, want %q", tt.pieces, got, tt.want)
		}
	}
	if got := TrampolineName("NoneCb"); got != "OnNoneCb" {
		t.Errorf("TrampolineName = %q", got)
	}
}

func TestDynamicStruct(t *testing.T) {
	fields := []types.Param{
		param("key_ptr", types.MakePointer(types.MakePrim(types.U8), false)),
		param("key_len", types.MakePrim(types.Usize)),
	}
	if !IsDynamicStruct(fields) {
		t.Fatal("expected dynamic struct")
	}
	if got := NativeName("Entry"); got != "EntryNative" {
		t.Errorf("NativeName = %q", got)
	}
}
