package output

import "testing"

func TestSealEmptyAndNonEmpty(t *testing.T) {
	s := NewSet(map[Kind]string{Types: "Types.cs", Constants: "Constants.cs", Impl: "Backend.cs", Interface: "IBackend.cs"})
	s.Doc(Types).AddImport("System")
	s.Doc(Types).AddImport("System")
	s.Doc(Types).WriteString("body\n")

	wrap := func(d *Document) string {
		if len(d.Imports()) != 1 {
			t.Errorf("imports not deduplicated: %v", d.Imports())
		}
		return "<" + d.Body() + ">"
	}
	for _, k := range Kinds() {
		s.Doc(k).Seal(wrap)
	}

	res := s.Result()
	if len(res) != 4 {
		t.Fatalf("expected 4 documents, got %d", len(res))
	}
	if res["Types.cs"] != "<body\n>" {
		t.Errorf("Types.cs = %q", res["Types.cs"])
	}
	if res["Constants.cs"] != "" {
		t.Errorf("empty document must seal to empty text, got %q", res["Constants.cs"])
	}
}

func TestSealedDocumentRejectsWrites(t *testing.T) {
	d := &Document{Name: "x"}
	d.Seal(func(*Document) string { return "" })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on write after seal")
		}
	}()
	d.WriteString("late")
}
