package attrs

import (
	"encoding/json"
	"testing"
)

func TestAppendAndItems(t *testing.T) {
	a := New().Append("FIRST", "1").Append("SECOND", "2").Append("THIRD", "3")
	items := a.Items()
	if len(items) != 3 || items[2] != (Pair{"THIRD", "3"}) {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestOfMacroEquivalent(t *testing.T) {
	a := Of("A", "1", "B", "2", "C", "3", "B", "4")
	b := New().Append("A", "1").Append("B", "2").Append("C", "3").Append("B", "4")
	if !a.Equal(b) {
		t.Errorf("Of mismatch: %+v vs %+v", a.Items(), b.Items())
	}
}

func TestDelete(t *testing.T) {
	a := New().Append("FIRST", "1").Append("SECOND", "2").Append("THIRD", "3").Delete("SECOND")
	want := New().Append("FIRST", "1").Append("THIRD", "3")
	if !a.Equal(want) {
		t.Errorf("Delete mismatch: %+v vs %+v", a.Items(), want.Items())
	}
}

func TestSetCollapsesDuplicates(t *testing.T) {
	a := New().
		Set("FIRST", "(hehe, first!)").
		Set("OVERWRITE_ME", "value you'll never see").
		Set("SOMETHING_ELSE", "take up some more space").
		Set("OVERWRITE_ME", "value you WILL see")
	want := New().
		Append("FIRST", "(hehe, first!)").
		Append("SOMETHING_ELSE", "take up some more space").
		Append("OVERWRITE_ME", "value you WILL see")
	if !a.Equal(want) {
		t.Errorf("Set mismatch: %+v vs %+v", a.Items(), want.Items())
	}
}

func TestImmutability(t *testing.T) {
	base := New().Append("A", "1")
	withB := base.Append("B", "2")
	if base.Len() != 1 {
		t.Errorf("Append mutated receiver: base.Len() = %d, want 1", base.Len())
	}
	if withB.Len() != 2 {
		t.Errorf("withB.Len() = %d, want 2", withB.Len())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	a := New().Append("N", "V").Append("N", "W")
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `[["N","V"],["N","W"]]` {
		t.Errorf("Marshal = %s", data)
	}
	var out Attrs
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !out.Equal(a) {
		t.Errorf("round trip mismatch: %+v vs %+v", out.Items(), a.Items())
	}
}

func TestGet(t *testing.T) {
	a := New().Append("N", "1").Append("N", "2")
	v, ok := a.Get("N")
	if !ok || v != "2" {
		t.Errorf("Get = %q, %v; want 2, true", v, ok)
	}
	if _, ok := a.Get("MISSING"); ok {
		t.Error("Get should report missing name as not found")
	}
}
