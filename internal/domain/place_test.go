package domain_test

import (
	"encoding/json"
	"testing"

	"place_extractor/internal/domain"
)

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(domain.Failed("Extraction failed: x"))
	if err != nil || string(b) != `{"error":"Extraction failed: x"}` {
		t.Fatalf("error record: %s %v", b, err)
	}

	rating := 4.2
	b, err = json.Marshal(domain.Succeeded(domain.PlaceRecord{Rating: &rating, TotalReviewCount: 3}))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":null,"address":null,"rating":4.2,"total_review_count":3,"phone":null,` +
		`"website":null,"first_review_date":null,"negative_reviews":[]}`
	if string(b) != want {
		t.Fatalf("record:\n got %s\nwant %s", b, want)
	}

	var back domain.Result
	if err := json.Unmarshal(b, &back); err != nil || back.Failed() || *back.Place.Rating != 4.2 {
		t.Fatalf("decode record: %+v %v", back, err)
	}
	if err := json.Unmarshal([]byte(`{"error":"boom"}`), &back); err != nil || !back.Failed() || back.Error != "boom" {
		t.Fatalf("decode error record: %+v %v", back, err)
	}
}

func TestLocatorJSON(t *testing.T) {
	var ls domain.SelectorCandidateList
	err := json.Unmarshal([]byte(`["h1", {"by":"xpath","value":"//h1"}, {"value":"h2"}, {"by":"text","value":"div","contains":"Lowest"}]`), &ls)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.SelectorCandidateList{
		domain.CSS("h1"), domain.XPath("//h1"), domain.CSS("h2"), domain.CSSWithText("div", "Lowest"),
	}
	for i := range want {
		if ls[i] != want[i] {
			t.Fatalf("locator %d: got %+v want %+v", i, ls[i], want[i])
		}
	}
}
