package extract

import (
	"encoding/json"
	"fmt"
	"os"

	"place_extractor/internal/domain"
)

// Selectors is the swappable registry of every locator the pipeline consults.
// Each list is tried in order.
type Selectors struct {
	Consent      domain.SelectorCandidateList `json:"consent"`
	Name         domain.SelectorCandidateList `json:"name"`
	Rating       domain.SelectorCandidateList `json:"rating"`
	RatingBlock  domain.SelectorCandidateList `json:"rating_block"`
	ReviewCount  domain.SelectorCandidateList `json:"review_count"`
	Address      domain.SelectorCandidateList `json:"address"`
	Phone        domain.SelectorCandidateList `json:"phone"`
	Website      domain.SelectorCandidateList `json:"website"`
	ReviewsTab   domain.SelectorCandidateList `json:"reviews_tab"`
	SortButton   domain.SelectorCandidateList `json:"sort_button"`
	LowestOption domain.SelectorCandidateList `json:"lowest_option"`
	Scrollable   domain.SelectorCandidateList `json:"scrollable"`
	// ReviewNodes are compared against each other; the one with most matches wins.
	ReviewNodes domain.SelectorCandidateList `json:"review_nodes"`
	DateLabels  domain.SelectorCandidateList `json:"date_labels"`

	// Relative to a review node.
	ExpandButton []string `json:"expand_button"`
	ReviewText   []string `json:"review_text"`
	ReviewDate   []string `json:"review_date"`
	RatingIcon   []string `json:"rating_icon"`
}

func DefaultSelectors() Selectors {
	css := domain.CSS
	xp := domain.XPath
	return Selectors{
		Consent: domain.SelectorCandidateList{
			css(`button[aria-label="Accept all"]`),
			css(`button[aria-label="I agree"]`),
			css(`button[aria-label="Alles akzeptieren"]`),
			css(`button.VfPpkd-LgbsSe-OWXEXe-k8QpJ`),
		},
		Name: domain.SelectorCandidateList{
			css(`h1.DUwDvf`),
			css(`h1.fontHeadlineLarge`),
			css(`h1`),
		},
		Rating: domain.SelectorCandidateList{
			css(`div.F7nice span[aria-hidden="true"]`),
			css(`span.ceNzKf[aria-hidden="true"]`),
		},
		RatingBlock: domain.SelectorCandidateList{
			css(`div.F7nice`),
		},
		ReviewCount: domain.SelectorCandidateList{
			css(`div.F7nice button[aria-label*="reviews"]`),
			css(`button[aria-label*="reviews"]`),
			css(`button[aria-label*="review"]`),
			css(`span[aria-label*="reviews"]`),
		},
		Address: domain.SelectorCandidateList{
			css(`button[data-item-id="address"]`),
		},
		Phone: domain.SelectorCandidateList{
			css(`button[data-item-id*="phone"]`),
			css(`button[aria-label*="Phone"]`),
		},
		Website: domain.SelectorCandidateList{
			css(`a[data-item-id="authority"]`),
			css(`a[aria-label^="Website"]`),
		},
		ReviewsTab: domain.SelectorCandidateList{
			xp(`//button[contains(@aria-label, "Reviews")]`),
			xp(`//button[contains(@aria-label, "reviews")]`),
			css(`button[aria-label*="review"]`),
		},
		SortButton: domain.SelectorCandidateList{
			xp(`//button[contains(@aria-label, "Sort reviews")]`),
			xp(`//button[@data-value="Sort"]`),
			css(`button[aria-label*="Sort"]`),
		},
		LowestOption: domain.SelectorCandidateList{
			xp(`//div[@role="menuitemradio" and contains(., "Lowest")]`),
			xp(`//div[@role="menuitemradio" and contains(., "lowest")]`),
			domain.CSSWithText(`div[role="menuitemradio"]`, "Lowest"),
		},
		Scrollable: domain.SelectorCandidateList{
			css(`div.m6QErb.DxyBCb.kA9KIf.dS8AEf`),
			css(`div.m6QErb`),
			css(`div[role="main"]`),
		},
		ReviewNodes: domain.SelectorCandidateList{
			css(`div.jftiEf`),
			css(`div.WMbnJf`),
			css(`div[data-review-id]`),
		},
		DateLabels: domain.SelectorCandidateList{
			css(`span.rsqaWe`),
			css(`span.DU9Pgb`),
		},
		ExpandButton: []string{`button.w8nwRe`, `button[aria-label="See more"]`},
		ReviewText:   []string{`span.wiI7pd`, `span.MyEned`, `div.MyEned`},
		ReviewDate:   []string{`span.rsqaWe`, `span.DU9Pgb`},
		RatingIcon:   []string{`span[role="img"][aria-label]`, `span.kvMYJc[aria-label]`},
	}
}

// LoadSelectors overlays a JSON file on the defaults. Keys left out of the
// file keep their default lists; an empty path returns the defaults.
func LoadSelectors(path string) (Selectors, error) {
	s := DefaultSelectors()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read selectors: %w", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return DefaultSelectors(), fmt.Errorf("decode selectors %s: %w", path, err)
	}
	return s, nil
}
