package saramin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL = "https://www.saramin.co.kr"
	searchPath     = "/zf_user/search/recruit"
)

type SearchParameters struct {
	Keyword string
	Page    int
}

func (s SearchParameters) Validate() error {
	if strings.TrimSpace(s.Keyword) == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	if s.Page < 1 {
		return fmt.Errorf("page must be positive")
	}
	return nil
}

func (s SearchParameters) ToUrlParams() url.Values {
	params := url.Values{}
	params.Add("searchType", "search")
	params.Add("searchword", s.Keyword)
	params.Add("recruitPage", strconv.Itoa(s.Page))
	return params
}

// SearchURL builds the search results URL for a keyword and a 1-based page.
func SearchURL(baseURL string, params SearchParameters) string {
	return strings.TrimRight(baseURL, "/") + searchPath + "?" + params.ToUrlParams().Encode()
}

// AbsoluteURL resolves a link found on a page against the site root.
func AbsoluteURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
