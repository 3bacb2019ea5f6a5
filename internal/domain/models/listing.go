package models

// ScrapedListing is one job posting as it appears on a search results page.
// Every field is optional; an empty string means the source did not provide it.
type ScrapedListing struct {
	Company        string   `json:"company"`
	Title          string   `json:"title"`
	Link           string   `json:"link"`
	Location       string   `json:"location"`
	Experience     string   `json:"experience"`
	Education      string   `json:"education"`
	EmploymentType string   `json:"employmentType"`
	Deadline       string   `json:"deadline"`
	Salary         string   `json:"salary"`
	Sector         string   `json:"sector"`
	Skills         []string `json:"skills,omitempty"`

	// Filled only by detail enrichment.
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Enriched     bool     `json:"enriched"`
}
