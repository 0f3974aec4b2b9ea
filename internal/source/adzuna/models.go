package adzuna

import (
	"bytes"
	"encoding/json"
	"time"
)

type APIResponse struct {
	Results []Job `json:"results"`
	Count   int   `json:"count"`
}

type Job struct {
	ID          jobID     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     *Company  `json:"company"`
	Location    *Location `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	RedirectURL string    `json:"redirect_url"`
	SalaryMin   *float64  `json:"salary_min"`
	SalaryMax   *float64  `json:"salary_max"`
	Created     time.Time `json:"created"`
}

type Company struct {
	DisplayName string `json:"display_name"`
}

type Location struct {
	DisplayName string   `json:"display_name"`
	Area        []string `json:"area"`
}

// jobID accepts both the quoted and the numeric id forms Adzuna returns.
type jobID string

func (id *jobID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = jobID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = jobID(n.String())
	return nil
}
