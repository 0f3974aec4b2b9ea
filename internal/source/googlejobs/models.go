package googlejobs

type APIResponse struct {
	JobsResults []Job       `json:"jobs_results"`
	Pagination  *Pagination `json:"serpapi_pagination"`
	Error       string      `json:"error"`
}

type Pagination struct {
	NextPageToken string `json:"next_page_token"`
}

type Job struct {
	JobID              string        `json:"job_id"`
	Title              string        `json:"title"`
	CompanyName        string        `json:"company_name"`
	Location           string        `json:"location"`
	Description        string        `json:"description"`
	ShareLink          string        `json:"share_link"`
	DetectedExtensions *Extensions   `json:"detected_extensions"`
	ApplyOptions       []ApplyOption `json:"apply_options"`
}

type Extensions struct {
	PostedAt     string `json:"posted_at"`
	ScheduleType string `json:"schedule_type"`
	Salary       string `json:"salary"`
	WorkFromHome bool   `json:"work_from_home"`
}

type ApplyOption struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}
