package transfer

// Wire payloads of the Graph API endpoints used for publishing, token checks,
// page connect and analytics.

type GraphErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}

type GraphIDResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type GraphSuccessResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id"`
	VideoID string `json:"video_id"`
	ID      string `json:"id"`
}

type UploadSessionResponse struct {
	VideoID   string `json:"video_id"`
	UploadURL string `json:"upload_url"`
}

type GraphMeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FacebookPageData struct {
	AccessToken string   `json:"access_token"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	ID          string   `json:"id"`
	Tasks       []string `json:"tasks"`
}

type FacebookPagesResponse struct {
	Data []FacebookPageData `json:"data"`
}

type InsightValue struct {
	Value   float64 `json:"value"`
	EndTime string  `json:"end_time"`
}

type Insight struct {
	Name   string         `json:"name"`
	Period string         `json:"period"`
	Values []InsightValue `json:"values"`
}

type SummaryCount struct {
	Summary struct {
		TotalCount int `json:"total_count"`
	} `json:"summary"`
}

type PostInsightsResponse struct {
	ID       string `json:"id"`
	Insights struct {
		Data []Insight `json:"data"`
	} `json:"insights"`
	Shares struct {
		Count int `json:"count"`
	} `json:"shares"`
	Comments  SummaryCount `json:"comments"`
	Reactions SummaryCount `json:"reactions"`
}

type PageInfoResponse struct {
	ID       string `json:"id"`
	FanCount *int   `json:"fan_count"`
	Insights struct {
		Data []Insight `json:"data"`
	} `json:"insights"`
}

// Metric returns the newest value of the named insight, or 0.
func (r PostInsightsResponse) Metric(name string) int {
	return latestInsight(r.Insights.Data, name)
}

func (r PageInfoResponse) Metric(name string) int {
	return latestInsight(r.Insights.Data, name)
}

func latestInsight(data []Insight, name string) int {
	for _, in := range data {
		if in.Name == name && len(in.Values) > 0 {
			return int(in.Values[len(in.Values)-1].Value)
		}
	}
	return 0
}
