package backend

// Wire shapes for the operations backend. Optional fields stay pointers or
// zero values; normalization into console-facing records happens in the
// feed package.

type QueryRequest struct {
	UserInput string `json:"user_input"`
}

type QueryResponse struct {
	Response string `json:"response"`
}

// TicketItem is one entry of the dashboard ticket arrays.
type TicketItem struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Assignee    string `json:"assignee"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	Created     string `json:"created,omitempty"`
	Description string `json:"description,omitempty"`
}

// HealthItem is one service-health advisory of the dashboard payload.
type HealthItem struct {
	TrackingID string `json:"trackingId,omitempty"`
	IssueName  string `json:"issueName,omitempty"`
	Service    string `json:"service,omitempty"`
	Status     string `json:"status,omitempty"`
	Level      string `json:"level,omitempty"`
	StartTime  string `json:"startTime,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// DashboardResponse is the aggregate read payload behind /api/dashboard.
type DashboardResponse struct {
	MyAndGroupTickets  []TicketItem `json:"myAndGroupTickets"`
	HighCritical       []TicketItem `json:"highCritical"`
	MyRFCTickets       []TicketItem `json:"myRfcTickets"`
	UpcomingRFCTickets []TicketItem `json:"upcomingRfcTickets"`
	ServiceHealth      []HealthItem `json:"serviceHealth"`
}

// NoticeItem is one entry of the free-text notice feeds.
type NoticeItem struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

type RecommendationResponse struct {
	Recommendation string `json:"recommendation"`
}

type ReportBucket struct {
	Count   int          `json:"count"`
	Tickets []TicketItem `json:"tickets"`
}

// DailyReport is an opaque server-side document; the console renders it
// without rederiving any of its counts.
type DailyReport struct {
	Date           string       `json:"date"`
	AssignedToday  ReportBucket `json:"assignedToday"`
	ResolvedToday  ReportBucket `json:"resolvedToday"`
	ChatbotActions int          `json:"chatbotActions"`
	UserName       string       `json:"userName"`
}
