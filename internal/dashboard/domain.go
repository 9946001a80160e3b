package dashboard

import "time"

// Overview summarises the client base for the landing dashboard.
type Overview struct {
	TotalClients    int64   `json:"totalClients"`
	PendingClients  int64   `json:"pendingClients"`
	ActiveClients   int64   `json:"activeClients"`
	SuspendedCount  int64   `json:"suspendedClients"`
	RejectedCount   int64   `json:"rejectedClients"`
	InvestmentTotal float64 `json:"investmentTotal"`
}

// FinancialReport aggregates invested funds.
type FinancialReport struct {
	InvestmentTotal  float64   `json:"investmentTotal"`
	ActiveInvestors  int64     `json:"activeInvestors"`
	AveragePerClient float64   `json:"averagePerClient"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// ReferralEntry is one referrer's tally.
type ReferralEntry struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

// ReferralAnalytics lists referrers by volume.
type ReferralAnalytics struct {
	TotalReferred int64           `json:"totalReferred"`
	Referrers     []ReferralEntry `json:"referrers"`
}

// SystemHealth reports dependency status.
type SystemHealth struct {
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	JobQueue    string `json:"jobQueue"`
	PendingJobs int    `json:"pendingJobs"`
}
