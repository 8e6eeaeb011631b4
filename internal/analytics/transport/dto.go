// Package transport holds the response DTOs of the analytics and customer
// endpoints. The overview payload is also the persisted snapshot payload.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source tags where an overview payload came from.
type Source string

const (
	SourcePrecomputed Source = "precomputed"
	SourceComputed    Source = "computed"
)

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Count is one distribution bucket.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Rating is an average score always encoded with exactly one decimal place.
type Rating float64

func (r Rating) MarshalJSON() ([]byte, error) {
	return []byte(decimal.NewFromFloat(float64(r)).StringFixed(1)), nil
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Location struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Province    string    `json:"province"`
	District    string    `json:"district"`
	SubDistrict string    `json:"subDistrict"`
	PostalCode  string    `json:"postalCode"`
	// Coordinates is [longitude, latitude], null when unknown.
	Coordinates *[2]float64 `json:"coordinates"`
}

// JobRow is the denormalized job shape shared by every job listing.
type JobRow struct {
	ID              uuid.UUID  `json:"id"`
	JobNumber       string     `json:"jobNumber"`
	Status          string     `json:"status"`
	Type            string     `json:"type"`
	Priority        string     `json:"priority"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	AppointmentAt   *time.Time `json:"appointmentAt"`
	ClosedAt        *time.Time `json:"closedAt"`
	CustomerContact Contact    `json:"customerContact"`
	Location        *Location  `json:"location"`
	TechnicianNames string     `json:"technicianNames"`
	TechnicianCount int        `json:"technicianCount"`
}

type OverviewMetrics struct {
	TotalJobs   int `json:"totalJobs"`
	OpenJobs    int `json:"openJobs"`
	ClosedJobs  int `json:"closedJobs"`
	TodayJobs   int `json:"todayJobs"`
	TodayClosed int `json:"todayClosed"`
}

type Distributions struct {
	Status   []Count `json:"status"`
	Priority []Count `json:"priority"`
	Province []Count `json:"province"`
	District []Count `json:"district"`
}

type OverviewData struct {
	Jobs          []JobRow        `json:"jobs"`
	Pagination    Pagination      `json:"pagination"`
	Metrics       OverviewMetrics `json:"metrics"`
	Distributions Distributions   `json:"distributions"`
}

type OverviewResult struct {
	Source Source
	Data   OverviewData
}

type MapPoint struct {
	JobID        uuid.UUID  `json:"jobId"`
	JobNumber    string     `json:"jobNumber"`
	Status       string     `json:"status"`
	Type         string     `json:"type"`
	Priority     string     `json:"priority"`
	Coordinates  [2]float64 `json:"coordinates"`
	LocationName string     `json:"locationName"`
	Province     string     `json:"province"`
	District     string     `json:"district"`
	CustomerName string     `json:"customerName"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type MapData struct {
	Points []MapPoint `json:"points"`
	Total  int        `json:"total"`
}

type TechnicianRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	Position string    `json:"position"`
}

type TechnicianScore struct {
	Technician   TechnicianRef `json:"technician"`
	AvgTime      Rating        `json:"avgTime"`
	AvgManner    Rating        `json:"avgManner"`
	AvgKnowledge Rating        `json:"avgKnowledge"`
	AvgOverall   Rating        `json:"avgOverall"`
	AvgRecommend Rating        `json:"avgRecommend"`
	ReviewCount  int           `json:"reviewCount"`
}

// Review is one customer review with its raw (unaveraged) ratings.
type Review struct {
	ID        uuid.UUID `json:"id"`
	Time      *float64  `json:"time"`
	Manner    *float64  `json:"manner"`
	Knowledge *float64  `json:"knowledge"`
	Overall   *float64  `json:"overall"`
	Recommend *float64  `json:"recommend"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReviewItem struct {
	Review
	JobID           uuid.UUID `json:"jobId"`
	JobNumber       string    `json:"jobNumber"`
	TechnicianNames string    `json:"technicianNames"`
}

type TechnicianPerformance struct {
	Technicians   []TechnicianScore `json:"technicians"`
	RecentReviews []ReviewItem      `json:"recentReviews"`
}

type ProvinceStat struct {
	Province    string       `json:"province"`
	Count       int          `json:"count"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type DistrictStat struct {
	Province  string  `json:"province"`
	Districts []Count `json:"districts"`
}

type ProvinceStatus struct {
	Province string  `json:"province"`
	Statuses []Count `json:"statuses"`
}

type GeographicData struct {
	Provinces        []ProvinceStat   `json:"provinces"`
	Districts        []DistrictStat   `json:"districts"`
	StatusByProvince []ProvinceStatus `json:"statusByProvince"`
}

type TechnicianJobsSummary struct {
	Total      int     `json:"total"`
	ByStatus   []Count `json:"byStatus"`
	ByType     []Count `json:"byType"`
	ByPriority []Count `json:"byPriority"`
}

type TechnicianJobs struct {
	Technician *TechnicianRef        `json:"technician"`
	Jobs       []JobRow              `json:"jobs"`
	Pagination Pagination            `json:"pagination"`
	Summary    TechnicianJobsSummary `json:"summary"`
}

type CustomerItem struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
	Email string    `json:"email"`
}

type CustomerList struct {
	Customers  []CustomerItem `json:"customers"`
	Pagination Pagination     `json:"pagination"`
}

type CustomerJobHistory struct {
	Customer   CustomerItem `json:"customer"`
	Jobs       []JobRow     `json:"jobs"`
	Pagination Pagination   `json:"pagination"`
}

type TimelineEvent struct {
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
	Note      string    `json:"note,omitempty"`
	Synthetic bool      `json:"synthetic"`
}

type JobDetail struct {
	Job         JobRow          `json:"job"`
	Technicians []TechnicianRef `json:"technicians"`
	Review      *Review         `json:"review"`
	Timeline    []TimelineEvent `json:"timeline"`
}
