package transport

// Empty payloads keep failed listing responses well formed.

func EmptyOverview(page, limit int) OverviewData {
	return OverviewData{
		Jobs:       []JobRow{},
		Pagination: Pagination{Page: page, Limit: limit},
		Distributions: Distributions{
			Status:   []Count{},
			Priority: []Count{},
			Province: []Count{},
			District: []Count{},
		},
	}
}

func EmptyMap() MapData {
	return MapData{Points: []MapPoint{}}
}

func EmptyTechnicianPerformance() TechnicianPerformance {
	return TechnicianPerformance{Technicians: []TechnicianScore{}, RecentReviews: []ReviewItem{}}
}

func EmptyGeographic() GeographicData {
	return GeographicData{
		Provinces:        []ProvinceStat{},
		Districts:        []DistrictStat{},
		StatusByProvince: []ProvinceStatus{},
	}
}

func EmptyTechnicianJobs(page, limit int) TechnicianJobs {
	return TechnicianJobs{
		Jobs:       []JobRow{},
		Pagination: Pagination{Page: page, Limit: limit},
		Summary:    TechnicianJobsSummary{ByStatus: []Count{}, ByType: []Count{}, ByPriority: []Count{}},
	}
}

func EmptyCustomerList(page, limit int) CustomerList {
	return CustomerList{Customers: []CustomerItem{}, Pagination: Pagination{Page: page, Limit: limit}}
}

func EmptyCustomerJobHistory(page, limit int) CustomerJobHistory {
	return CustomerJobHistory{Jobs: []JobRow{}, Pagination: Pagination{Page: page, Limit: limit}}
}
