package service

import (
	"context"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/format"
	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/internal/records"
	"fieldservice_backend/platform/apperr"
	"fieldservice_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	msgCustomerNotFound = "customer not found"
	msgJobNotFound      = "job not found"
)

// Customers lists customers matching a free-text search on name, phone or
// email. Phone-like terms also match their E.164 and national forms.
func (s *Service) Customers(ctx context.Context, p filter.Params) (transport.CustomerList, error) {
	f := s.Normalize(p, filter.DefaultCustomerLimit)

	found, total, err := s.store.SearchCustomers(ctx, records.CustomerQuery{
		Search:     f.Search,
		PhoneForms: phone.SearchForms(f.Search, s.phoneRegion),
		Offset:     f.Offset(),
		Limit:      f.Limit,
	})
	if err != nil {
		return transport.EmptyCustomerList(f.Page, f.Limit), apperr.Store("customers.search", err)
	}

	items := make([]transport.CustomerItem, 0, len(found))
	for _, c := range found {
		items = append(items, customerItem(c))
	}
	return transport.CustomerList{
		Customers:  items,
		Pagination: format.Pagination(f.Page, f.Limit, total),
	}, nil
}

// CustomerJobHistory lists the jobs at any location owned by the customer,
// without a time window.
func (s *Service) CustomerJobHistory(ctx context.Context, customerID uuid.UUID, p filter.Params) (transport.CustomerJobHistory, error) {
	f := s.Normalize(p, filter.DefaultLimit)
	empty := transport.EmptyCustomerJobHistory(f.Page, f.Limit)

	customer, locationIDs, err := s.customerLocations(ctx, customerID)
	if err != nil {
		return empty, err
	}
	empty.Customer = customerItem(customer)

	res, err := s.exec.Run(ctx, query.Plan{
		Name:  "customers.jobs",
		Match: records.JobQuery{LocationIDs: locationIDs},
		Joins: query.JoinCustomer | query.JoinTechnicians,
		Page:  &query.Page{Number: f.Page, Limit: f.Limit},
	})
	if err != nil {
		return empty, err
	}

	return transport.CustomerJobHistory{
		Customer:   customerItem(customer),
		Jobs:       format.JobRows(res.Rows),
		Pagination: format.Pagination(f.Page, f.Limit, res.Total),
	}, nil
}

// JobDetail returns one of the customer's jobs with technicians, review and
// status timeline.
func (s *Service) JobDetail(ctx context.Context, customerID, jobID uuid.UUID) (transport.JobDetail, error) {
	_, locationIDs, err := s.customerLocations(ctx, customerID)
	if err != nil {
		return transport.JobDetail{}, err
	}

	res, err := s.exec.Run(ctx, query.Plan{
		Name:  "customers.job_detail",
		Match: records.JobQuery{JobID: &jobID, LocationIDs: locationIDs},
		Joins: query.JoinCustomer | query.JoinTechnicians | query.JoinReview,
	})
	if err != nil {
		return transport.JobDetail{}, err
	}
	if len(res.Rows) == 0 {
		return transport.JobDetail{}, apperr.NotFound(msgJobNotFound)
	}
	row := res.Rows[0]

	history, err := s.store.StatusHistory(ctx, jobID)
	if err != nil {
		return transport.JobDetail{}, apperr.Store("customers.job_history", err)
	}

	technicians := make([]transport.TechnicianRef, 0, len(row.Technicians))
	for _, t := range row.Technicians {
		technicians = append(technicians, format.TechnicianRef(t))
	}

	return transport.JobDetail{
		Job:         format.JobRow(row),
		Technicians: technicians,
		Review:      format.Review(row.Review),
		Timeline:    format.Timeline(row.Job, history),
	}, nil
}

// customerLocations resolves the customer and the ids of its locations. The
// id slice is never nil so an owner of no locations matches no jobs.
func (s *Service) customerLocations(ctx context.Context, customerID uuid.UUID) (records.Customer, []uuid.UUID, error) {
	customers, err := s.store.CustomersByID(ctx, []uuid.UUID{customerID})
	if err != nil {
		return records.Customer{}, nil, apperr.Store("customers.lookup", err)
	}
	customer, ok := customers[customerID]
	if !ok {
		return records.Customer{}, nil, apperr.NotFound(msgCustomerNotFound)
	}

	locations, err := s.store.LocationsByCustomer(ctx, customerID)
	if err != nil {
		return records.Customer{}, nil, apperr.Store("customers.locations", err)
	}
	ids := make([]uuid.UUID, 0, len(locations))
	for _, loc := range locations {
		ids = append(ids, loc.ID)
	}
	return customer, ids, nil
}

func customerItem(c records.Customer) transport.CustomerItem {
	return transport.CustomerItem{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email}
}
