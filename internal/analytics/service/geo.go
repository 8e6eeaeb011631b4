package service

import (
	"context"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/format"
	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/internal/records"
)

// maxCoordinateSamples caps the points returned per province.
const maxCoordinateSamples = 5

// MapData returns plottable job points. Rows without valid coordinates are
// dropped; team leader and paging parameters are ignored.
func (s *Service) MapData(ctx context.Context, p filter.Params) (transport.MapData, error) {
	f := s.Normalize(p, filter.DefaultLimit)
	f.TeamLeader = nil
	preds, joins := joinedPredicates(f)
	preds = append(preds, func(r query.Row) bool {
		_, ok := format.Coordinates(r.Location)
		return ok
	})

	res, err := s.exec.Run(ctx, query.Plan{
		Name:  "map",
		Match: f.Match(),
		Joins: joins | query.JoinCustomer,
		Where: preds,
	})
	if err != nil {
		return transport.EmptyMap(), err
	}

	points := make([]transport.MapPoint, 0, len(res.Rows))
	for _, r := range res.Rows {
		coords, _ := format.Coordinates(r.Location)
		points = append(points, transport.MapPoint{
			JobID:        r.Job.ID,
			JobNumber:    r.Job.JobNumber,
			Status:       string(r.Job.Status),
			Type:         r.Job.Type,
			Priority:     r.Job.Priority,
			Coordinates:  *coords,
			LocationName: r.Location.Name,
			Province:     r.Location.Province,
			District:     r.Location.District,
			CustomerName: format.CustomerContact(r.Customer, r.Job).Name,
			CreatedAt:    r.Job.CreatedAt,
		})
	}
	return transport.MapData{Points: points, Total: len(points)}, nil
}

// Geographic returns the top provinces with coordinate samples, the district
// breakdown per province and the status breakdown per province.
func (s *Service) Geographic(ctx context.Context, p filter.Params) (transport.GeographicData, error) {
	f := s.Normalize(p, filter.DefaultLimit)

	res, err := s.exec.Run(ctx, query.Plan{
		Name:  "geographic",
		Match: records.JobQuery{Window: &f.Window},
		Joins: query.JoinLocation,
		Where: []query.Predicate{func(r query.Row) bool {
			_, ok := byProvince(r)
			return ok
		}},
	})
	if err != nil {
		return transport.EmptyGeographic(), err
	}

	groups := query.GroupBy(res.Rows, byProvince)
	byName := make(map[string][]query.Row, len(groups))
	for _, g := range groups {
		byName[g.Key] = g.Rows
	}
	top := query.Distribution(res.Rows, byProvince, true)

	out := transport.EmptyGeographic()
	for _, c := range top {
		rows := byName[c.Key]
		out.Provinces = append(out.Provinces, transport.ProvinceStat{
			Province:    c.Key,
			Count:       c.Count,
			Coordinates: coordinateSamples(rows),
		})
		out.Districts = append(out.Districts, transport.DistrictStat{
			Province:  c.Key,
			Districts: format.Counts(query.Distribution(rows, byDistrict, true)),
		})
		if s.geoStatus {
			out.StatusByProvince = append(out.StatusByProvince, transport.ProvinceStatus{
				Province: c.Key,
				Statuses: format.Counts(query.Distribution(rows, byStatus, false)),
			})
		}
	}
	return out, nil
}

func coordinateSamples(rows []query.Row) [][2]float64 {
	out := make([][2]float64, 0, maxCoordinateSamples)
	for _, r := range rows {
		if len(out) == maxCoordinateSamples {
			break
		}
		if coords, ok := format.Coordinates(r.Location); ok {
			out = append(out, *coords)
		}
	}
	return out
}
