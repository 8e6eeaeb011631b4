package memstore

import (
	"fmt"
	"io"
	"time"

	"fieldservice_backend/internal/records"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type seedDoc struct {
	Customers   []seedCustomer   `yaml:"customers"`
	Locations   []seedLocation   `yaml:"locations"`
	Technicians []seedTechnician `yaml:"technicians"`
	Jobs        []seedJob        `yaml:"jobs"`
	Reviews     []seedReview     `yaml:"reviews"`
	History     []seedEvent      `yaml:"history"`
}

type seedCustomer struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Phone string `yaml:"phone"`
	Email string `yaml:"email"`
}

type seedLocation struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Address     string    `yaml:"address"`
	Province    string    `yaml:"province"`
	District    string    `yaml:"district"`
	SubDistrict string    `yaml:"subDistrict"`
	PostalCode  string    `yaml:"postalCode"`
	Coordinates []float64 `yaml:"coordinates"`
	CustomerID  string    `yaml:"customerId"`
}

type seedTechnician struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Code      string `yaml:"code"`
	Position  string `yaml:"position"`
}

type seedJob struct {
	ID            string     `yaml:"id"`
	JobNumber     string     `yaml:"jobNumber"`
	Status        string     `yaml:"status"`
	Type          string     `yaml:"type"`
	Priority      string     `yaml:"priority"`
	CreatedAt     time.Time  `yaml:"createdAt"`
	UpdatedAt     time.Time  `yaml:"updatedAt"`
	AppointmentAt *time.Time `yaml:"appointmentAt"`
	ContactName   *string    `yaml:"contactName"`
	ContactPhone  *string    `yaml:"contactPhone"`
	ContactEmail  *string    `yaml:"contactEmail"`
	LocationID    string     `yaml:"locationId"`
	Technicians   []string   `yaml:"technicians"`
}

type seedReview struct {
	ID          string    `yaml:"id"`
	JobID       string    `yaml:"jobId"`
	Technicians []string  `yaml:"technicians"`
	Time        *float64  `yaml:"time"`
	Manner      *float64  `yaml:"manner"`
	Knowledge   *float64  `yaml:"knowledge"`
	Overall     *float64  `yaml:"overall"`
	Recommend   *float64  `yaml:"recommend"`
	Comment     string    `yaml:"comment"`
	CreatedAt   time.Time `yaml:"createdAt"`
}

type seedEvent struct {
	JobID     string    `yaml:"jobId"`
	Status    string    `yaml:"status"`
	ChangedAt time.Time `yaml:"changedAt"`
	Note      string    `yaml:"note"`
}

func decodeSeed(r io.Reader) (seedDoc, error) {
	var doc seedDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return seedDoc{}, fmt.Errorf("decode seed: %w", err)
	}
	return doc, nil
}

func (d seedDoc) apply(s *Store) error {
	for _, c := range d.Customers {
		id, err := uuid.Parse(c.ID)
		if err != nil {
			return fmt.Errorf("customer %q: %w", c.ID, err)
		}
		s.PutCustomer(records.Customer{ID: id, Name: c.Name, Phone: c.Phone, Email: c.Email})
	}

	for _, l := range d.Locations {
		id, err := uuid.Parse(l.ID)
		if err != nil {
			return fmt.Errorf("location %q: %w", l.ID, err)
		}
		customerID, err := optionalID(l.CustomerID)
		if err != nil {
			return fmt.Errorf("location %q customer: %w", l.ID, err)
		}
		coords := l.Coordinates
		if coords == nil {
			coords = []float64{0, 0}
		}
		s.PutLocation(records.JobLocation{
			ID:          id,
			Name:        l.Name,
			Address:     l.Address,
			Province:    l.Province,
			District:    l.District,
			SubDistrict: l.SubDistrict,
			PostalCode:  l.PostalCode,
			Coordinates: coords,
			CustomerID:  customerID,
		})
	}

	for _, t := range d.Technicians {
		id, err := uuid.Parse(t.ID)
		if err != nil {
			return fmt.Errorf("technician %q: %w", t.ID, err)
		}
		s.PutTechnician(records.TechnicianProfile{
			ID: id, FirstName: t.FirstName, LastName: t.LastName, Code: t.Code, Position: t.Position,
		})
	}

	for _, j := range d.Jobs {
		job, err := j.toJob()
		if err != nil {
			return err
		}
		s.PutJob(job)
	}

	for _, r := range d.Reviews {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return fmt.Errorf("review %q: %w", r.ID, err)
		}
		jobID, err := uuid.Parse(r.JobID)
		if err != nil {
			return fmt.Errorf("review %q job: %w", r.ID, err)
		}
		techIDs, err := parseIDs(r.Technicians)
		if err != nil {
			return fmt.Errorf("review %q technicians: %w", r.ID, err)
		}
		s.PutReview(records.CustomerReview{
			ID:            id,
			JobID:         jobID,
			TechnicianIDs: techIDs,
			Time:          r.Time,
			Manner:        r.Manner,
			Knowledge:     r.Knowledge,
			Overall:       r.Overall,
			Recommend:     r.Recommend,
			Comment:       r.Comment,
			CreatedAt:     r.CreatedAt,
		})
	}

	for _, e := range d.History {
		jobID, err := uuid.Parse(e.JobID)
		if err != nil {
			return fmt.Errorf("history job %q: %w", e.JobID, err)
		}
		s.AppendHistory(records.StatusEvent{
			JobID: jobID, Status: records.Status(e.Status), ChangedAt: e.ChangedAt, Note: e.Note,
		})
	}

	return nil
}

func (j seedJob) toJob() (records.Job, error) {
	id, err := uuid.Parse(j.ID)
	if err != nil {
		return records.Job{}, fmt.Errorf("job %q: %w", j.ID, err)
	}
	status := records.Status(j.Status)
	if !status.Valid() {
		return records.Job{}, fmt.Errorf("job %q: unknown status %q", j.ID, j.Status)
	}
	locationID, err := optionalID(j.LocationID)
	if err != nil {
		return records.Job{}, fmt.Errorf("job %q location: %w", j.ID, err)
	}
	techIDs, err := parseIDs(j.Technicians)
	if err != nil {
		return records.Job{}, fmt.Errorf("job %q technicians: %w", j.ID, err)
	}
	updatedAt := j.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = j.CreatedAt
	}
	return records.Job{
		ID:            id,
		JobNumber:     j.JobNumber,
		Status:        status,
		Type:          j.Type,
		Priority:      j.Priority,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     updatedAt,
		AppointmentAt: j.AppointmentAt,
		ContactName:   j.ContactName,
		ContactPhone:  j.ContactPhone,
		ContactEmail:  j.ContactEmail,
		LocationID:    locationID,
		TechnicianIDs: techIDs,
	}, nil
}

func optionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
