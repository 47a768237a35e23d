package clinic

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/debounce"
	"github.com/bakery/storefront/internal/platform/resource"
)

const (
	ClientsPath  = "/api/clients/"
	PatientsPath = "/api/patients/"
	RecordsPath  = "/api/clinical-records/"
	SummaryPath  = "/api/clinical-records-summary/"

	// Summary search inputs.
	OwnerField = "owner_name"
	PetField   = "pet_name"
)

// Service backs the clinic module: owners, their pets and visit history.
type Service struct {
	Clients  *resource.Controller[Client]
	Patients *resource.Controller[Patient]
	Records  *resource.Controller[Record]
	Summary  *resource.Controller[SummaryRow]
}

func NewService(client *apiclient.Client, opts ...resource.Option) *Service {
	return &Service{
		Clients:  resource.New[Client]("client", clinicREST[Client](client, ClientsPath), opts...),
		Patients: resource.New[Patient]("patient", clinicREST[Patient](client, PatientsPath), opts...),
		Records:  resource.New[Record]("clinical record", clinicREST[Record](client, RecordsPath), opts...),
		Summary: resource.New[SummaryRow]("clinical summary",
			&resource.REST[SummaryRow]{Client: client, Path: SummaryPath, Paginated: true}, opts...),
	}
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Clients.Create(ctx, in)
}

func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Clients.Update(ctx, id, in)
}

func (s *Service) CreatePatient(ctx context.Context, in PatientInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Patients.Create(ctx, in)
}

func (s *Service) UpdatePatient(ctx context.Context, id string, in PatientInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Patients.Update(ctx, id, in)
}

func (s *Service) CreateRecord(ctx context.Context, in RecordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Records.Create(ctx, in)
}

func (s *Service) UpdateRecord(ctx context.Context, id string, in RecordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Records.Update(ctx, id, in)
}

// clinicREST builds an endpoint in the clinic API's style: item paths end in
// a slash and updates replace the whole record.
func clinicREST[T any](client *apiclient.Client, path string) *resource.REST[T] {
	return &resource.REST[T]{Client: client, Path: path, UpdateMethod: http.MethodPut, TrailingSlash: true}
}

// PatientsOf lists the pets of one owner.
func (s *Service) PatientsOf(ctx context.Context, clientID string) ([]Patient, error) {
	snap, err := s.Patients.List(ctx, resource.Query{Extra: url.Values{"client_id": {clientID}}})
	return snap.Items, err
}

// History lists a patient's visits, newest first.
func (s *Service) History(ctx context.Context, patientID string) ([]Record, error) {
	snap, err := s.Records.List(ctx, resource.Query{Extra: url.Values{"patient_id": {patientID}}})
	if err != nil {
		return nil, err
	}
	recs := append([]Record(nil), snap.Items...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })
	return recs, nil
}

// NewSummarySearch binds the owner and pet name inputs of the summary table.
// Both are debounced independently; either settling re-lists page one with
// both values.
func (s *Service) NewSummarySearch(ctx context.Context, window time.Duration, onResult func(resource.Snapshot[SummaryRow], error), opts ...debounce.Option) *resource.Search[SummaryRow] {
	return resource.NewSearch(ctx, s.Summary, window, onResult, opts...)
}
