package sandbox

import (
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bakery/storefront/internal/domain/clinic"
	"github.com/bakery/storefront/pkg/pagination"
)

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

func (s *Server) handleListClients(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	q := strings.ToLower(c.QueryParam("q"))
	out := []clinic.Client{}
	for _, cl := range t.clients {
		if q == "" || strings.Contains(strings.ToLower(cl.Name), q) || strings.Contains(strings.ToLower(cl.IDCard), q) {
			out = append(out, cl)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateClient(c echo.Context) error {
	var in clinic.ClientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	cl := clinic.Client{ID: uuid.NewString(), Name: strings.TrimSpace(in.Name), IDCard: in.IDCard, Email: in.Email, Phone: in.Phone}
	t.clients = append(t.clients, cl)
	return c.JSON(http.StatusCreated, cl)
}

func (s *Server) handleUpdateClient(c echo.Context) error {
	var in clinic.ClientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.clientIndex(c.Param("id"))
	if i < 0 {
		return notFound("client")
	}
	t.clients[i] = clinic.Client{ID: t.clients[i].ID, Name: strings.TrimSpace(in.Name), IDCard: in.IDCard, Email: in.Email, Phone: in.Phone}
	return c.JSON(http.StatusOK, t.clients[i])
}

// handleDeleteClient removes the client with their pets and visit history.
func (s *Server) handleDeleteClient(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	id := c.Param("id")
	i := t.clientIndex(id)
	if i < 0 {
		return notFound("client")
	}
	t.clients = append(t.clients[:i], t.clients[i+1:]...)

	pets := t.patients[:0]
	for _, p := range t.patients {
		if p.ClientID == id {
			t.dropRecordsOf(p.ID)
			continue
		}
		pets = append(pets, p)
	}
	t.patients = pets
	return c.NoContent(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Patients
// ---------------------------------------------------------------------------

func (s *Server) handleListPatients(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	clientID := c.QueryParam("client_id")
	q := strings.ToLower(c.QueryParam("q"))
	out := []clinic.Patient{}
	for _, p := range t.patients {
		if clientID != "" && p.ClientID != clientID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreatePatient(c echo.Context) error {
	var in clinic.PatientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	if t.clientIndex(in.ClientID) < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown client "+in.ClientID)
	}
	p := patientFrom(uuid.NewString(), in)
	t.patients = append(t.patients, p)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdatePatient(c echo.Context) error {
	var in clinic.PatientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.patientIndex(c.Param("id"))
	if i < 0 {
		return notFound("patient")
	}
	if t.clientIndex(in.ClientID) < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown client "+in.ClientID)
	}
	t.patients[i] = patientFrom(t.patients[i].ID, in)
	return c.JSON(http.StatusOK, t.patients[i])
}

func (s *Server) handleDeletePatient(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	id := c.Param("id")
	i := t.patientIndex(id)
	if i < 0 {
		return notFound("patient")
	}
	t.patients = append(t.patients[:i], t.patients[i+1:]...)
	t.dropRecordsOf(id)
	return c.NoContent(http.StatusNoContent)
}

func patientFrom(id string, in clinic.PatientInput) clinic.Patient {
	return clinic.Patient{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		Species:  in.Species,
		Breed:    in.Breed,
		PhotoURL: in.PhotoURL,
		ClientID: in.ClientID,
	}
}

func (t *tenantData) dropRecordsOf(patientID string) {
	kept := t.records[:0]
	for _, r := range t.records {
		if r.PatientID != patientID {
			kept = append(kept, r)
		}
	}
	t.records = kept
}

// ---------------------------------------------------------------------------
// Clinical records
// ---------------------------------------------------------------------------

func (s *Server) handleListRecords(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	patientID := c.QueryParam("patient_id")
	out := []clinic.Record{}
	for _, r := range t.records {
		if patientID == "" || r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateRecord(c echo.Context) error {
	var in clinic.RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	if t.patientIndex(in.PatientID) < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown patient "+in.PatientID)
	}
	r := recordFrom(uuid.NewString(), in)
	t.records = append(t.records, r)
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) handleUpdateRecord(c echo.Context) error {
	var in clinic.RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.recordIndex(c.Param("id"))
	if i < 0 {
		return notFound("clinical record")
	}
	if t.patientIndex(in.PatientID) < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown patient "+in.PatientID)
	}
	t.records[i] = recordFrom(t.records[i].ID, in)
	return c.JSON(http.StatusOK, t.records[i])
}

func (s *Server) handleDeleteRecord(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	i := t.recordIndex(c.Param("id"))
	if i < 0 {
		return notFound("clinical record")
	}
	t.records = append(t.records[:i], t.records[i+1:]...)
	return c.NoContent(http.StatusNoContent)
}

func recordFrom(id string, in clinic.RecordInput) clinic.Record {
	return clinic.Record{
		ID:          id,
		Date:        in.Date,
		Reason:      in.Reason,
		Diagnosis:   in.Diagnosis,
		Treatment:   in.Treatment,
		Weight:      in.Weight,
		Temperature: in.Temperature,
		Notes:       in.Notes,
		PatientID:   in.PatientID,
	}
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// handleSummary answers one page of per-patient rows, most recently seen
// first, filtered by owner_name and pet_name substrings.
func (s *Server) handleSummary(c echo.Context) error {
	p := pagination.FromContext(c)
	owner := strings.ToLower(strings.TrimSpace(c.QueryParam("owner_name")))
	pet := strings.ToLower(strings.TrimSpace(c.QueryParam("pet_name")))

	t, unlock := s.data(c)
	rows := t.summaryRows()
	unlock()

	filtered := rows[:0]
	for _, r := range rows {
		if owner != "" && !strings.Contains(strings.ToLower(r.OwnerName), owner) {
			continue
		}
		if pet != "" && !strings.Contains(strings.ToLower(r.PetName), pet) {
			continue
		}
		filtered = append(filtered, r)
	}

	start, end := p.Window(len(filtered))
	return c.JSON(http.StatusOK, pagination.NewResponse(filtered[start:end], len(filtered), p))
}

func (t *tenantData) summaryRows() []clinic.SummaryRow {
	owners := make(map[string]string, len(t.clients))
	for _, cl := range t.clients {
		owners[cl.ID] = cl.Name
	}
	byPatient := make(map[string]*clinic.SummaryRow, len(t.patients))
	rows := make([]clinic.SummaryRow, 0, len(t.patients))
	for _, p := range t.patients {
		rows = append(rows, clinic.SummaryRow{
			PatientID: p.ID,
			PetName:   p.Name,
			Species:   p.Species,
			ClientID:  p.ClientID,
			OwnerName: owners[p.ClientID],
		})
	}
	for i := range rows {
		byPatient[rows[i].PatientID] = &rows[i]
	}
	for _, r := range t.records {
		row, ok := byPatient[r.PatientID]
		if !ok {
			continue
		}
		row.Visits++
		if r.Date > row.LastVisit {
			row.LastVisit = r.Date
			row.LastReason = r.Reason
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastVisit != rows[j].LastVisit {
			return rows[i].LastVisit > rows[j].LastVisit
		}
		return rows[i].PetName < rows[j].PetName
	})
	return rows
}
