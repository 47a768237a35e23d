package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/domain/clinic"
	"github.com/bakery/storefront/internal/platform/resource"
)

func (a *app) clinic() (*clinic.Service, error) {
	client, err := a.api()
	if err != nil {
		return nil, err
	}
	return clinic.NewService(client, a.controllerOpts()...), nil
}

func findByID[T any](items []T, id string, key func(T) string) (T, bool) {
	for _, it := range items {
		if key(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

type clientFlags struct {
	name, idCard, email, phone string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "owner name")
	fl.StringVar(&f.idCard, "id-card", "", "identity document number")
	fl.StringVar(&f.email, "email", "", "email")
	fl.StringVar(&f.phone, "phone", "", "phone")
}

func (f *clientFlags) input(cmd *cobra.Command, in clinic.ClientInput) clinic.ClientInput {
	fl := cmd.Flags()
	if fl.Changed("name") {
		in.Name = f.name
	}
	if fl.Changed("id-card") {
		in.IDCard = f.idCard
	}
	if fl.Changed("email") {
		in.Email = f.email
	}
	if fl.Changed("phone") {
		in.Phone = f.phone
	}
	return in
}

func clientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"client"},
		Short:   "Clinic pet owners",
	}

	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			snap, err := svc.Clients.List(cmd.Context(), resource.Query{Search: search})
			if err != nil {
				return err
			}
			tw := newTable(a.out, "ID", "NAME", "ID CARD", "EMAIL", "PHONE")
			for _, c := range snap.Items {
				row(tw, c.ID, c.Name, c.IDCard, c.Email, c.Phone)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "name or id card contains")

	var form clientFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			return svc.CreateClient(cmd.Context(), form.input(cmd, clinic.ClientInput{}))
		},
	}
	form.register(createCmd)

	var patch clientFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			snap, err := svc.Clients.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			c, ok := findByID(snap.Items, args[0], func(c clinic.Client) string { return c.ID })
			if !ok {
				return fmt.Errorf("client %s not found", args[0])
			}
			in := patch.input(cmd, clinic.ClientInput{Name: c.Name, IDCard: c.IDCard, Email: c.Email, Phone: c.Phone})
			return svc.UpdateClient(cmd.Context(), c.ID, in)
		},
	}
	patch.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client with their pets and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			svc.Clients.RequestDelete(args[0], "Delete client", "Delete client "+args[0]+" with their pets and history?")
			return a.resolve(cmd.Context(), svc.Clients.Gate())
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

// ---------------------------------------------------------------------------
// Patients
// ---------------------------------------------------------------------------

type patientFlags struct {
	name, species, breed, photoURL, clientID string
}

func (f *patientFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "pet name")
	fl.StringVar(&f.species, "species", "", "species")
	fl.StringVar(&f.breed, "breed", "", "breed")
	fl.StringVar(&f.photoURL, "photo-url", "", "photo URL, e.g. from upload")
	fl.StringVar(&f.clientID, "client", "", "owner client id")
}

func (f *patientFlags) input(cmd *cobra.Command, in clinic.PatientInput) clinic.PatientInput {
	fl := cmd.Flags()
	if fl.Changed("name") {
		in.Name = f.name
	}
	if fl.Changed("species") {
		in.Species = f.species
	}
	if fl.Changed("breed") {
		in.Breed = f.breed
	}
	if fl.Changed("photo-url") {
		in.PhotoURL = f.photoURL
	}
	if fl.Changed("client") {
		in.ClientID = f.clientID
	}
	return in
}

func patientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patients",
		Aliases: []string{"patient", "pets"},
		Short:   "Clinic patients",
	}

	var clientID string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List patients, optionally of one client",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			var pets []clinic.Patient
			if clientID != "" {
				pets, err = svc.PatientsOf(cmd.Context(), clientID)
			} else {
				var snap resource.Snapshot[clinic.Patient]
				snap, err = svc.Patients.List(cmd.Context(), resource.Query{})
				pets = snap.Items
			}
			if err != nil {
				return err
			}
			tw := newTable(a.out, "ID", "NAME", "SPECIES", "BREED", "CLIENT")
			for _, p := range pets {
				row(tw, p.ID, p.Name, p.Species, p.Breed, p.ClientID)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVar(&clientID, "client", "", "owner client id")

	var form patientFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			return svc.CreatePatient(cmd.Context(), form.input(cmd, clinic.PatientInput{}))
		},
	}
	form.register(createCmd)

	var patch patientFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			snap, err := svc.Patients.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			p, ok := findByID(snap.Items, args[0], func(p clinic.Patient) string { return p.ID })
			if !ok {
				return fmt.Errorf("patient %s not found", args[0])
			}
			in := patch.input(cmd, clinic.PatientInput{Name: p.Name, Species: p.Species, Breed: p.Breed, PhotoURL: p.PhotoURL, ClientID: p.ClientID})
			return svc.UpdatePatient(cmd.Context(), p.ID, in)
		},
	}
	patch.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			svc.Patients.RequestDelete(args[0], "Delete patient", "Delete patient "+args[0]+" and its history?")
			return a.resolve(cmd.Context(), svc.Patients.Gate())
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

// ---------------------------------------------------------------------------
// Clinical records
// ---------------------------------------------------------------------------

type recordFlags struct {
	patientID, date, reason, diagnosis, treatment, weight, temperature, notes string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.patientID, "patient", "", "patient id")
	fl.StringVar(&f.date, "date", "", "visit date, YYYY-MM-DD (default today)")
	fl.StringVar(&f.reason, "reason", "", "reason for the visit")
	fl.StringVar(&f.diagnosis, "diagnosis", "", "diagnosis")
	fl.StringVar(&f.treatment, "treatment", "", "treatment")
	fl.StringVar(&f.weight, "weight", "", "weight in kg")
	fl.StringVar(&f.temperature, "temperature", "", "temperature in °C")
	fl.StringVar(&f.notes, "notes", "", "notes")
}

func (f *recordFlags) input(cmd *cobra.Command, in clinic.RecordInput) (clinic.RecordInput, error) {
	fl := cmd.Flags()
	if fl.Changed("patient") {
		in.PatientID = f.patientID
	}
	if fl.Changed("date") {
		in.Date = f.date
	}
	if fl.Changed("reason") {
		in.Reason = f.reason
	}
	if fl.Changed("diagnosis") {
		in.Diagnosis = f.diagnosis
	}
	if fl.Changed("treatment") {
		in.Treatment = f.treatment
	}
	if fl.Changed("notes") {
		in.Notes = f.notes
	}
	if fl.Changed("weight") {
		w, err := clinic.ParseMeasure(f.weight)
		if err != nil {
			return in, fmt.Errorf("weight: %w", err)
		}
		in.Weight = w
	}
	if fl.Changed("temperature") {
		t, err := clinic.ParseMeasure(f.temperature)
		if err != nil {
			return in, fmt.Errorf("temperature: %w", err)
		}
		in.Temperature = t
	}
	return in, nil
}

func recordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record", "visits"},
		Short:   "Clinical records",
	}

	historyCmd := &cobra.Command{
		Use:   "history <patient-id>",
		Short: "List a patient's visits, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			recs, err := svc.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(a.out, "no visits")
				return nil
			}
			tw := newTable(a.out, "ID", "DATE", "REASON", "DIAGNOSIS", "WEIGHT", "TEMP")
			for _, r := range recs {
				row(tw, r.ID, r.Date, r.Reason, r.Diagnosis, measure(r.Weight), measure(r.Temperature))
			}
			return tw.Flush()
		},
	}

	var form recordFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Record a visit",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := form.input(cmd, clinic.RecordInput{Date: time.Now().Format(clinic.DateLayout)})
			if err != nil {
				return err
			}
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			return svc.CreateRecord(cmd.Context(), in)
		},
	}
	form.register(createCmd)

	var patch recordFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			snap, err := svc.Records.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			r, ok := findByID(snap.Items, args[0], func(r clinic.Record) string { return r.ID })
			if !ok {
				return fmt.Errorf("clinical record %s not found", args[0])
			}
			in, err := patch.input(cmd, clinic.RecordInput{
				Date:        r.Date,
				Reason:      r.Reason,
				Diagnosis:   r.Diagnosis,
				Treatment:   r.Treatment,
				Weight:      r.Weight,
				Temperature: r.Temperature,
				Notes:       r.Notes,
				PatientID:   r.PatientID,
			})
			if err != nil {
				return err
			}
			return svc.UpdateRecord(cmd.Context(), r.ID, in)
		},
	}
	patch.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			svc.Records.RequestDelete(args[0], "Delete clinical record", "Delete clinical record "+args[0]+"?")
			return a.resolve(cmd.Context(), svc.Records.Gate())
		},
	}

	cmd.AddCommand(historyCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

func summaryCmd(a *app) *cobra.Command {
	var (
		owner, pet  string
		page, limit int
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "One row per patient with its latest visit",
		Long: "With --watch, reads lines from stdin: plain text filters by owner,\n" +
			"pet_name=TEXT by pet. page=N jumps to a page; next and prev turn it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.clinic()
			if err != nil {
				return err
			}
			if !interactive {
				q := resource.Query{Page: page, Limit: limit, Extra: url.Values{
					clinic.OwnerField: {owner},
					clinic.PetField:   {pet},
				}}
				snap, err := svc.Summary.List(cmd.Context(), q)
				if err != nil {
					return err
				}
				a.printSummaryRows(snap)
				return nil
			}

			s := svc.NewSummarySearch(cmd.Context(), a.cfg.DebounceWindow, renderer(a.printSummaryRows))
			if limit > 0 {
				s.Filter(func(q *resource.Query) { q.Limit = limit })
			}
			if owner != "" {
				s.Type(clinic.OwnerField, owner)
			}
			if pet != "" {
				s.Type(clinic.PetField, pet)
			}
			return watch(a.in, a.errOut, s, clinic.OwnerField, nil)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner name contains")
	cmd.Flags().StringVar(&pet, "pet", "", "pet name contains")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows per page (server default when 0)")
	cmd.Flags().BoolVarP(&interactive, "watch", "w", false, "search interactively from stdin")
	return cmd
}

func (a *app) printSummaryRows(snap resource.Snapshot[clinic.SummaryRow]) {
	if snap.Status == resource.StatusEmpty {
		fmt.Fprintln(a.out, "no patients")
		return
	}
	tw := newTable(a.out, "PET", "SPECIES", "OWNER", "VISITS", "LAST VISIT", "REASON")
	for _, r := range snap.Items {
		row(tw, r.PetName, r.Species, r.OwnerName, r.Visits, r.LastVisit, r.LastReason)
	}
	tw.Flush()
	p := snap.Paging()
	fmt.Fprintf(a.out, "page %d of %d, %d patients", p.Page, p.Last(snap.Total), snap.Total)
	if snap.HasPrevious() {
		fmt.Fprint(a.out, " [prev]")
	}
	if snap.HasNext() {
		fmt.Fprint(a.out, " [next]")
	}
	fmt.Fprintln(a.out)
}

func measure(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
