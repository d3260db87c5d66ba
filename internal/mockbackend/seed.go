package mockbackend

import (
	"sync"
	"time"

	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/queue"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/security"
)

type seedAccount struct {
	account  user.Account
	password string
}

var seedAccounts = []seedAccount{
	{user.Account{ID: "mock-admin", FirstName: "Adebola", LastName: "Adebayo", Email: "admin@fastservices.ng", Phone: "+2348012345678", Role: user.BackendSuperAdmin}, "admin123"},
	{user.Account{ID: "mock-superadmin", FirstName: "Suliha", LastName: "Oderinde", Email: "oderindesuliha@gmail.com", Phone: "08139338208", Role: user.BackendSuperAdmin}, "FastService@123"},
	{user.Account{ID: "mock-org", FirstName: "Aisha", LastName: "Bello", Email: "org@fastservices.ng", Phone: "+2348098765432", Role: user.BackendOrganization}, "org123"},
	{user.Account{ID: "mock-staff", FirstName: "Chinedu", LastName: "Okafor", Email: "staff@fastservices.ng", Phone: "+2348035551212", Role: user.BackendStaff}, "staff123"},
	{user.Account{ID: "mock-customer", FirstName: "Ngozi", LastName: "Nwosu", Email: "customer@fastservices.ng", Phone: "+2348027654321", Role: user.BackendCustomer}, "customer123"},
}

var (
	seedOnce   sync.Once
	seedHashed []user.Account
	seedErr    error
)

// SeedAccounts returns the demo accounts with hashed passwords. Hashing runs
// once per process.
func SeedAccounts(now time.Time) ([]user.Account, error) {
	seedOnce.Do(func() {
		for _, s := range seedAccounts {
			hash, err := security.HashPassword(s.password)
			if err != nil {
				seedErr = err
				return
			}
			a := s.account
			a.PasswordHash = hash
			seedHashed = append(seedHashed, a)
		}
	})
	if seedErr != nil {
		return nil, seedErr
	}

	out := make([]user.Account, len(seedHashed))
	copy(out, seedHashed)
	for i := range out {
		out[i].CreatedAt = now.UTC()
	}
	return out, nil
}

func seedCatalog(now time.Time) ([]organization.Organization, []offering.Offering, []queue.Queue) {
	orgs := []organization.Organization{
		{ID: "1", Name: "City General Hospital", Address: "123 Health St, Meditown", ContactEmail: "contact@cgh.com", ContactPhone: "555-0101", Code: "CGH", CreatedAt: now},
		{ID: "2", Name: "Downtown DMV", Address: "456 Government Ave, CapCity", ContactEmail: "info@dmv.gov", ContactPhone: "555-0102", Code: "DMV", CreatedAt: now},
		{ID: "3", Name: "Tech Repair Central", Address: "789 Tech Rd, Silicon Valley", ContactEmail: "support@trc.com", ContactPhone: "555-0103", Code: "TRC", CreatedAt: now},
		{ID: "4", Name: "Unity Bank", Address: "12 Marina Rd, Lagos", ContactEmail: "care@unitybank.ng", ContactPhone: "555-0104", Code: "UBN", CreatedAt: now},
	}
	offerings := []offering.Offering{
		{ID: "o1", OrganizationID: "1", Name: "General Consultation", Description: "Consult with a General Practitioner.", EstimatedWaitTime: 45, Duration: 15},
		{ID: "o2", OrganizationID: "1", Name: "Emergency Services", Description: "Urgent care for critical conditions.", EstimatedWaitTime: 10, Duration: 60},
		{ID: "o3", OrganizationID: "2", Name: "New Passport Application", Description: "Apply for a new international passport.", EstimatedWaitTime: 120, Duration: 30},
		{ID: "o4", OrganizationID: "2", Name: "Passport Renewal", Description: "Renew your existing passport.", EstimatedWaitTime: 60, Duration: 20},
		{ID: "o5", OrganizationID: "4", Name: "New Account Opening", Description: "Open a new savings or current account.", EstimatedWaitTime: 25, Duration: 20},
		{ID: "o6", OrganizationID: "4", Name: "Customer Service Inquiry", Description: "Speak with a customer service representative.", EstimatedWaitTime: 15, Duration: 10},
	}
	queues := []queue.Queue{
		{ID: "q1", OrganizationID: "1", Name: "Outpatients", Description: "Walk-in and booked consultations."},
		{ID: "q2", OrganizationID: "2", Name: "Passports", Description: "Passport applications and renewals."},
		{ID: "q3", OrganizationID: "3", Name: "Repairs Desk", Description: "Device drop-off and pickup."},
		{ID: "q4", OrganizationID: "4", Name: "Banking Hall", Description: "Account services."},
	}
	return orgs, offerings, queues
}
