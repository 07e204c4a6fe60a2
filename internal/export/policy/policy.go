// Package policy maps caller roles to the entity domains they may export.
// It is consulted only for session callers; a valid capability token bypasses
// the table entirely.
package policy

import (
	"fieldbook/internal/auth/session"
	"fieldbook/internal/export/models"
)

// Policy is the static role→domain table.
type Policy struct {
	allowed map[session.Role]map[models.Domain]bool
}

// New builds the default table. Unknown roles are denied everything.
func New() *Policy {
	all := func() map[models.Domain]bool {
		m := make(map[models.Domain]bool)
		for _, d := range models.Domains() {
			m[d] = true
		}
		return m
	}
	some := func(domains ...models.Domain) map[models.Domain]bool {
		m := make(map[models.Domain]bool)
		for _, d := range domains {
			m[d] = true
		}
		return m
	}

	return &Policy{
		allowed: map[session.Role]map[models.Domain]bool{
			session.RoleAdmin:   all(),
			session.RoleManager: all(),
			session.RoleDispatcher: some(
				models.DomainServices, models.DomainVehicles,
				models.DomainEmergencies, models.DomainInquiries,
				models.DomainMessages,
			),
			session.RoleAccountant: some(
				models.DomainInvoices, models.DomainPayments,
				models.DomainCustomers,
			),
			// Customers never export; they are the subject of reports,
			// not their audience.
			session.RoleCustomer: {},
		},
	}
}

// IsAllowed reports whether role may export domain.
func (p *Policy) IsAllowed(role session.Role, domain models.Domain) bool {
	domains, ok := p.allowed[role]
	if !ok {
		return false
	}
	return domains[domain]
}
