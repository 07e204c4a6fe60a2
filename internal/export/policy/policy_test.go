package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fieldbook/internal/auth/session"
	"fieldbook/internal/export/models"
)

func TestIsAllowed(t *testing.T) {
	p := New()

	t.Run("admin may export every domain", func(t *testing.T) {
		for _, d := range models.Domains() {
			assert.True(t, p.IsAllowed(session.RoleAdmin, d), "domain %s", d)
		}
	})

	t.Run("customer may export nothing", func(t *testing.T) {
		for _, d := range models.Domains() {
			assert.False(t, p.IsAllowed(session.RoleCustomer, d), "domain %s", d)
		}
	})

	t.Run("accountant limited to money domains", func(t *testing.T) {
		assert.True(t, p.IsAllowed(session.RoleAccountant, models.DomainInvoices))
		assert.True(t, p.IsAllowed(session.RoleAccountant, models.DomainPayments))
		assert.False(t, p.IsAllowed(session.RoleAccountant, models.DomainStaff))
	})

	t.Run("unknown role denied", func(t *testing.T) {
		assert.False(t, p.IsAllowed(session.Role("INTERN"), models.DomainServices))
	})

	t.Run("empty role denied", func(t *testing.T) {
		assert.False(t, p.IsAllowed(session.Role(""), models.DomainServices))
	})
}
