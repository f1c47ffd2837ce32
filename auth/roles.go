// ABOUTME: Role-based permission table
// ABOUTME: Unknown or empty roles fall back to Sales
package auth

import (
	"errors"
	"strings"

	"github.com/manvote/crmdesk/models"
)

type Permission string

const (
	PermDeleteLead  Permission = "DELETE_LEAD"
	PermExportData  Permission = "EXPORT_DATA"
	PermViewRevenue Permission = "VIEW_REVENUE"
	PermManageTeam  Permission = "MANAGE_TEAM"
)

var ErrForbidden = errors.New("permission denied")

var grants = map[Permission][]models.Role{
	PermDeleteLead:  {models.RoleAdmin, models.RoleManager},
	PermExportData:  {models.RoleAdmin, models.RoleManager},
	PermViewRevenue: {models.RoleAdmin, models.RoleManager},
	PermManageTeam:  {models.RoleAdmin},
}

// NormalizeRole maps any spelling of a known role onto it, defaulting to Sales.
func NormalizeRole(s string) models.Role {
	for _, r := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleSales} {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r
		}
	}
	return models.RoleSales
}

// Can reports whether role holds perm.
func Can(role models.Role, perm Permission) bool {
	role = NormalizeRole(string(role))
	for _, r := range grants[perm] {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns ErrForbidden unless role holds perm.
func Require(role models.Role, perm Permission) error {
	if !Can(role, perm) {
		return ErrForbidden
	}
	return nil
}
