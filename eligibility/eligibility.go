// Package eligibility decides which users a supervisor may manage.
package eligibility

import (
	"orgdash/levels"
	"orgdash/models"
)

// CanSupervise applies the rules in order: admins may supervise anyone,
// Overall supervisors anyone who is not an admin, and everyone else only
// users on a strictly lower level.
func CanSupervise(supervisor, u *models.User) bool {
	if supervisor == nil || u == nil {
		return false
	}
	if supervisor.Role == models.RoleAdmin {
		return true
	}
	if levels.IsOverall(supervisor.SupervisoryLevel) {
		return u.Role != models.RoleAdmin
	}
	return levels.IsLower(u.SupervisoryLevel, supervisor.SupervisoryLevel)
}

// EligibleMembers returns the roster entries the supervisor may manage, in
// roster order. A nil supervisor yields an empty slice.
func EligibleMembers(supervisor *models.User, roster []models.User) []models.User {
	out := make([]models.User, 0, len(roster))
	if supervisor == nil {
		return out
	}
	for i := range roster {
		if CanSupervise(supervisor, &roster[i]) {
			out = append(out, roster[i])
		}
	}
	return out
}

// Ineligible returns the ids from ids that the supervisor may not manage.
// Ids missing from the roster are not reported.
func Ineligible(supervisor *models.User, roster []models.User, ids []uint) []uint {
	byID := make(map[uint]*models.User, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}
	var out []uint
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		if !CanSupervise(supervisor, u) {
			out = append(out, id)
		}
	}
	return out
}
