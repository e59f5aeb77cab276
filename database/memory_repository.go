package database

import (
	"cmp"
	"maps"
	"slices"
	"sync"
	"time"

	"orgdash/models"
)

type memoryRepository struct {
	mu       sync.RWMutex
	nextID   uint
	orgs     map[uint]models.Organization
	depts    map[uint]models.Department
	users    map[uint]models.User
	teams    map[uint]models.Team
	tasks    map[uint]models.Task
	comments map[uint]models.TaskComment
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		orgs:     make(map[uint]models.Organization),
		depts:    make(map[uint]models.Department),
		users:    make(map[uint]models.User),
		teams:    make(map[uint]models.Team),
		tasks:    make(map[uint]models.Task),
		comments: make(map[uint]models.TaskComment),
	}
}

func (r *memoryRepository) id() uint {
	r.nextID++
	return r.nextID
}

func sortedValues[V any](m map[uint]V, keep func(V) bool) []V {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		if keep == nil || keep(m[k]) {
			out = append(out, m[k])
		}
	}
	return out
}

func (r *memoryRepository) CreateOrganization(org *models.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.Name == org.Name {
			return ErrConflict
		}
	}
	org.ID = r.id()
	org.CreatedAt, org.UpdatedAt = time.Now(), time.Now()
	r.orgs[org.ID] = *org
	return nil
}

func (r *memoryRepository) ListOrganizations() ([]models.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.orgs, nil), nil
}

func (r *memoryRepository) GetOrganization(id uint) (*models.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r *memoryRepository) CreateDepartment(d *models.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = r.id()
	d.CreatedAt, d.UpdatedAt = time.Now(), time.Now()
	r.depts[d.ID] = *d
	return nil
}

func (r *memoryRepository) ListDepartments(orgID uint) ([]models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := sortedValues(r.depts, func(d models.Department) bool { return d.OrganizationID == orgID })
	slices.SortStableFunc(out, func(a, b models.Department) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *memoryRepository) CreateUser(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return ErrConflict
		}
	}
	u.ID = r.id()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r *memoryRepository) GetUser(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepository) GetUserByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) ListUsers(orgID uint) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.users, func(u models.User) bool { return u.OrganizationID == orgID }), nil
}

func (r *memoryRepository) SaveUsers(users []models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		if _, ok := r.users[u.ID]; !ok {
			return ErrNotFound
		}
	}
	for _, u := range users {
		u.UpdatedAt = time.Now()
		r.users[u.ID] = u
	}
	return nil
}

func (r *memoryRepository) withMembers(t models.Team) models.Team {
	t.MemberIDs = []uint{}
	for _, id := range slices.Sorted(maps.Keys(r.users)) {
		if tid := r.users[id].TeamID; tid != nil && *tid == t.ID {
			t.MemberIDs = append(t.MemberIDs, id)
		}
	}
	return t
}

func (r *memoryRepository) CreateTeam(t *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	for _, id := range t.MemberIDs {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		teamID := t.ID
		u.TeamID = &teamID
		r.users[id] = u
	}
	stored := *t
	stored.MemberIDs = nil
	r.teams[t.ID] = stored
	*t = r.withMembers(stored)
	return nil
}

func (r *memoryRepository) GetTeam(id uint) (*models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = r.withMembers(t)
	return &t, nil
}

func (r *memoryRepository) ListTeams(orgID uint) ([]models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	teams := sortedValues(r.teams, func(t models.Team) bool { return t.OrganizationID == orgID })
	for i := range teams {
		teams[i] = r.withMembers(teams[i])
	}
	return teams, nil
}

func (r *memoryRepository) DeleteTeam(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return ErrNotFound
	}
	for uid, u := range r.users {
		if u.TeamID != nil && *u.TeamID == id {
			u.TeamID = nil
			r.users[uid] = u
		}
	}
	delete(r.teams, id)
	return nil
}

func (r *memoryRepository) CreateTask(t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r *memoryRepository) GetTask(id uint) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *memoryRepository) ListTasks(f models.TaskFilter) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := sortedValues(r.tasks, func(t models.Task) bool {
		switch {
		case f.OrganizationID > 0 && t.OrganizationID != f.OrganizationID:
			return false
		case f.AssigneeID > 0 && t.AssigneeID != f.AssigneeID:
			return false
		case f.Status != "" && t.Status != f.Status:
			return false
		case !f.Date.IsZero() && !sameDay(t.Date, f.Date):
			return false
		}
		return true
	})
	slices.SortStableFunc(out, func(a, b models.Task) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r *memoryRepository) UpdateTask(t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	t.UpdatedAt = time.Now()
	r.tasks[t.ID] = *t
	return nil
}

func (r *memoryRepository) AddTaskComment(c *models.TaskComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[c.TaskID]; !ok {
		return ErrNotFound
	}
	c.ID = r.id()
	c.CreatedAt = time.Now()
	r.comments[c.ID] = *c
	return nil
}

func (r *memoryRepository) ListTaskComments(taskID uint) ([]models.TaskComment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.comments, func(c models.TaskComment) bool { return c.TaskID == taskID }), nil
}

func (r *memoryRepository) HealthCheck() error {
	return nil
}
