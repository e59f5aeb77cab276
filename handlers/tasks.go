package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"orgdash/config"
	"orgdash/database"
	"orgdash/eligibility"
	"orgdash/metrics"
	"orgdash/middleware"
	"orgdash/models"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	config *config.Config
	repo   database.Repository
	log    *logrus.Logger
}

func NewTaskHandler(cfg *config.Config, repo database.Repository, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		config: cfg,
		repo:   repo,
		log:    log,
	}
}

// canManageTasksFor: users manage their own tasks; reviewers manage tasks of
// anyone they may supervise.
func canManageTasksFor(actor, assignee *models.User) bool {
	if actor.ID == assignee.ID {
		return true
	}
	return actor.CanReviewTasks() && eligibility.CanSupervise(actor, assignee)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	q := r.URL.Query()

	filter := models.TaskFilter{
		OrganizationID: actor.OrganizationID,
		Status:         models.TaskStatus(q.Get("status")),
	}
	assigneeID, err := queryID(r, "assignee_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignee_id")
		return
	}
	filter.AssigneeID = assigneeID
	if !actor.CanReviewTasks() {
		filter.AssigneeID = actor.ID
	}
	if d := q.Get("date"); d != "" {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Date = date
	}

	tasks, err := h.repo.ListTasks(filter)
	if err != nil {
		writeStoreError(w, err, "tasks")
		return
	}
	if filter.AssigneeID == actor.ID {
		writeSuccess(w, tasks)
		return
	}

	// Reviewers only see tasks of users they could review.
	roster, err := h.repo.ListUsers(actor.OrganizationID)
	if err != nil {
		writeStoreError(w, err, "users")
		return
	}
	byID := make(map[uint]*models.User, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}
	visible := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if assignee, ok := byID[t.AssigneeID]; ok && canManageTasksFor(actor, assignee) {
			visible = append(visible, t)
		}
	}
	writeSuccess(w, visible)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	var req models.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	assignee, err := h.repo.GetUser(req.AssigneeID)
	if err != nil || assignee.OrganizationID != actor.OrganizationID {
		writeError(w, http.StatusNotFound, "assignee not found")
		return
	}
	if !canManageTasksFor(actor, assignee) {
		writeError(w, http.StatusForbidden, "you cannot create tasks for this user")
		return
	}

	task := &models.Task{
		OrganizationID: actor.OrganizationID,
		AssigneeID:     assignee.ID,
		CreatedByID:    actor.ID,
		Date:           req.Date,
		Title:          req.Title,
		Description:    req.Description,
		Status:         models.TaskPending,
	}
	if err := h.repo.CreateTask(task); err != nil {
		writeStoreError(w, err, "task")
		return
	}
	writeCreated(w, task)
}

// taskFromURL loads {id} and its assignee, and checks the caller may see it.
func (h *TaskHandler) taskFromURL(w http.ResponseWriter, r *http.Request) (*models.Task, *models.User, bool) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil, nil, false
	}
	task, err := h.repo.GetTask(id)
	if err != nil {
		writeStoreError(w, err, "task")
		return nil, nil, false
	}
	actor := middleware.GetUserFromContext(r.Context())
	if task.OrganizationID != actor.OrganizationID && !actor.IsAdmin() {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, nil, false
	}
	assignee, err := h.repo.GetUser(task.AssigneeID)
	if err != nil {
		writeStoreError(w, err, "assignee")
		return nil, nil, false
	}
	if !canManageTasksFor(actor, assignee) {
		writeError(w, http.StatusForbidden, "you cannot access this task")
		return nil, nil, false
	}
	return task, assignee, true
}

// Review approves or rejects a pending task. Reviewers cannot review their
// own tasks.
func (h *TaskHandler) Review(w http.ResponseWriter, r *http.Request) {
	task, assignee, ok := h.taskFromURL(w, r)
	if !ok {
		return
	}
	actor := middleware.GetUserFromContext(r.Context())
	if actor.ID == assignee.ID || !actor.CanReviewTasks() {
		writeError(w, http.StatusForbidden, "you cannot review this task")
		return
	}
	var req models.ReviewTaskRequest
	if !decode(w, r, &req) {
		return
	}
	if task.Status != models.TaskPending {
		writeError(w, http.StatusConflict, "task has already been reviewed")
		return
	}

	task.Status = req.Status
	reviewer := actor.ID
	task.ReviewedByID = &reviewer
	if err := h.repo.UpdateTask(task); err != nil {
		writeStoreError(w, err, "task")
		return
	}
	if req.Comment != "" {
		comment := &models.TaskComment{TaskID: task.ID, AuthorID: actor.ID, Body: req.Comment}
		if err := h.repo.AddTaskComment(comment); err != nil {
			h.log.WithError(err).WithField("task_id", task.ID).Warn("failed to store review comment")
		}
	}

	metrics.ObserveReview(string(task.Status))
	h.log.WithFields(logrus.Fields{"task_id": task.ID, "status": task.Status}).Info("task reviewed")
	writeSuccess(w, task)
}

func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	task, _, ok := h.taskFromURL(w, r)
	if !ok {
		return
	}
	comments, err := h.repo.ListTaskComments(task.ID)
	if err != nil {
		writeStoreError(w, err, "comments")
		return
	}
	writeSuccess(w, comments)
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	task, _, ok := h.taskFromURL(w, r)
	if !ok {
		return
	}
	var req models.CreateCommentRequest
	if !decode(w, r, &req) {
		return
	}
	actor := middleware.GetUserFromContext(r.Context())
	comment := &models.TaskComment{TaskID: task.ID, AuthorID: actor.ID, Body: req.Body}
	if err := h.repo.AddTaskComment(comment); err != nil {
		writeStoreError(w, err, "comment")
		return
	}
	writeCreated(w, comment)
}
