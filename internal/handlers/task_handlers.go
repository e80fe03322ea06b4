package handlers

import (
	"net/http"
	"time"
	"workTracker/internal/handlers/dto"
	"workTracker/internal/logger"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/task"
	"workTracker/internal/service"

	"go.uber.org/zap"
)

const serviceName = "work-tracker"

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("service", serviceName),
			toPayload("status", "unavailable"))
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("service", serviceName),
		toPayload("status", "ok"),
		toPayload("time", time.Now().UTC()))
}

// PostTask - POST /tasks, личная задача
func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	s.createTask(w, r, task.Personal(actor.UserID), actor)
}

// PostSpaceTask - POST /spaces/{spaceID}/tasks
func (s *TaskHandler) PostSpaceTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	spaceID, ok := parseUUIDParam(w, r, "spaceID")
	if !ok {
		return
	}
	s.createTask(w, r, task.Shared(spaceID, actor.UserID), actor)
}

func (s *TaskHandler) createTask(w http.ResponseWriter, r *http.Request, owner task.Owner, actor permission.Actor) {
	start := time.Now()

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if request.Title == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "title"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "название не может быть пустым")
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), owner, attributesFrom(request), actor)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, dto.FromTask(created))
}

// PostSubtask - POST /tasks/{id}/subtasks
func (s *TaskHandler) PostSubtask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	parentID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if request.Title == "" {
		responseWithError(w, http.StatusBadRequest, "название не может быть пустым")
		return
	}

	sub, err := s.TaskService.CreateSubtask(r.Context(), parentID, attributesFrom(request), actor)
	if err != nil {
		handleServiceError(w, r, err, "create_subtask")
		return
	}

	logger.Info("HTTP_OUT: Подзадача создана",
		zap.String("task_id", sub.UUID.String()),
		zap.String("parent_id", parentID.String()),
		zap.Duration("ms", time.Since(start)))

	responseWithData(w, http.StatusCreated, dto.FromTask(sub))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := s.TaskService.GetTask(r.Context(), id, actor)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTask(t))
}

// ListTasks - GET /tasks, личные родительские задачи
func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	s.listTasks(w, r, task.Personal(actor.UserID))
}

// ListSpaceTasks - GET /spaces/{spaceID}/tasks; чтение не проверяется оракулом
func (s *TaskHandler) ListSpaceTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	spaceID, ok := parseUUIDParam(w, r, "spaceID")
	if !ok {
		return
	}
	s.listTasks(w, r, task.Shared(spaceID, actor.UserID))
}

func (s *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request, owner task.Owner) {
	filter, ok := parseTaskFilter(w, r)
	if !ok {
		return
	}

	tasks, err := s.TaskService.ListTasks(r.Context(), owner, filter)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) ListSubtasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	parentID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	subtasks, err := s.TaskService.ListSubtasks(r.Context(), parentID, actor)
	if err != nil {
		handleServiceError(w, r, err, "list_subtasks")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromTaskList(subtasks))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if request.Title != nil && *request.Title == "" {
		responseWithError(w, http.StatusBadRequest, "название не может быть пустым")
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), id, actor, updateOptions(request)...)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithData(w, http.StatusOK, dto.FromTask(updated))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), id, actor); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	responseNoContent(w)
}

func attributesFrom(request dto.CreateTaskRequest) service.TaskAttributes {
	return service.TaskAttributes{
		Title:       request.Title,
		Description: request.Description,
		Priority:    task.Priority(request.Priority),
		Status:      task.Status(request.Status),
		StartDate:   request.StartDate,
		EndDate:     request.EndDate,
		ProjectID:   request.ProjectID,
		Assignees:   request.Assignees,
	}
}

func updateOptions(request dto.UpdateTaskRequest) []task.TaskOption {
	var opts []task.TaskOption
	if request.Title != nil {
		opts = append(opts, task.WithTitle(*request.Title))
	}
	if request.Description != nil {
		opts = append(opts, task.WithDescription(*request.Description))
	}
	if request.Priority != nil {
		opts = append(opts, task.WithPriority(task.Priority(*request.Priority)))
	}
	if request.Status != nil {
		opts = append(opts, task.WithStatus(task.Status(*request.Status)))
	}
	if request.StartDate != nil {
		opts = append(opts, task.WithStartDate(request.StartDate))
	}
	if request.EndDate != nil {
		opts = append(opts, task.WithEndDate(request.EndDate))
	}
	if request.ProjectID != nil {
		opts = append(opts, task.WithProject(request.ProjectID))
	}
	if request.Assignees != nil {
		opts = append(opts, task.WithAssignees(*request.Assignees))
	}
	for _, field := range request.Clear {
		switch field {
		case dto.ClearStartDate:
			opts = append(opts, task.WithStartDate(nil))
		case dto.ClearEndDate:
			opts = append(opts, task.WithEndDate(nil))
		case dto.ClearProject:
			opts = append(opts, task.WithProject(nil))
		}
	}
	return opts
}

func parseTaskFilter(w http.ResponseWriter, r *http.Request) (task.Filter, bool) {
	var filter task.Filter
	var err error

	fail := func(param string, err error) (task.Filter, bool) {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("param", param),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное значение "+param+": "+err.Error())
		return task.Filter{}, false
	}

	if filter.ProjectID, err = queryUUID(r, "project_id"); err != nil {
		return fail("project_id", err)
	}
	if filter.From, err = queryTime(r, "from"); err != nil {
		return fail("from", err)
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		return fail("to", err)
	}
	if filter.Page, err = queryInt(r, "page"); err != nil {
		return fail("page", err)
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return fail("limit", err)
	}
	filter.Priority = task.Priority(r.URL.Query().Get("priority"))
	filter.Status = task.Status(r.URL.Query().Get("status"))
	return filter, true
}
