package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"taskclient/internal/httpclient"
	"taskclient/internal/logger"
	"taskclient/internal/models"
	"taskclient/internal/storage"

	"go.uber.org/zap"
)

// Fixed storage key for the local fallback log.
const localActivityKey = "tms_activity_log_v1"

// ActivityService reads and appends the per-task audit trail. When the
// backend endpoint is unavailable it degrades to a local append-only log in
// client storage. That log is not shared across devices and is lost with the
// storage file, a documented data-loss surface.
type ActivityService struct {
	api *httpclient.Client
	kv  storage.KV
	now func() time.Time
}

func NewActivityService(api *httpclient.Client, kv storage.KV) *ActivityService {
	return &ActivityService{api: api, kv: kv, now: time.Now}
}

func (s *ActivityService) ListByTask(ctx context.Context, taskID int64) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.api.Get(ctx, fmt.Sprintf("/api/activities/task/%d", taskID), nil, &activities)
	if err == nil {
		return activities, nil
	}

	logger.Debug("activities: backend unavailable, reading local log", zap.Error(err))
	var local []models.Activity
	for _, a := range s.readLocal() {
		if a.TaskID == taskID {
			local = append(local, a)
		}
	}
	sort.Slice(local, func(i, j int) bool { return local[i].CreatedAt.Before(local[j].CreatedAt) })
	return local, nil
}

// Record appends an activity entry, preferring the backend and falling back
// to the local log.
func (s *ActivityService) Record(ctx context.Context, activity models.Activity) (*models.Activity, error) {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = s.now()
	}

	var created models.Activity
	if err := s.api.Post(ctx, "/api/activities", activity, &created); err == nil {
		return &created, nil
	} else {
		logger.Debug("activities: backend unavailable, appending to local log", zap.Error(err))
	}

	activity.ID = s.now().UnixMilli()
	all := s.readLocal()
	all = append(all, activity)
	s.writeLocal(all)
	return &activity, nil
}

// BuildFromTask seeds creation/update entries from task metadata when no
// recorded history exists for it.
func (s *ActivityService) BuildFromTask(task *models.Task, creatorName string) []models.Activity {
	if task == nil {
		return nil
	}
	list := []models.Activity{{
		TaskID:    task.ID,
		Type:      models.ActivityCreated,
		ActorID:   &task.CreatorID,
		ActorName: creatorName,
		Detail:    "Task created",
		CreatedAt: task.CreatedAt,
	}}
	if task.UpdatedAt.After(task.CreatedAt) {
		list = append(list, models.Activity{
			TaskID:    task.ID,
			Type:      models.ActivityUpdated,
			Detail:    "Task updated",
			CreatedAt: task.UpdatedAt,
		})
	}
	return list
}

func (s *ActivityService) readLocal() []models.Activity {
	raw, ok := s.kv.Get(localActivityKey)
	if !ok || raw == "" {
		return nil
	}
	var all []models.Activity
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		return nil
	}
	return all
}

func (s *ActivityService) writeLocal(all []models.Activity) {
	data, err := json.Marshal(all)
	if err != nil {
		return
	}
	s.kv.Set(localActivityKey, string(data))
}
