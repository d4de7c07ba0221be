package service

import (
	"context"
	"strings"
	"time"

	"policylens-be/internal/dto"
	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/events"
)

type IAdminService interface {
	ReloadCourse(ctx context.Context, selector string) (*dto.ReloadResponse, error)
	ReloadAll(ctx context.Context) ([]*dto.ReloadResponse, error)
	GetSystemLogs(ctx context.Context, level string, limit int) ([]*dto.LogListResponse, error)
}

type adminService struct {
	courseService ICourseService
	cluster       ClusterAnnouncer
	logReader     logger.LogReader
	logger        logger.ILogger
}

func NewAdminService(courseService ICourseService, cluster ClusterAnnouncer, logReader logger.LogReader, log logger.ILogger) IAdminService {
	return &adminService{
		courseService: courseService,
		cluster:       cluster,
		logReader:     logReader,
		logger:        log,
	}
}

// ReloadCourse reloads locally and then asks the other replicas to do the same.
func (s *adminService) ReloadCourse(ctx context.Context, selector string) (*dto.ReloadResponse, error) {
	res, err := s.courseService.Reload(ctx, selector)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, res.Course)
	return res, nil
}

func (s *adminService) ReloadAll(ctx context.Context) ([]*dto.ReloadResponse, error) {
	res, err := s.courseService.ReloadAll(ctx)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, "")
	return res, nil
}

func (s *adminService) announce(ctx context.Context, course string) {
	s.logger.Info("ADMIN", "Manual reload", map[string]interface{}{"course": course})
	if s.cluster != nil {
		s.cluster.AnnounceReload(ctx, events.DocumentChanged{Course: course, Origin: events.OriginAdmin})
	}
}

func (s *adminService) GetSystemLogs(ctx context.Context, level string, limit int) ([]*dto.LogListResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	entries, err := s.logReader.RecentEntries(strings.ToUpper(level), limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		ts := parseLogTime(e.Timestamp)
		res = append(res, &dto.LogListResponse{
			Level:     e.Level,
			Module:    e.Module,
			Message:   e.Message,
			Details:   e.Details,
			CreatedAt: ts,
		})
	}
	return res, nil
}

// parseLogTime reads zap's ISO8601 timestamps, falling back to RFC3339.
func parseLogTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05.000Z0700", time.RFC3339Nano} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
